package record

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/itohio/goadc/pkg/device"
)

// columnNames returns the header for n channels: Ch0, Ch1, ... ChN-1.
func columnNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = "Ch" + strconv.Itoa(i)
	}
	return names
}

// SaveCSV writes frames to a CSV file: a running sample index followed by
// one column per channel. Frames must all carry the same channel count,
// which the Recorder window guarantees.
func SaveCSV(filename string, frames []device.Frame) error {
	if len(frames) == 0 {
		return fmt.Errorf("nothing to save")
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	n := len(frames[0].Values)
	header := append([]string{"sample"}, columnNames(n)...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := make([]string, n+1)
	for i, frame := range frames {
		row[0] = strconv.Itoa(i)
		for j, v := range frame.Values {
			row[j+1] = strconv.Itoa(v)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	w.Flush()
	return w.Error()
}

// SaveJSON writes frames as JSON records, one object per line, keyed by
// column name: {"Ch0":10,"Ch1":-3}. Objects are built by hand so the keys
// stay in channel order; values are plain integers so no escaping is
// involved.
func SaveJSON(filename string, frames []device.Frame) error {
	if len(frames) == 0 {
		return fmt.Errorf("nothing to save")
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	names := columnNames(len(frames[0].Values))

	for _, frame := range frames {
		w.WriteByte('{')
		for j, v := range frame.Values {
			if j > 0 {
				w.WriteByte(',')
			}
			w.WriteByte('"')
			w.WriteString(names[j])
			w.WriteString(`":`)
			w.WriteString(strconv.Itoa(v))
		}
		w.WriteString("}\n")
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}
