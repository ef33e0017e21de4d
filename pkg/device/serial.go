package device

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	// DefaultBaudRate matches the transport rate the firmware configures.
	DefaultBaudRate = 500000
	// DefaultBufferSize is the default size for the frames channel buffer.
	DefaultBufferSize = 100
)

// Stream control bytes understood by the device: start and end streaming.
const (
	cmdStart = 's'
	cmdStop  = 'e'
)

// Frame is one decoded line from the device: one reading per configured
// channel, in channel-list order, stamped with the host arrival time. The
// wire carries no timestamp or sequence number, so arrival time is the only
// ordering information a consumer has.
type Frame struct {
	Timestamp time.Time
	Values    []int
}

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial represents a connection to the sampling device.
type Serial struct {
	port     string
	baudRate int
	bufSize  int

	conn      serial.Port
	frames    chan Frame
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
}

// New creates a new Serial device instance with the specified port, baud
// rate, and buffer size.
func New(port string, baudRate int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:      port,
		baudRate:  baudRate,
		bufSize:   bufSize,
		frames:    make(chan Frame, bufSize),
		ctx:       ctx,
		cancel:    cancel,
		connected: false,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{
			Name:        name,
			Description: name,
		})
	}

	return result, nil
}

// Connect connects to the serial port and starts reading frames.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}

	mode := &serial.Mode{
		BaudRate: d.baudRate,
	}

	port, err := serial.Open(d.port, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.conn = port
	d.connected = true

	// Start reading frames in a goroutine
	go d.readFrames()

	return nil
}

// Close closes the connection and stops reading frames.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	// Cancel context to stop reading goroutine
	d.cancel()

	// Close serial port
	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		d.conn = nil
	}

	d.connected = false

	// Close frames channel
	close(d.frames)

	return nil
}

// Frames returns the channel for reading decoded frames.
func (d *Serial) Frames() <-chan Frame {
	return d.frames
}

// StartStream tells the device to begin emitting sample lines.
func (d *Serial) StartStream() error {
	return d.command(cmdStart)
}

// StopStream tells the device to stop emitting sample lines.
func (d *Serial) StopStream() error {
	return d.command(cmdStop)
}

func (d *Serial) command(b byte) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.connected {
		return fmt.Errorf("not connected")
	}

	if _, err := d.conn.Write([]byte{b}); err != nil {
		return fmt.Errorf("failed to send stream command %q: %w", b, err)
	}

	return nil
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// readFrames reads lines from the serial port and parses them into Frames.
// Malformed or truncated lines are the expected symptom of transport
// saturation on the device side, so they are logged and skipped, never
// fatal.
func (d *Serial) readFrames() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in readFrames: %v", r)
		}
	}()

	scanner := bufio.NewScanner(d.conn)
	for {
		select {
		case <-d.ctx.Done():
			return
		default:
			if !scanner.Scan() {
				// Scanner stopped (EOF or error)
				if err := scanner.Err(); err != nil {
					if err != io.EOF {
						log.Printf("Error reading from serial port: %v", err)
					}
				}
				return
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			values, err := parseLine(line)
			if err != nil {
				log.Printf("Failed to parse line '%s': %v", line, err)
				continue
			}

			frame := Frame{Timestamp: time.Now(), Values: values}

			// Send frame to channel (non-blocking)
			select {
			case d.frames <- frame:
			case <-d.ctx.Done():
				return
			default:
				// Channel full, log and skip
				log.Printf("Frames channel full, dropping frame")
			}
		}
	}
}

// parseLine parses one wire line into channel readings.
// Format: decimal integers separated by single spaces.
// Example: "10 -3 255"
func parseLine(line string) ([]int, error) {
	parts := strings.Split(line, " ")
	values := make([]int, len(parts))
	for i, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid field %d: %w", i, err)
		}
		values[i] = v
	}
	return values, nil
}
