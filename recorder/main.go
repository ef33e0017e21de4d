package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/itohio/goadc/pkg/config"
	"github.com/itohio/goadc/pkg/device"
	"github.com/itohio/goadc/pkg/record"
	"github.com/itohio/goadc/pkg/stream"
)

func main() {
	var (
		portFlag     = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		baudFlag     = flag.Int("baud", 0, "Baud rate override")
		configFlag   = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag     = flag.Bool("mock", false, "Use mocked device instead of serial port")
		listFlag     = flag.Bool("list-ports", false, "List available serial ports and exit")
		windowFlag   = flag.Int("window", 0, "Number of most recent frames to keep (overrides config)")
		durationFlag = flag.Duration("duration", 0, "Stop recording after this duration (0 = run until interrupted)")
		csvFlag      = flag.String("csv", "", "Save the recorded window as CSV to this path on exit")
		jsonFlag     = flag.String("json", "", "Save the recorded window as JSON records to this path on exit")
		maxRowsFlag  = flag.Int("max-rows", 0, "Downsample the saved window to at most this many rows (0 = keep all)")
	)
	flag.Parse()

	if *listFlag {
		ports, err := device.Ports()
		if err != nil {
			log.Fatalf("Failed to list serial ports: %v", err)
		}
		if len(ports) == 0 {
			fmt.Println("No serial ports found")
			return
		}
		for _, p := range ports {
			fmt.Println(p.Name)
		}
		return
	}

	// Load configuration
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Apply command line overrides
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *baudFlag > 0 {
		cfg.Serial.Baud = *baudFlag
	}
	if *windowFlag > 0 {
		cfg.Record.WindowSamples = *windowFlag
	}

	// Configuration errors are fatal: refuse to start rather than record
	// a saturated or malformed stream.
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	var dev device.Device
	if *mockFlag {
		dev = device.NewMock(cfg)
	} else {
		dev = device.New(cfg.Serial.Port, cfg.Serial.Baud, cfg.Sampling.QueueDepth)
	}

	if err := dev.Connect(); err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer dev.Close()

	if err := dev.StartStream(); err != nil {
		log.Fatalf("Failed to start streaming: %v", err)
	}

	recorder, err := record.New(cfg.Record.WindowSamples)
	if err != nil {
		log.Fatalf("Failed to create recorder: %v", err)
	}

	recorderDone := make(chan struct{})
	go func() {
		defer close(recorderDone)
		recorder.Run(dev.Frames())
	}()

	log.Printf("Recording %d channels every %v (window %d frames)",
		len(cfg.Sampling.Channels), cfg.Sampling.Interval(), cfg.Record.WindowSamples)
	log.Printf("Transport budget: %d baud configured, %d required",
		cfg.Serial.Baud, stream.RequiredBaud(cfg.Sampling.IntervalMicros, len(cfg.Sampling.Channels)))

	// Periodic status line while recording.
	status := time.NewTicker(2 * time.Second)
	defer status.Stop()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var timeout <-chan time.Time
	if *durationFlag > 0 {
		timeout = time.After(*durationFlag)
	}

loop:
	for {
		select {
		case <-interrupt:
			log.Printf("Interrupted, stopping")
			break loop
		case <-timeout:
			log.Printf("Recording duration elapsed, stopping")
			break loop
		case <-status.C:
			snap := recorder.Snapshot()
			if len(snap) == 0 {
				log.Printf("No frames received yet")
				continue
			}
			last := snap[len(snap)-1]
			log.Printf("Received %d frames, window %d, last %v",
				recorder.Received(), len(snap), last.Values)
		}
	}

	// Stop the device before saving so the window stays put.
	if err := dev.StopStream(); err != nil {
		log.Printf("Failed to stop streaming: %v", err)
	}
	recorder.Freeze()

	frames := recorder.Snapshot()
	if *maxRowsFlag > 0 {
		frames = record.Downsample(nil, frames, *maxRowsFlag)
	}

	if len(frames) == 0 {
		log.Printf("Nothing recorded, skipping save")
		return
	}

	if *csvFlag != "" {
		if err := record.SaveCSV(*csvFlag, frames); err != nil {
			log.Printf("Failed to save CSV: %v", err)
		} else {
			log.Printf("Saved %d frames as CSV to %s", len(frames), *csvFlag)
		}
	}
	if *jsonFlag != "" {
		if err := record.SaveJSON(*jsonFlag, frames); err != nil {
			log.Printf("Failed to save JSON: %v", err)
		} else {
			log.Printf("Saved %d frames as JSON to %s", len(frames), *jsonFlag)
		}
	}
}
