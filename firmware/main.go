//go:generate tinygo flash -target=xiao

//go:build tinygo

package main

import (
	"machine"
	"time"

	"github.com/itohio/goadc/pkg/stream"
)

var (
	uart = machine.UART0

	// ADC handles, one per configured pin, in wire order
	adcs [len(ADC_PINS)]machine.ADC

	sampler *stream.Sampler
	line    []byte

	// Streaming state, toggled over serial by the host
	streaming = true

	// Timing
	lastSample time.Time
)

func main() {
	// Configure ADC pins in list order and set up ADCs
	adcConfig := machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	}
	for i, pin := range ADC_PINS {
		pin.Configure(machine.PinConfig{Mode: machine.PinInput})
		adcs[i] = machine.ADC{Pin: pin}
		adcs[i].Configure(adcConfig)
	}

	// Configure UART for sample output and stream control
	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	// Channel identifiers are positions in the pin table
	channels := make([]int, len(ADC_PINS))
	for i := range channels {
		channels[i] = i
	}

	var err error
	sampler, err = stream.NewSampler(channels, readADC)
	if err != nil {
		// An empty pin table is a build-time defect; park forever
		for {
			time.Sleep(time.Second)
		}
	}

	// Allocate the line buffer once; the sampling loop never allocates
	line = make([]byte, 0, stream.LineCapacity(len(channels)))

	// Initialize timing
	lastSample = time.Now()

	// Main loop
	for {
		now := time.Now()

		// Check for serial input (non-blocking)
		processSerial()

		// One snapshot of all channels per elapsed interval
		if streaming && now.Sub(lastSample) >= SAMPLE_INTERVAL_US*time.Microsecond {
			line = stream.AppendLine(line[:0], sampler.Sample())
			uart.Write(line)
			lastSample = now
		}

		// Small delay to prevent tight loop (but still allow precise timing)
		time.Sleep(100 * time.Microsecond)
	}
}

// readADC reads one channel, identified by its position in the pin table.
func readADC(ch int) int {
	return int(adcs[ch].Get())
}

// processSerial handles stream control bytes from the host: 's' starts
// emitting sample lines, 'e' stops. Everything else, including line
// terminators, is ignored.
func processSerial() {
	for uart.Buffered() > 0 {
		data, err := uart.ReadByte()
		if err != nil {
			break
		}

		switch data {
		case 's':
			streaming = true
		case 'e':
			streaming = false
		}
	}
}
