//go:build tinygo

package main

import "machine"

const (
	// Sampling configuration
	SAMPLE_INTERVAL_US = 1000 // One snapshot of every channel per millisecond

	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 10   // ADC resolution in bits (10-bit = 0-1023)

	// Serial configuration
	// Baud rate calculation: one line is "<v0> <v1> ... <v5>\n" =
	// ~7 bytes per channel incl. separator = ~42 bytes max per line
	// 1000 lines/sec * 42 bytes/line = 42,000 bytes/sec
	// UART 8N1: 10 bits/byte = 420,000 baud minimum
	// 500000 provides ~1.2x headroom (50,000 bytes/sec max / 42,000 bytes/sec required)
	UART_BAUD_RATE = 500000
)

// Analog input pins in wire order: position i in this table is field i on
// every emitted line. Fixed before sampling starts, never mutated.
var ADC_PINS = [...]machine.Pin{
	machine.A0,
	machine.A1,
	machine.A2,
	machine.A3,
	machine.A4,
	machine.A5,
}
