package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    []int
		wantErr bool
	}{
		{
			name: "three channels",
			line: "10 -3 255",
			want: []int{10, -3, 255},
		},
		{
			name: "single channel",
			line: "42",
			want: []int{42},
		},
		{
			name: "zeros",
			line: "0 0 0 0 0 0",
			want: []int{0, 0, 0, 0, 0, 0},
		},
		{
			name: "full scale",
			line: "1023 1023",
			want: []int{1023, 1023},
		},
		{
			name:    "non-numeric field",
			line:    "10 abc 255",
			wantErr: true,
		},
		{
			name:    "double space yields empty field",
			line:    "10  255",
			wantErr: true,
		},
		{
			name:    "trailing space yields empty field",
			line:    "10 255 ",
			wantErr: true,
		},
		{
			name:    "truncated value",
			line:    "10 25-",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNew(t *testing.T) {
	dev := New("COM3", 500000, 100)
	assert.NotNil(t, dev)
	assert.Equal(t, "COM3", dev.port)
	assert.Equal(t, 500000, dev.baudRate)
	assert.Equal(t, 100, dev.bufSize)
	assert.NotNil(t, dev.frames)
	assert.False(t, dev.IsConnected())
}

func TestNew_Defaults(t *testing.T) {
	dev := New("COM3", 0, 0)
	assert.NotNil(t, dev)
	assert.Equal(t, DefaultBaudRate, dev.baudRate)
	assert.Equal(t, DefaultBufferSize, dev.bufSize)
}

func TestSerial_CommandsRequireConnection(t *testing.T) {
	dev := New("COM3", 0, 0)
	assert.Error(t, dev.StartStream())
	assert.Error(t, dev.StopStream())
}

func TestSerial_CloseWithoutConnect(t *testing.T) {
	dev := New("COM3", 0, 0)
	assert.NoError(t, dev.Close())
}
