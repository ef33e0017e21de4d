package device

// Device defines the interface for sampling devices (real or mocked).
type Device interface {
	Connect() error
	Close() error
	Frames() <-chan Frame
	StartStream() error
	StopStream() error
	IsConnected() bool
}

var _ Device = (*Serial)(nil)

var _ Device = (*Mock)(nil)
