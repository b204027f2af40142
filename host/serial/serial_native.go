package serial

import (
	"errors"
	"fmt"
	"time"

	"github.com/tarm/serial"
)

// tarmPort is a Port on top of github.com/tarm/serial.
type tarmPort struct {
	*serial.Port
	device string
}

// Open opens cfg.Device with the controller's fixed 8N1 framing.
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, errors.New("serial: nil config")
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Device, err)
	}
	return &tarmPort{Port: port, device: cfg.Device}, nil
}

func (p *tarmPort) String() string {
	return p.device
}
