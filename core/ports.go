package core

import (
	"errors"
	"fanctl/protocol"
)

// ErrInvalidPort is returned for port identifiers outside the wire enums.
var ErrInvalidPort = errors.New("invalid port")

// Ports gives the protocol engine direct access to the board's I/O lines.
type Ports interface {
	ReadInput(port protocol.ReadablePort) (bool, error)
	WriteOutput(port protocol.WritablePort, level bool) error
}

// PinMap assigns GPIO pins to the four logical ports.
type PinMap struct {
	PWMInput    GPIOPin
	SpeedInput  GPIOPin
	SpeedOutput GPIOPin
	PWMOutput   GPIOPin
}

// GPIOPorts implements Ports on top of a GPIODriver.
type GPIOPorts struct {
	drv  GPIODriver
	pins PinMap
}

// NewGPIOPorts configures the pins in pins and returns the port set.
// Inputs are pulled up (open-collector tach and PWM lines), outputs start low.
func NewGPIOPorts(drv GPIODriver, pins PinMap) (*GPIOPorts, error) {
	for _, pin := range []GPIOPin{pins.PWMInput, pins.SpeedInput} {
		if err := drv.ConfigureInputPullUp(pin); err != nil {
			return nil, err
		}
	}
	for _, pin := range []GPIOPin{pins.SpeedOutput, pins.PWMOutput} {
		if err := drv.ConfigureOutput(pin); err != nil {
			return nil, err
		}
		if err := drv.SetPin(pin, false); err != nil {
			return nil, err
		}
	}
	return &GPIOPorts{drv: drv, pins: pins}, nil
}

// ReadInput implements Ports.
func (p *GPIOPorts) ReadInput(port protocol.ReadablePort) (bool, error) {
	switch port {
	case protocol.PortPWMInput:
		return p.drv.GetPin(p.pins.PWMInput)
	case protocol.PortSpeedInput:
		return p.drv.GetPin(p.pins.SpeedInput)
	}
	return false, ErrInvalidPort
}

// WriteOutput implements Ports.
func (p *GPIOPorts) WriteOutput(port protocol.WritablePort, level bool) error {
	switch port {
	case protocol.PortSpeedOutput:
		return p.drv.SetPin(p.pins.SpeedOutput, level)
	case protocol.PortPWMOutput:
		return p.drv.SetPin(p.pins.PWMOutput, level)
	}
	return ErrInvalidPort
}
