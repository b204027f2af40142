package core

// GPIOPin is a target GPIO number.
type GPIOPin uint32

// GPIODriver is the pin-level HAL the port set is built on. Targets
// provide one; tests use a mock.
type GPIODriver interface {
	ConfigureOutput(pin GPIOPin) error
	// ConfigureInputPullUp also suits open-collector tach lines.
	ConfigureInputPullUp(pin GPIOPin) error
	SetPin(pin GPIOPin, value bool) error
	GetPin(pin GPIOPin) (bool, error)
}

var gpioDriver GPIODriver

// SetGPIODriver registers the target's driver.
func SetGPIODriver(d GPIODriver) {
	gpioDriver = d
}

// MustGPIO returns the registered driver. It panics when bring-up
// forgot to call SetGPIODriver.
func MustGPIO() GPIODriver {
	if gpioDriver == nil {
		panic("core: no GPIO driver registered")
	}
	return gpioDriver
}
