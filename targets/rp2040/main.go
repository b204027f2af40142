//go:build rp2040

package main

import (
	"machine"
	"time"

	"fanctl/core"
	"fanctl/protocol"
	"fanctl/storage"
)

// Board wiring.
const (
	linkTX = machine.GPIO0
	linkRX = machine.GPIO1

	pinPWMInput    = machine.GPIO2
	pinSpeedInput  = machine.GPIO3
	pinSpeedOutput = machine.GPIO6
	pinPWMOutput   = machine.GPIO7
)

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitDebugUART()
	core.SetDebugWriter(DebugPrintln)
	core.SetDebugEnabled(debugEnabled)

	// Reset via watchdog; used for store corruption recovery
	core.SetResetHandler(func() {
		machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 1})
		machine.Watchdog.Start()
		for {
			time.Sleep(1 * time.Millisecond)
		}
	})

	core.SetGPIODriver(NewRPGPIODriver())
	ports, err := core.NewGPIOPorts(core.MustGPIO(), core.PinMap{
		PWMInput:    core.GPIOPin(pinPWMInput),
		SpeedInput:  core.GPIOPin(pinSpeedInput),
		SpeedOutput: core.GPIOPin(pinSpeedOutput),
		PWMOutput:   core.GPIOPin(pinPWMOutput),
	})
	if err != nil {
		DebugPrintln("[FW] port setup failed: " + err.Error())
		return
	}

	geom := storage.DefaultGeometry()
	flash, err := NewFlashStore(geom)
	if err != nil {
		DebugPrintln("[FW] flash setup failed: " + err.Error())
		return
	}

	fw := core.NewFirmware(flash, geom, ports)

	// Boot clock follows the hardware timer from here on
	ticker := NewTicker(fw.Clock)

	uart := machine.UART0
	if err := uart.Configure(machine.UARTConfig{
		BaudRate: protocol.BaudRate,
		TX:       linkTX,
		RX:       linkRX,
	}); err != nil {
		DebugPrintln("[FW] uart setup failed: " + err.Error())
		return
	}

	capture, err := NewDutyCapture(pinPWMInput, fw.Sampler)
	if err != nil {
		DebugPrintln("[FW] duty capture unavailable: " + err.Error())
	}

	background := func() {
		ticker.Poll()
		if capture != nil {
			capture.Drain()
		}
	}

	link := core.NewUARTLink(uart, fw.Clock)
	link.Idle = background
	fw.SetLink(link)

	if err := fw.Init(); err != nil {
		DebugPrintln("[FW] init failed: " + err.Error())
	}

	// Tach pulses count into the current speed window
	pinSpeedInput.SetInterrupt(machine.PinFalling, func(machine.Pin) {
		fw.Sampler.SpeedEdge()
	})

	for {
		background()
		if err := fw.Poll(); err != nil {
			DebugPrintln("[FW] frame error: " + err.Error())
		}
	}
}
