package core

import (
	"fanctl/protocol"
	"sync/atomic"
)

// RegisterCoreCommands registers the command set on r. ports may be nil on
// boards without test wiring, in which case port commands fail.
func RegisterCoreCommands(r *CommandRegistry, mode *ModeState, clock *Clock, ports Ports) {
	r.Register(Command{
		Type: protocol.CmdGetMode,
		Handler: func(_ []byte) ([]byte, error) {
			return protocol.GetModeReply(mode.Get()), nil
		},
	})

	r.Register(Command{
		Type: protocol.CmdSetMode,
		Args: []ArgKind{ArgMode},
		Handler: func(args []byte) ([]byte, error) {
			mode.Set(protocol.FirmwareMode(args[0]))
			return protocol.Success, nil
		},
	})

	r.Register(Command{
		Type:     protocol.CmdReadPort,
		Args:     []ArgKind{ArgReadablePort},
		TestOnly: true,
		Handler: func(args []byte) ([]byte, error) {
			if ports == nil {
				return nil, ErrInvalidPort
			}
			level, err := ports.ReadInput(protocol.ReadablePort(args[0]))
			if err != nil {
				return nil, err
			}
			return protocol.ReadPortReply(level), nil
		},
	})

	r.Register(Command{
		Type:     protocol.CmdWritePort,
		Args:     []ArgKind{ArgWritablePort, ArgBool},
		TestOnly: true,
		Handler: func(args []byte) ([]byte, error) {
			if ports == nil {
				return nil, ErrInvalidPort
			}
			if err := ports.WriteOutput(protocol.WritablePort(args[0]), args[1] == 1); err != nil {
				return nil, err
			}
			return protocol.Success, nil
		},
	})

	r.Register(Command{
		Type: protocol.CmdReadClock,
		Handler: func(_ []byte) ([]byte, error) {
			return protocol.ReadClockReply(clock.BootTime()), nil
		},
	})

	// Speed read, PWM set and config transfer are part of the wire format
	// but have no implementation yet.
	for _, t := range []protocol.CommandType{
		protocol.CmdGetInputSpeed,
		protocol.CmdGetInputPWM,
		protocol.CmdSetOutputSpeed,
		protocol.CmdSetOutputPWM,
		protocol.CmdReadConfig,
		protocol.CmdWriteConfig,
	} {
		r.RegisterReserved(t)
	}
}

// Global reset handler (set by target-specific code)
var globalResetHandler func()

// resetPending is set when a reset is requested
// The actual reset happens in the main loop after the reply is sent
var resetPending uint32 // atomic bool

// SetResetHandler sets the platform-specific reset handler
func SetResetHandler(handler func()) {
	globalResetHandler = handler
}

// RequestReset schedules a reset for the next CheckPendingReset.
func RequestReset() {
	atomic.StoreUint32(&resetPending, 1)
}

// ResetPending reports whether a reset has been requested.
func ResetPending() bool {
	return atomic.LoadUint32(&resetPending) != 0
}

// CheckPendingReset checks if a reset was requested and executes it
// This should be called from the main loop after all pending replies are sent
func CheckPendingReset() {
	if atomic.LoadUint32(&resetPending) != 0 {
		// The reset handler (watchdog) has its own built-in delay
		if globalResetHandler != nil {
			globalResetHandler()
			// Should never return - reset handler should reset the MCU
		}
	}
}

// resetNow runs the reset handler immediately. Used for fatal storage
// errors, where continuing would act on state that cannot be trusted.
func resetNow() {
	RequestReset()
	CheckPendingReset()
}

// clearPendingReset drops a requested reset. Only for host builds, where
// the reset handler returns.
func clearPendingReset() {
	atomic.StoreUint32(&resetPending, 0)
}
