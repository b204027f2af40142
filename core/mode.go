package core

import (
	"fanctl/protocol"
	"sync/atomic"
)

// ModeState holds the firmware mode. It is read by the protocol handler
// and the main loop, so it lives in an atomic word.
type ModeState struct {
	v uint32
}

// Get returns the current mode.
func (m *ModeState) Get() protocol.FirmwareMode {
	return protocol.FirmwareMode(atomic.LoadUint32(&m.v))
}

// Set changes the mode. Undefined modes are rejected.
func (m *ModeState) Set(mode protocol.FirmwareMode) bool {
	if !mode.Valid() {
		return false
	}
	atomic.StoreUint32(&m.v, uint32(mode))
	return true
}
