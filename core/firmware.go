package core

import (
	"fanctl/protocol"
	"fanctl/storage"
)

// Firmware ties the clock, sampler, record store and protocol engine
// together. Targets create one, connect interrupt sources to its handlers
// and call Poll from the main loop.
type Firmware struct {
	Clock    *Clock
	Sampler  *Sampler
	Mode     *ModeState
	Store    *storage.Store
	Registry *CommandRegistry
	Engine   *Engine

	link   Link
	config storage.ConfigRecord
}

// NewFirmware assembles the firmware over the given flash region and ports.
// ports may be nil.
func NewFirmware(flash storage.ByteStore, geom storage.Geometry, ports Ports) *Firmware {
	f := &Firmware{
		Sampler:  NewSampler(),
		Mode:     &ModeState{},
		Registry: NewCommandRegistry(),
		config:   storage.DefaultRecord(),
	}
	f.Clock = NewClock(f.Sampler)
	f.Store = storage.NewStore(flash, geom, storage.RebootFunc(resetNow))
	f.Store.Trace = f.traceStore
	RegisterCoreCommands(f.Registry, f.Mode, f.Clock, ports)
	f.Engine = NewEngine(f.Registry, f.Mode, f.Clock)
	return f
}

// SetLink attaches the serial link served by Poll.
func (f *Firmware) SetLink(l Link) {
	f.link = l
}

func (f *Firmware) traceStore(ev storage.Event, addr uint16) {
	now := f.Clock.BootTime()
	switch ev {
	case storage.EventFormat:
		RecordTiming(EvtStoreFormat, 0, now, 0, 0)
		DebugPrintln("[STORE] formatted")
	case storage.EventWrap:
		RecordTiming(EvtStoreWrap, 0, now, f.Store.Stats().Wraps, 0)
		DebugPrintln("[STORE] log wrapped")
	case storage.EventCorrupt:
		RecordTiming(EvtStoreCorrupt, 0, now, 0, 0)
		DebugPrintln("[STORE] record allocation table corrupted, resetting")
		DumpTimingRing()
	case storage.EventWrite:
		RecordTiming(EvtStoreWrite, 0, now, uint32(addr), 0)
	}
}

// Init brings up the record store and loads the active configuration.
// A record that fails its checksum is replaced by the defaults in RAM.
func (f *Firmware) Init() error {
	if err := f.Store.Init(); err != nil {
		DebugPrintln("[STORE] init failed: " + err.Error())
		return err
	}

	rec, err := f.Store.ReadRecord()
	switch err {
	case nil:
		f.config = rec
	case storage.ErrChecksum, storage.ErrEmpty:
		DebugPrintln("[STORE] no valid record, using defaults: " + err.Error())
		f.config = storage.DefaultRecord()
	default:
		return err
	}

	stats := f.Store.Stats()
	DebugPrintln("[STORE] slots used " + itoa(stats.SlotsUsed) + "/" + itoa(stats.Slots))
	DebugPrintln("[FW] fanctl " + protocol.Version + ", " + itoa(f.Registry.Count()) + " commands")
	if IsDebugEnabled() {
		for _, name := range f.Registry.Names() {
			DebugPrintln("[FW]   " + name)
		}
	}
	return nil
}

// Poll runs one main loop iteration: deferred sampler work, then a frame
// if bytes are waiting, then any requested reset.
func (f *Firmware) Poll() error {
	done := f.Sampler.ProcessPending()
	if done&PendingSpeed != 0 && IsDebugEnabled() {
		DebugPrintln("[SAMPLE] speed=" + utoa(f.Sampler.SpeedHz()) + "Hz duty=" + itoa(int(f.Sampler.DutyCycle())) + "%")
	}

	var err error
	if f.link != nil && f.link.Buffered() > 0 {
		err = f.Engine.HandleFrame(f.link)
	}

	CheckPendingReset()
	return err
}

// Config returns the active configuration record.
func (f *Firmware) Config() storage.ConfigRecord {
	return f.config
}

// SaveConfig persists rec and makes it the active configuration.
func (f *Firmware) SaveConfig(rec storage.ConfigRecord) error {
	if err := f.Store.WriteRecord(rec); err != nil {
		return err
	}
	f.config = rec
	return nil
}
