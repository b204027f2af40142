package storage

import "bytes"

// Rebooter forces a full device reset. On hardware Reboot does not return.
type Rebooter interface {
	Reboot()
}

// RebootFunc adapts a function to the Rebooter interface.
type RebootFunc func()

// Reboot implements Rebooter.
func (f RebootFunc) Reboot() { f() }

// Event identifies a notable store transition, reported through Store.Trace.
type Event uint8

const (
	EventFormat  Event = iota + 1 // Log erased and default record written
	EventWrap                     // Every slot consumed, log reset
	EventCorrupt                  // Illegal RAT pattern found
	EventWrite                    // Record slot allocated and written
)

// Stats summarizes the log state.
type Stats struct {
	Slots     int    // Total slots, the RAT slot included
	SlotsUsed int    // Consumed slots, the RAT slot included
	Wraps     uint32 // Log resets since this Store was created
	Corrupt   bool
}

// Store is a wear-leveling log of ConfigRecords. Every write goes to the
// next free slot; the RAT in slot 0 tracks consumption. Once every slot has
// been used the whole region is erased and the log starts over.
//
// Store is not safe for concurrent use; it is the only writer of the flash region.
type Store struct {
	bs     ByteStore
	geom   Geometry
	rat    RAT
	reboot Rebooter
	wraps  uint32

	// Trace, if set, is called on format, wrap, corruption and write.
	Trace func(ev Event, addr uint16)
}

// NewStore creates a store over bs. Init must be called before use.
// It panics if geom cannot hold the RAT and a record.
func NewStore(bs ByteStore, geom Geometry, reboot Rebooter) *Store {
	if !geom.Valid() {
		panic("storage: invalid geometry")
	}
	return &Store{
		bs:     bs,
		geom:   geom,
		rat:    NewRAT(geom.Groups()),
		reboot: reboot,
	}
}

// Geometry returns the region layout.
func (s *Store) Geometry() Geometry {
	return s.geom
}

// RAT returns a copy of the in-memory allocation table.
func (s *Store) RAT() RAT {
	return s.rat.Clone()
}

// Stats returns the current log state.
func (s *Store) Stats() Stats {
	return Stats{
		Slots:     s.geom.Slots(),
		SlotsUsed: s.rat.SlotsUsed(),
		Wraps:     s.wraps,
		Corrupt:   s.rat.Corrupt,
	}
}

func (s *Store) trace(ev Event, addr uint16) {
	if s.Trace != nil {
		s.Trace(ev, addr)
	}
}

// Init loads the RAT from page 0. A read failure reboots the device. A
// freshly erased region or a persisted corruption flag formats the log.
func (s *Store) Init() error {
	raw := make([]byte, ratSize(s.geom.Groups()))
	if _, err := ReadBytes(s.bs, s.geom.PageAddr(0), raw); err != nil {
		s.reboot.Reboot()
		return err
	}

	s.rat = DecodeRAT(raw)
	if raw[0]&0x01 != 0 || s.rat.Corrupt {
		return s.Format()
	}
	return nil
}

// Format erases the region, writes a fresh RAT and stores the default
// record in the first slot after the table.
func (s *Store) Format() error {
	if err := s.resetLog(); err != nil {
		return err
	}
	s.trace(EventFormat, 0)
	return s.WriteRecord(DefaultRecord())
}

// resetLog erases every page and persists a RAT with only its own slot consumed.
func (s *Store) resetLog() error {
	for page := 0; page < int(s.geom.PageCount); page++ {
		if err := s.bs.ErasePage(s.geom.PageAddr(page)); err != nil {
			return err
		}
	}
	s.rat = NewRAT(s.geom.Groups())
	return s.persistRAT()
}

func (s *Store) persistRAT() error {
	_, err := WriteBytes(s.bs, s.geom.PageAddr(0), s.rat.Encode())
	return err
}

// corrupted persists the corruption flag and reboots. If the reboot
// returns (host builds, tests) ErrCorrupted is reported to the caller.
func (s *Store) corrupted() error {
	s.rat.Corrupt = true
	_ = s.persistRAT()
	s.trace(EventCorrupt, 0)
	s.reboot.Reboot()
	return ErrCorrupted
}

// ReadAddress returns the address of the newest record.
func (s *Store) ReadAddress() (uint16, error) {
	slot, err := s.rat.CurrentSlot()
	if err == ErrCorrupted {
		return 0, s.corrupted()
	}
	if err != nil {
		return 0, err
	}
	return s.geom.SlotAddr(slot), nil
}

// AllocateWriteAddress consumes the next free slot and returns its
// address. The RAT is persisted before returning, so the slot counts as
// used even if the record write that follows never completes.
func (s *Store) AllocateWriteAddress() (uint16, error) {
	slot, full, err := s.rat.NextSlot()
	if err == ErrCorrupted {
		return 0, s.corrupted()
	}
	if err != nil {
		return 0, err
	}

	if full {
		if err := s.resetLog(); err != nil {
			return 0, err
		}
		s.wraps++
		s.trace(EventWrap, 0)
		if slot, _, err = s.rat.NextSlot(); err != nil {
			return 0, err
		}
	}

	s.rat.Used[slot/SlotsPerGroup]++
	if err := s.persistRAT(); err != nil {
		return 0, err
	}
	return s.geom.SlotAddr(slot), nil
}

// ReadRecord reads the newest record. A checksum mismatch returns the raw
// fields together with ErrChecksum.
func (s *Store) ReadRecord() (ConfigRecord, error) {
	addr, err := s.ReadAddress()
	if err != nil {
		return ConfigRecord{}, err
	}
	buf := make([]byte, RecordWireSize)
	if _, err := ReadBytes(s.bs, addr, buf); err != nil {
		return ConfigRecord{}, err
	}
	return DecodeRecord(buf)
}

// WriteRecord appends rec to the log and verifies it by reading it back.
func (s *Store) WriteRecord(rec ConfigRecord) error {
	addr, err := s.AllocateWriteAddress()
	if err != nil {
		return err
	}
	data := rec.Encode()
	if _, err := WriteBytes(s.bs, addr, data); err != nil {
		return err
	}

	readBack := make([]byte, len(data))
	if _, err := ReadBytes(s.bs, addr, readBack); err != nil {
		return err
	}
	if !bytes.Equal(readBack, data) {
		return ErrVerify
	}
	s.trace(EventWrite, addr)
	return nil
}
