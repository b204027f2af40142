package storage

import "errors"

var (
	// ErrCorrupted is returned when a RAT group holds an illegal bit pattern.
	ErrCorrupted = errors.New("record allocation table corrupted")
	// ErrEmpty is returned when the log holds no record yet.
	ErrEmpty = errors.New("no record written")
)

// groupInvalid marks a group whose flash byte is not one of the legal patterns.
const groupInvalid = 0xFF

// Error byte values. The flag is cleared by erasing, so setting it only
// ever clears bits and is possible without another erase.
const (
	ratClean   = 0xFF
	ratCorrupt = 0x00
)

// RAT is the record allocation table. Each group tracks SlotsPerGroup
// slots and holds how many of them have been consumed. Slots are consumed
// in fixed order, so the count is enough to locate the newest record.
type RAT struct {
	Used    []uint8 // Slots consumed per group (0..8, or groupInvalid)
	Corrupt bool    // Persisted corruption flag
}

func ratSize(groups int) int {
	return groups + 1
}

// NewRAT returns the table of a freshly formatted log: slot 0 holds the
// table itself, everything else is free.
func NewRAT(groups int) RAT {
	r := RAT{Used: make([]uint8, groups)}
	r.Used[0] = 1
	return r
}

// EncodeGroup converts a slot count to its flash pattern. Slots are
// consumed by clearing bits from the most significant end, so
// 0xFF -> 0xFE -> 0xFC ... -> 0x80 -> 0x00.
func EncodeGroup(used uint8) byte {
	return byte(0xFF) << used
}

// DecodeGroup converts a flash pattern back to a slot count. Only the nine
// patterns produced by EncodeGroup are legal.
func DecodeGroup(b byte) (uint8, bool) {
	for used := uint8(0); used <= SlotsPerGroup; used++ {
		if EncodeGroup(used) == b {
			return used, true
		}
	}
	return 0, false
}

// DecodeRAT parses the flash image of the table. Illegal group bytes are
// kept as invalid and only reported when a scan reaches them.
func DecodeRAT(raw []byte) RAT {
	groups := len(raw) - 1
	r := RAT{Used: make([]uint8, groups)}
	for g := 0; g < groups; g++ {
		used, ok := DecodeGroup(raw[g])
		if !ok {
			used = groupInvalid
		}
		r.Used[g] = used
	}
	r.Corrupt = raw[groups] != ratClean
	return r
}

// Encode produces the flash image of the table. Invalid groups encode as
// 0xFF, which leaves the cell untouched when programmed.
func (r RAT) Encode() []byte {
	raw := make([]byte, ratSize(len(r.Used)))
	for g, used := range r.Used {
		if used == groupInvalid {
			raw[g] = 0xFF
			continue
		}
		raw[g] = EncodeGroup(used)
	}
	raw[len(r.Used)] = ratClean
	if r.Corrupt {
		raw[len(r.Used)] = ratCorrupt
	}
	return raw
}

// Clone returns a deep copy.
func (r RAT) Clone() RAT {
	c := RAT{Used: make([]uint8, len(r.Used)), Corrupt: r.Corrupt}
	copy(c.Used, r.Used)
	return c
}

// scan returns the first group that is not fully consumed, or len(Used)
// when every group is full.
func (r RAT) scan() (int, error) {
	for g, used := range r.Used {
		if used == groupInvalid {
			return g, ErrCorrupted
		}
		if used < SlotsPerGroup {
			return g, nil
		}
	}
	return len(r.Used), nil
}

// CurrentSlot returns the slot holding the newest record. When every group
// is full the last slot is returned.
func (r RAT) CurrentSlot() (int, error) {
	g, err := r.scan()
	if err != nil {
		return 0, err
	}
	if g == len(r.Used) {
		return len(r.Used)*SlotsPerGroup - 1, nil
	}
	slot := SlotsPerGroup*g + int(r.Used[g]) - 1
	if slot < 1 {
		// Only the table itself has been allocated.
		return 0, ErrEmpty
	}
	return slot, nil
}

// NextSlot returns the slot the next write goes to. full is true when
// every group is consumed and the log has to be reset first.
func (r RAT) NextSlot() (slot int, full bool, err error) {
	g, err := r.scan()
	if err != nil {
		return 0, false, err
	}
	if g == len(r.Used) {
		return 0, true, nil
	}
	return SlotsPerGroup*g + int(r.Used[g]), false, nil
}

// SlotsUsed counts consumed slots, the table's own slot included.
func (r RAT) SlotsUsed() int {
	n := 0
	for _, used := range r.Used {
		if used != groupInvalid {
			n += int(used)
		}
	}
	return n
}
