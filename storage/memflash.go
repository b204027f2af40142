package storage

// MemFlash emulates NOR data flash in RAM. It backs the host-side tools and
// the tests, and reproduces the properties the record store relies on:
// erased cells read 0xFF, programming can only clear bits, and erase works
// on whole pages.
type MemFlash struct {
	geom   Geometry
	data   []byte
	erases []uint32

	ops       int
	failAfter int // fail every op once ops reaches this count, -1 = never
	failAddr  int // fail any op touching this address, -1 = never

	// OnWrite, if set, is called after every successful byte write.
	OnWrite func(addr uint16, b byte)
	// OnErase, if set, is called after every successful page erase.
	OnErase func(page int)
}

// NewMemFlash creates an erased flash region with the given geometry.
func NewMemFlash(geom Geometry) *MemFlash {
	f := &MemFlash{
		geom:      geom,
		data:      make([]byte, geom.Size()),
		erases:    make([]uint32, geom.PageCount),
		failAfter: -1,
		failAddr:  -1,
	}
	for i := range f.data {
		f.data[i] = 0xFF
	}
	return f
}

// FailAfter makes the n-th operation from now, and all later ones, fail.
// A negative n disables the fault.
func (f *MemFlash) FailAfter(n int) {
	if n < 0 {
		f.failAfter = -1
		return
	}
	f.failAfter = f.ops + n
}

// FailAt makes every operation touching addr fail. A negative addr disables the fault.
func (f *MemFlash) FailAt(addr int) {
	f.failAddr = addr
}

// ClearFaults disables all injected faults.
func (f *MemFlash) ClearFaults() {
	f.failAfter = -1
	f.failAddr = -1
}

func (f *MemFlash) check(addr uint16) error {
	if int(addr) >= len(f.data) {
		return ErrOutOfRange
	}
	op := f.ops
	f.ops++
	if f.failAfter >= 0 && op >= f.failAfter {
		return ErrBusy
	}
	if f.failAddr >= 0 && int(addr) == f.failAddr {
		return ErrBusy
	}
	return nil
}

// ReadByte implements ByteStore.
func (f *MemFlash) ReadByte(addr uint16) (byte, error) {
	if err := f.check(addr); err != nil {
		return 0, err
	}
	return f.data[addr], nil
}

// WriteByte implements ByteStore.
func (f *MemFlash) WriteByte(addr uint16, b byte) error {
	if err := f.check(addr); err != nil {
		return err
	}
	f.data[addr] &= b
	if f.OnWrite != nil {
		f.OnWrite(addr, b)
	}
	return nil
}

// ErasePage implements ByteStore.
func (f *MemFlash) ErasePage(addr uint16) error {
	if err := f.check(addr); err != nil {
		return err
	}
	page := int(addr) / int(f.geom.PageSize)
	start := page * int(f.geom.PageSize)
	for i := start; i < start+int(f.geom.PageSize); i++ {
		f.data[i] = 0xFF
	}
	f.erases[page]++
	if f.OnErase != nil {
		f.OnErase(page)
	}
	return nil
}

// Poke overwrites a cell without flash semantics. Used to inject corruption.
func (f *MemFlash) Poke(addr uint16, b byte) {
	f.data[addr] = b
}

// EraseCount returns how many times page has been erased.
func (f *MemFlash) EraseCount(page int) uint32 {
	return f.erases[page]
}

// Bytes returns a copy of the whole region.
func (f *MemFlash) Bytes() []byte {
	out := make([]byte, len(f.data))
	copy(out, f.data)
	return out
}

// LoadImage replaces the region contents with img, which must match the geometry size.
func (f *MemFlash) LoadImage(img []byte) error {
	if len(img) != len(f.data) {
		return ErrOutOfRange
	}
	copy(f.data, img)
	return nil
}
