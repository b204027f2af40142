package storage

// BlockDevice is an erase-block flash device addressed by byte offset.
// TinyGo's machine.Flash satisfies it.
type BlockDevice interface {
	ReadAt(p []byte, off int64) (int, error)
	WriteAt(p []byte, off int64) (int, error)
	WriteBlockSize() int64
	EraseBlockSize() int64
	EraseBlocks(start, length int64) error
}

// BlockStore implements ByteStore on a BlockDevice whose erase blocks are
// larger than the region's pages. The region is mirrored in RAM. Page
// erases only clear the mirror; the device blocks are erased and
// reprogrammed from the mirror by the next WriteByte, so any number of
// page erases between two writes costs one erase cycle per block.
type BlockStore struct {
	dev        BlockDevice
	geom       Geometry
	shadow     []byte
	writeBlock int
	blocks     int64
	dirty      bool // mirror holds erases the device has not seen
}

// NewBlockStore loads the region from the start of dev.
func NewBlockStore(dev BlockDevice, geom Geometry) (*BlockStore, error) {
	eb := dev.EraseBlockSize()
	wb := dev.WriteBlockSize()
	if eb <= 0 || wb <= 0 || eb%wb != 0 {
		return nil, ErrOutOfRange
	}
	blocks := (int64(geom.Size()) + eb - 1) / eb
	s := &BlockStore{
		dev:        dev,
		geom:       geom,
		shadow:     make([]byte, blocks*eb),
		writeBlock: int(wb),
		blocks:     blocks,
	}
	if _, err := dev.ReadAt(s.shadow, 0); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *BlockStore) check(addr uint16) error {
	if int(addr) >= s.geom.Size() {
		return ErrOutOfRange
	}
	return nil
}

// ReadByte implements ByteStore.
func (s *BlockStore) ReadByte(addr uint16) (byte, error) {
	if err := s.check(addr); err != nil {
		return 0, err
	}
	return s.shadow[addr], nil
}

// WriteByte implements ByteStore. Cells still at 0xFF in the programmed
// write block are written as 0xFF, which leaves them unchanged.
func (s *BlockStore) WriteByte(addr uint16, b byte) error {
	if err := s.check(addr); err != nil {
		return err
	}
	s.shadow[addr] &= b
	if s.dirty {
		return s.flush()
	}
	start := int(addr) / s.writeBlock * s.writeBlock
	if _, err := s.dev.WriteAt(s.shadow[start:start+s.writeBlock], int64(start)); err != nil {
		return ErrBusy
	}
	return nil
}

// ErasePage implements ByteStore. The device is not touched until the
// next WriteByte.
func (s *BlockStore) ErasePage(addr uint16) error {
	if err := s.check(addr); err != nil {
		return err
	}
	size := int(s.geom.PageSize)
	start := int(addr) / size * size
	for i := start; i < start+size; i++ {
		s.shadow[i] = 0xFF
	}
	s.dirty = true
	return nil
}

// flush erases every block and programs the non-blank write blocks of
// the mirror. On failure the mirror stays dirty and the next write retries.
func (s *BlockStore) flush() error {
	if err := s.dev.EraseBlocks(0, s.blocks); err != nil {
		return ErrBusy
	}
	for start := 0; start < len(s.shadow); start += s.writeBlock {
		chunk := s.shadow[start : start+s.writeBlock]
		if blank(chunk) {
			continue
		}
		if _, err := s.dev.WriteAt(chunk, int64(start)); err != nil {
			return ErrBusy
		}
	}
	s.dirty = false
	return nil
}

func blank(p []byte) bool {
	for _, b := range p {
		if b != 0xFF {
			return false
		}
	}
	return true
}
