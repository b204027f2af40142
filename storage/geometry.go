package storage

// FormatVersion identifies the on-flash layout: RAT in slot 0 of page 0
// (one byte per group, then the error byte), records in every other slot.
// Offline tools inspecting dumps must agree on this version.
const FormatVersion = 1

// Default geometry of the on-chip data flash.
const (
	PageSize   = 0x200
	PageCount  = 8
	RecordSize = 32
)

// SlotsPerGroup is the number of slots tracked by one RAT byte.
const SlotsPerGroup = 8

// Geometry describes the storage region.
type Geometry struct {
	PageSize   uint16 // Erase page size in bytes
	PageCount  uint16 // Number of pages in the region
	RecordSize uint16 // Slot size in bytes
}

// DefaultGeometry returns the layout used by the firmware.
func DefaultGeometry() Geometry {
	return Geometry{PageSize: PageSize, PageCount: PageCount, RecordSize: RecordSize}
}

// Size returns the region size in bytes.
func (g Geometry) Size() int {
	return int(g.PageSize) * int(g.PageCount)
}

// Slots returns the number of record slots, including the one holding the RAT.
func (g Geometry) Slots() int {
	return g.Size() / int(g.RecordSize)
}

// Groups returns the number of RAT group bytes.
func (g Geometry) Groups() int {
	return g.Slots() / SlotsPerGroup
}

// PageAddr returns the start address of page i.
func (g Geometry) PageAddr(i int) uint16 {
	return uint16(i * int(g.PageSize))
}

// SlotAddr returns the start address of slot i.
func (g Geometry) SlotAddr(i int) uint16 {
	return uint16(i * int(g.RecordSize))
}

// Valid reports whether the geometry can hold a RAT and at least one record.
func (g Geometry) Valid() bool {
	if g.PageSize == 0 || g.PageCount == 0 || g.RecordSize == 0 {
		return false
	}
	if int(g.PageSize)%int(g.RecordSize) != 0 {
		return false
	}
	if g.Size() > 0x10000 || g.Slots()%SlotsPerGroup != 0 || g.Groups() == 0 {
		return false
	}
	return ratSize(g.Groups()) <= int(g.RecordSize) && RecordWireSize <= int(g.RecordSize)
}
