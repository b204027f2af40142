//go:build rp2040

package main

import (
	"machine"

	"fanctl/storage"
)

// NewFlashStore places the record region at the start of the QSPI flash
// data area. The region fits in one 4 KiB erase block.
func NewFlashStore(geom storage.Geometry) (*storage.BlockStore, error) {
	return storage.NewBlockStore(machine.Flash, geom)
}
