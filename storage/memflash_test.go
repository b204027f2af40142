package storage

import "testing"

func TestMemFlashNORSemantics(t *testing.T) {
	f := NewMemFlash(DefaultGeometry())

	b, err := f.ReadByte(100)
	if err != nil || b != 0xFF {
		t.Fatalf("Erased cell = %#02x, %v; want 0xFF", b, err)
	}

	if err := f.WriteByte(100, 0xF0); err != nil {
		t.Fatalf("WriteByte failed: %v", err)
	}
	// Programming over a written cell can only clear more bits.
	if err := f.WriteByte(100, 0x3C); err != nil {
		t.Fatalf("WriteByte failed: %v", err)
	}
	if b, _ := f.ReadByte(100); b != 0x30 {
		t.Errorf("Expected 0x30, got %#02x", b)
	}

	if err := f.ErasePage(0x1FF); err != nil {
		t.Fatalf("ErasePage failed: %v", err)
	}
	if b, _ := f.ReadByte(100); b != 0xFF {
		t.Errorf("Expected erased cell, got %#02x", b)
	}
	if f.EraseCount(0) != 1 || f.EraseCount(1) != 0 {
		t.Errorf("Unexpected erase counts %d, %d", f.EraseCount(0), f.EraseCount(1))
	}
}

func TestMemFlashOutOfRange(t *testing.T) {
	f := NewMemFlash(DefaultGeometry())
	if _, err := f.ReadByte(4096); err != ErrOutOfRange {
		t.Errorf("Expected ErrOutOfRange, got %v", err)
	}
	if err := f.LoadImage(make([]byte, 10)); err != ErrOutOfRange {
		t.Errorf("Expected ErrOutOfRange for short image, got %v", err)
	}
}

func TestByteRangeStopsAtFailure(t *testing.T) {
	f := NewMemFlash(DefaultGeometry())
	f.FailAt(205)

	n, err := WriteBytes(f, 200, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	if err != ErrBusy || n != 5 {
		t.Errorf("WriteBytes = %d, %v; want 5, ErrBusy", n, err)
	}
	// No rollback: bytes before the failure stay programmed.
	if f.Bytes()[204] != 5 || f.Bytes()[206] != 0xFF {
		t.Errorf("Unexpected cells after partial write: % x", f.Bytes()[200:208])
	}

	buf := make([]byte, 8)
	n, err = ReadBytes(f, 200, buf)
	if err != ErrBusy || n != 5 {
		t.Errorf("ReadBytes = %d, %v; want 5, ErrBusy", n, err)
	}

	f.ClearFaults()
	f.FailAfter(2)
	if _, err := ReadBytes(f, 0, buf); err != ErrBusy {
		t.Errorf("Expected ErrBusy after two operations, got %v", err)
	}
}
