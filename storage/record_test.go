package storage

import "testing"

func TestRecordLayout(t *testing.T) {
	r := DefaultRecord()
	r.PWMMap[0] = 10
	r.PWMMap[19] = 90
	r.SourceFullSpeed = 0x01020304
	r.TargetFullSpeed = 0x0A0B0C0D

	buf := r.Encode()
	if len(buf) != RecordWireSize {
		t.Fatalf("Expected %d bytes, got %d", RecordWireSize, len(buf))
	}
	if buf[0] != 10 || buf[19] != 90 || buf[1] != DefaultPWM {
		t.Errorf("Unexpected PWM map bytes % x", buf[:20])
	}
	if buf[20] != 0x04 || buf[23] != 0x01 {
		t.Errorf("Source speed not little-endian: % x", buf[20:24])
	}
	if buf[24] != 0x0D || buf[27] != 0x0A {
		t.Errorf("Target speed not little-endian: % x", buf[24:28])
	}

	got, err := DecodeRecord(buf)
	if err != nil {
		t.Fatalf("DecodeRecord failed: %v", err)
	}
	if got != r {
		t.Errorf("Decoded %+v, want %+v", got, r)
	}
}

func TestRecordChecksum(t *testing.T) {
	buf := DefaultRecord().Encode()
	buf[5] ^= 0x01

	got, err := DecodeRecord(buf)
	if err != ErrChecksum {
		t.Fatalf("Expected ErrChecksum, got %v", err)
	}
	if got.PWMMap[5] != DefaultPWM^0x01 {
		t.Errorf("Fields should still be decoded, got %d", got.PWMMap[5])
	}

	// An erased slot never passes.
	erased := make([]byte, RecordWireSize)
	for i := range erased {
		erased[i] = 0xFF
	}
	if _, err := DecodeRecord(erased); err != ErrChecksum {
		t.Errorf("Expected ErrChecksum for erased slot, got %v", err)
	}
}

func TestRecordShortBuffer(t *testing.T) {
	if _, err := DecodeRecord(make([]byte, RecordWireSize-1)); err != ErrShortBuffer {
		t.Errorf("Expected ErrShortBuffer, got %v", err)
	}
}
