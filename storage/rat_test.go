package storage

import "testing"

func TestGroupPatterns(t *testing.T) {
	want := []byte{0xFF, 0xFE, 0xFC, 0xF8, 0xF0, 0xE0, 0xC0, 0x80, 0x00}
	for used, b := range want {
		if got := EncodeGroup(uint8(used)); got != b {
			t.Errorf("EncodeGroup(%d) = %#02x, want %#02x", used, got, b)
		}
		n, ok := DecodeGroup(b)
		if !ok || int(n) != used {
			t.Errorf("DecodeGroup(%#02x) = %d, %v; want %d", b, n, ok, used)
		}
	}

	illegal := 0
	for b := 0; b < 256; b++ {
		if _, ok := DecodeGroup(byte(b)); !ok {
			illegal++
		}
	}
	if illegal != 256-len(want) {
		t.Errorf("Expected %d illegal patterns, got %d", 256-len(want), illegal)
	}
}

func TestRATEncodeDecode(t *testing.T) {
	r := NewRAT(16)
	r.Used[0] = 8
	r.Used[1] = 3

	raw := r.Encode()
	if len(raw) != 17 {
		t.Fatalf("Expected 17 bytes, got %d", len(raw))
	}
	if raw[0] != 0x00 || raw[1] != 0xF8 || raw[2] != 0xFF || raw[16] != ratClean {
		t.Errorf("Unexpected encoding % x", raw)
	}

	got := DecodeRAT(raw)
	if got.Used[0] != 8 || got.Used[1] != 3 || got.Corrupt {
		t.Errorf("Unexpected decode %+v", got)
	}

	r.Corrupt = true
	if raw := r.Encode(); raw[16] != ratCorrupt {
		t.Errorf("Corrupt flag encoded as %#02x", raw[16])
	}
}

func TestRATInvalidGroupKept(t *testing.T) {
	raw := NewRAT(16).Encode()
	raw[3] = 0x55

	r := DecodeRAT(raw)
	if r.Used[3] != groupInvalid {
		t.Fatalf("Expected group 3 invalid, got %d", r.Used[3])
	}
	if out := r.Encode(); out[3] != 0xFF {
		t.Errorf("Invalid group must encode as 0xFF, got %#02x", out[3])
	}

	// The scan stops at the first non-full group, before reaching group 3.
	if _, err := r.CurrentSlot(); err != ErrEmpty {
		t.Errorf("Expected ErrEmpty, got %v", err)
	}

	r.Used[0], r.Used[1], r.Used[2] = 8, 8, 8
	if _, err := r.CurrentSlot(); err != ErrCorrupted {
		t.Errorf("Expected ErrCorrupted, got %v", err)
	}
	if _, _, err := r.NextSlot(); err != ErrCorrupted {
		t.Errorf("Expected ErrCorrupted, got %v", err)
	}
}

func TestRATSlots(t *testing.T) {
	r := NewRAT(16)
	if r.SlotsUsed() != 1 {
		t.Errorf("Fresh table uses %d slots, want 1", r.SlotsUsed())
	}
	if slot, full, err := r.NextSlot(); slot != 1 || full || err != nil {
		t.Errorf("NextSlot = %d, %v, %v; want 1", slot, full, err)
	}

	r.Used[0] = 8
	r.Used[1] = 2
	if slot, err := r.CurrentSlot(); slot != 9 || err != nil {
		t.Errorf("CurrentSlot = %d, %v; want 9", slot, err)
	}
	if slot, _, _ := r.NextSlot(); slot != 10 {
		t.Errorf("NextSlot = %d, want 10", slot)
	}

	for g := range r.Used {
		r.Used[g] = 8
	}
	if slot, err := r.CurrentSlot(); slot != 127 || err != nil {
		t.Errorf("CurrentSlot = %d, %v; want 127", slot, err)
	}
	if _, full, _ := r.NextSlot(); !full {
		t.Error("Expected full table")
	}
	if r.SlotsUsed() != 128 {
		t.Errorf("SlotsUsed = %d, want 128", r.SlotsUsed())
	}

	c := r.Clone()
	c.Used[0] = 0
	if r.Used[0] != 8 {
		t.Error("Clone shares storage with the original")
	}
}
