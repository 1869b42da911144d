package canutil

import (
	"bytes"
	"errors"
	"testing"
)

func TestDLCToByteCount(t *testing.T) {
	want := []uint8{0, 1, 2, 3, 4, 5, 6, 7, 8, 12, 16, 20, 24, 32, 48, 64}
	for dlc, n := range want {
		if got := DLCToByteCount(uint8(dlc)); got != n {
			t.Fatalf("DLCToByteCount(%d) = %d, want %d", dlc, got, n)
		}
	}
	if DLCToByteCount(9) != 12 || DLCToByteCount(13) != 32 || DLCToByteCount(15) != 64 {
		t.Fatalf("FD codes mismatch")
	}
	// Only the 4-bit field is significant.
	if got := DLCToByteCount(0x19); got != 12 {
		t.Fatalf("DLCToByteCount(0x19) = %d", got)
	}
}

func TestDLC_RoundTrip(t *testing.T) {
	for dlc := uint8(0); dlc <= 15; dlc++ {
		if got := ByteCountToDLC(int(DLCToByteCount(dlc))); got != dlc {
			t.Fatalf("round trip of code %d gave %d", dlc, got)
		}
	}
}

func TestByteCountToDLC_PadAndTruncate(t *testing.T) {
	cases := []struct {
		n    int
		want uint8
	}{
		{-1, 0}, {0, 0}, {8, 8}, {9, 9}, {12, 9}, {13, 10}, {20, 11},
		{21, 12}, {25, 13}, {33, 14}, {48, 14}, {49, 15}, {64, 15}, {100, 15},
	}
	for _, tc := range cases {
		if got := ByteCountToDLC(tc.n); got != tc.want {
			t.Fatalf("ByteCountToDLC(%d) = %d, want %d", tc.n, got, tc.want)
		}
	}
	if PaddedFDLen(13) != 16 || PaddedFDLen(5) != 5 || PaddedFDLen(65) != 64 {
		t.Fatalf("PaddedFDLen mismatch")
	}
	for _, n := range []int{0, 8, 12, 64} {
		if !ValidFDLen(n) {
			t.Fatalf("ValidFDLen(%d) = false", n)
		}
	}
	for _, n := range []int{-1, 9, 13, 65} {
		if ValidFDLen(n) {
			t.Fatalf("ValidFDLen(%d) = true", n)
		}
	}
}

func TestFDFrame_MarshalUnmarshal(t *testing.T) {
	payload := bytes.Repeat([]byte{0x5A}, 13)
	f, err := NewFDFrame(0x1ABCDEF0, payload, true)
	if err != nil {
		t.Fatalf("NewFDFrame: %v", err)
	}
	if !f.Extended || !f.EDL || f.Len != 16 || f.DLC() != 10 {
		t.Fatalf("unexpected frame: %+v", f)
	}
	if p := f.Payload(); len(p) != 16 || p[12] != 0x5A || p[13] != 0 {
		t.Fatalf("payload not zero padded: % X", p)
	}
	f.ESI = true

	b, err := f.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if len(b) != 72 {
		t.Fatalf("marshal len = %d", len(b))
	}
	if b[4] != 16 || b[5] != 0x07 || b[3]&0x80 == 0 {
		t.Fatalf("header = % X", b[:8])
	}
	var g FDFrame
	if err := g.UnmarshalBinary(b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if g != f {
		t.Fatalf("roundtrip mismatch: got %+v want %+v", g, f)
	}
}

func TestFDFrame_Invalid(t *testing.T) {
	if _, err := NewFDFrame(0x1, make([]byte, 65), false); !errors.Is(err, ErrInvalidLen) {
		t.Fatalf("expected ErrInvalidLen, got %v", err)
	}
	if err := (FDFrame{ID: 0x1, Len: 13}).Validate(); !errors.Is(err, ErrInvalidLen) {
		t.Fatalf("expected ErrInvalidLen for unpadded length, got %v", err)
	}
	if err := (FDFrame{ID: 0x800, Len: 8}).Validate(); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	var g FDFrame
	if err := g.UnmarshalBinary(make([]byte, 16)); err == nil {
		t.Fatalf("expected short buffer error")
	}
}

func TestFDFrame_String(t *testing.T) {
	f, err := NewFDFrame(0x123, []byte{1, 2}, true)
	if err != nil {
		t.Fatalf("NewFDFrame: %v", err)
	}
	if got := f.String(); got != "123 [2] BRS 01 02" {
		t.Fatalf("String() = %q", got)
	}
}

func TestByteOrders(t *testing.T) {
	payload := []byte{0x34, 0x12}
	if CANopenByteOrder.Uint16(payload) != 0x1234 || J1939ByteOrder.Uint16(payload) != 0x1234 {
		t.Fatalf("byte orders must be little-endian")
	}
}
