package canutil

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func TestFrame_Validate_Marshal_Unmarshal_String(t *testing.T) {
	cases := []struct {
		name    string
		frame   Frame
		wantStr string
	}{
		{
			name:    "standard frame with data",
			frame:   MustFrame(0x123, []byte{0xDE, 0xAD}),
			wantStr: "123 [2] DE AD",
		},
		{
			name:    "extended RTR, zero length",
			frame:   Frame{ID: 0x1ABCDEFF, Extended: true, RTR: true, Len: 0},
			wantStr: "1ABCDEFF [0] RTR",
		},
		{
			name:    "extended full payload",
			frame:   MustFrame(0x18FEF100, []byte{1, 2, 3, 4, 5, 6, 7, 8}),
			wantStr: "18FEF100 [8] 01 02 03 04 05 06 07 08",
		},
	}

	for _, tc := range cases {
		if err := tc.frame.Validate(); err != nil {
			t.Fatalf("%s: Validate() error = %v", tc.name, err)
		}
		b, err := tc.frame.MarshalBinary()
		if err != nil {
			t.Fatalf("%s: MarshalBinary() error = %v", tc.name, err)
		}
		if len(b) != 16 {
			t.Fatalf("%s: MarshalBinary() len = %d", tc.name, len(b))
		}
		var g Frame
		if err := g.UnmarshalBinary(b); err != nil {
			t.Fatalf("%s: UnmarshalBinary() error = %v", tc.name, err)
		}
		if g != tc.frame {
			t.Fatalf("%s: roundtrip mismatch: got %+v want %+v", tc.name, g, tc.frame)
		}
		if got := g.String(); got != tc.wantStr {
			t.Fatalf("%s: String() = %q, want %q", tc.name, got, tc.wantStr)
		}
	}

	// Invalid cases
	{
		f := Frame{ID: 0x800, Len: 0} // standard, out of range
		if err := f.Validate(); !errors.Is(err, ErrInvalidID) {
			t.Fatalf("expected invalid standard ID, got %v", err)
		}
	}
	{
		f := Frame{ID: 0x20000000, Extended: true} // extended, out of range
		if err := f.Validate(); !errors.Is(err, ErrInvalidID) {
			t.Fatalf("expected invalid extended ID, got %v", err)
		}
	}
	{
		f := Frame{ID: 0x100, Len: 9}
		if _, err := f.MarshalBinary(); !errors.Is(err, ErrInvalidLen) {
			t.Fatalf("expected invalid length, got %v", err)
		}
	}
	{
		var f Frame
		if err := f.UnmarshalBinary(make([]byte, 8)); err == nil {
			t.Fatalf("expected short buffer error")
		}
	}
	{
		defer func() {
			if r := recover(); r == nil {
				t.Fatalf("MustFrame should panic for len>8")
			}
		}()
		_ = MustFrame(0x123, make([]byte, 9))
	}
}

func TestFrame_WireLayout(t *testing.T) {
	f := Frame{ID: 0x1ABCDEFF, Extended: true, RTR: true, Len: 2, Data: [8]byte{0xAA, 0xBB}}
	b, err := f.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := []byte{0xFF, 0xDE, 0xBC, 0xDA, 2, 0, 0, 0, 0xAA, 0xBB, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(b, want) {
		t.Fatalf("layout = % X, want % X", b, want)
	}
}

func TestFrame_ReservedBitsNotEncoded(t *testing.T) {
	f := MustFrame(0x10, []byte{1})
	f.Reserved0 = true
	f.Reserved1 = true
	b, err := f.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var g Frame
	if err := g.UnmarshalBinary(b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if g.Reserved0 || g.Reserved1 {
		t.Fatalf("reserved bits should not survive SocketCAN encoding")
	}
}

func TestLoopbackBus_SendReceive_MultiEndpoint(t *testing.T) {
	bus := NewLoopbackBus()
	defer bus.Close()
	a := bus.Open()
	b := bus.Open()
	c := bus.Open()
	defer a.Close()
	defer b.Close()
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	send := MustFrame(0x321, []byte("hello"))
	if err := a.Send(ctx, send); err != nil {
		t.Fatalf("send: %v", err)
	}

	for name, ep := range map[string]Bus{"b": b, "c": c} {
		got, err := ep.Receive(ctx)
		if err != nil {
			t.Fatalf("receive %s: %v", name, err)
		}
		if got != send {
			t.Fatalf("%s mismatch: got %+v want %+v", name, got, send)
		}
		if got.String() != "321 [5] 68 65 6C 6C 6F" {
			t.Fatalf("string: got %q", got.String())
		}
	}

	// The sender does not hear its own frame.
	short, cancelShort := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancelShort()
	if _, err := a.Receive(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("sender receive: %v", err)
	}
}

func TestLoopbackBus_CloseBehavior(t *testing.T) {
	ctx := context.Background()
	bus := NewLoopbackBus()
	a := bus.Open()
	b := bus.Open()

	_ = a.Close()
	if _, err := a.Receive(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("closed endpoint should error on Receive, got %v", err)
	}
	if err := a.Send(ctx, MustFrame(0x1, nil)); !errors.Is(err, ErrClosed) {
		t.Fatalf("closed endpoint should error on Send, got %v", err)
	}

	_ = bus.Close()
	if _, err := b.Receive(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("endpoint should error after bus close, got %v", err)
	}
	if err := b.Send(ctx, MustFrame(0x1, nil)); !errors.Is(err, ErrClosed) {
		t.Fatalf("endpoint should error on Send after bus close, got %v", err)
	}
	if _, err := bus.Open().Receive(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("endpoint opened after close should be closed, got %v", err)
	}
}

func TestLoopbackBus_SendRejectsInvalid(t *testing.T) {
	bus := NewLoopbackBus()
	defer bus.Close()
	a := bus.Open()
	if err := a.Send(context.Background(), Frame{ID: 0x800}); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestFilters_Basics(t *testing.T) {
	f1 := MustFrame(0x100, []byte{1})
	f2 := MustFrame(0x101, []byte{2})
	f3 := Frame{ID: 0x1ABCDEFF, Extended: true, Len: 0}

	if !ByID(0x100)(f1) || ByID(0x100)(f2) {
		t.Fatalf("ByID failure")
	}
	if !ByIDs(0x100, 0x102)(f1) || ByIDs(0x100, 0x102)(f2) {
		t.Fatalf("ByIDs failure")
	}
	if !ByRange(0x100, 0x1FF)(f2) || ByRange(0x200, 0x2FF)(f2) || !ByRange(0x1FF, 0x100)(f2) {
		t.Fatalf("ByRange failure")
	}
	// Use a mask that distinguishes 0x100 from 0x101 (all 11 std bits)
	if !ByMask(0x100, 0x7FF)(f1) || ByMask(0x100, 0x7FF)(f2) {
		t.Fatalf("ByMask failure")
	}
	if !StandardOnly()(f1) || StandardOnly()(f3) {
		t.Fatalf("StandardOnly failure")
	}
	if !ExtendedOnly()(f3) || ExtendedOnly()(f1) {
		t.Fatalf("ExtendedOnly failure")
	}
	rtr := f1
	rtr.RTR = true
	if !DataOnly()(f1) || DataOnly()(rtr) || !RTROnly()(rtr) {
		t.Fatalf("DataOnly/RTROnly failure")
	}
	if !LenAtMost(1)(f1) || LenAtMost(0)(f1) {
		t.Fatalf("LenAtMost failure")
	}
	if !And(ByID(0x100), DataOnly())(f1) || And(ByID(0x100), DataOnly())(rtr) {
		t.Fatalf("And failure")
	}
	if !Or(ByID(0x100), ByID(0x999))(f1) || Or(ByID(0x999), ByID(0x998))(f1) {
		t.Fatalf("Or failure")
	}
	if Not(ByID(0x100))(f1) || !Not(ByID(0x999))(f1) || !Not(nil)(f1) {
		t.Fatalf("Not failure")
	}
}
