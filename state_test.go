package canutil

import "testing"

func TestFaultStateFromCounters(t *testing.T) {
	cases := []struct {
		tec, rec uint16
		want     FaultConfinementState
	}{
		{0, 0, ErrorActive},
		{127, 127, ErrorActive},
		{128, 0, ErrorPassive},
		{0, 128, ErrorPassive},
		{255, 300, ErrorPassive},
		{256, 0, BusOff},
	}
	for _, tc := range cases {
		if got := FaultStateFromCounters(tc.tec, tc.rec); got != tc.want {
			t.Fatalf("FaultStateFromCounters(%d, %d) = %v, want %v", tc.tec, tc.rec, got, tc.want)
		}
	}
}

func TestStateStrings(t *testing.T) {
	if BusOff.String() != "bus-off" || FaultConfinementState(9).String() != "FaultConfinementState(9)" {
		t.Fatalf("FaultConfinementState strings")
	}
	if Integrating.String() != "integrating" || Idle.String() != "idle" {
		t.Fatalf("OperationMode strings")
	}
	if MatchMeansIgnore.String() != "ignore" {
		t.Fatalf("MessageFilterType strings")
	}
}

func TestMessageFilter(t *testing.T) {
	mask := uint32(0x7F0)
	exact := MessageFilter{ID: 0x181}
	masked := MessageFilter{ID: 0x180, Mask: &mask}
	ignore := MessageFilter{ID: 0x185, Type: MatchMeansIgnore}

	f181 := MustFrame(0x181, nil)
	f185 := MustFrame(0x185, nil)
	f281 := MustFrame(0x281, nil)

	if !exact.Accepts(f181) || exact.Accepts(f185) {
		t.Fatalf("exact filter")
	}
	if !masked.Accepts(f181) || !masked.Accepts(f185) || masked.Accepts(f281) {
		t.Fatalf("masked filter")
	}
	if ignore.Accepts(f185) || !ignore.Accepts(f181) {
		t.Fatalf("ignore filter")
	}
	if !ignore.Matches(0x185) {
		t.Fatalf("Matches ignores Type")
	}

	combined := ByMessageFilters(masked, ignore)
	if !combined(f181) || combined(f185) || combined(f281) {
		t.Fatalf("combined filters")
	}
	onlyIgnore := ByMessageFilters(ignore)
	if !onlyIgnore(f281) || onlyIgnore(f185) {
		t.Fatalf("ignore-only filters")
	}
	if !ByMessageFilters()(f281) {
		t.Fatalf("no filters should forward everything")
	}
}
