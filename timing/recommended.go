package timing

import (
	"sort"
	"strings"
)

// Recommended sample points of higher-layer protocols.
var (
	ARINC825  = SamplePoint{tenths: 750}
	CANopen   = SamplePoint{tenths: 875}
	DeviceNet = SamplePoint{tenths: 875}
	J1939     = SamplePoint{tenths: 900}
	J2284     = SamplePoint{tenths: 900}
)

var recommended = map[string]SamplePoint{
	"arinc825":  ARINC825,
	"canopen":   CANopen,
	"devicenet": DeviceNet,
	"j1939":     J1939,
	"j2284":     J2284,
}

// Recommended returns the recommended sample point for a protocol name,
// matched case-insensitively.
func Recommended(protocol string) (SamplePoint, bool) {
	sp, ok := recommended[strings.ToLower(protocol)]
	return sp, ok
}

// Protocols returns the names known to Recommended, sorted.
func Protocols() []string {
	names := make([]string, 0, len(recommended))
	for name := range recommended {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
