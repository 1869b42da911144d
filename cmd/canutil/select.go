package main

import (
	"fmt"
	"iter"

	"github.com/notnil/canutil/timing"
)

// Selection policies for picking one solution to program.
const (
	preferFirst   = "first"   // smallest prescaler, finest quantum
	preferLast    = "last"    // largest prescaler that still fits
	preferClosest = "closest" // achieved sample point nearest the target
)

func validPolicy(policy string) error {
	switch policy {
	case preferFirst, preferLast, preferClosest:
		return nil
	}
	return fmt.Errorf("unknown --prefer policy %q (first, last, closest)", policy)
}

// choose picks one solution from an ascending-prescaler sequence. Ties
// under the closest policy go to the smaller prescaler.
func choose(seq iter.Seq[timing.Parameters], policy string, target timing.SamplePoint) (timing.Parameters, bool, error) {
	if err := validPolicy(policy); err != nil {
		return timing.Parameters{}, false, err
	}
	var (
		best  timing.Parameters
		found bool
		dist  int
	)
	for p := range seq {
		switch policy {
		case preferFirst:
			return p, true, nil
		case preferLast:
			best, found = p, true
		case preferClosest:
			d := int(p.SamplePoint()) - int(target.Tenths())
			if d < 0 {
				d = -d
			}
			if !found || d < dist {
				best, found, dist = p, true, d
			}
		}
	}
	return best, found, nil
}
