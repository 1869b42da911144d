package canutil

// FrameFilter decides whether a frame should be delivered or logged.
type FrameFilter func(Frame) bool

// ByID returns a filter that matches frames with the exact identifier.
func ByID(id uint32) FrameFilter {
	return func(f Frame) bool { return f.ID == id }
}

// ByIDs returns a filter that matches any of the provided identifiers.
func ByIDs(ids ...uint32) FrameFilter {
	set := make(map[uint32]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return func(f Frame) bool {
		_, ok := set[f.ID]
		return ok
	}
}

// ByRange matches frames whose ID is within [minID, maxID], inclusive.
// Swapped bounds are accepted.
func ByRange(minID, maxID uint32) FrameFilter {
	if maxID < minID {
		minID, maxID = maxID, minID
	}
	return func(f Frame) bool { return f.ID >= minID && f.ID <= maxID }
}

// ByMask matches when (frame.ID & mask) == (id & mask).
func ByMask(id uint32, mask uint32) FrameFilter {
	want := id & mask
	return func(f Frame) bool { return f.ID&mask == want }
}

// ByMessageFilters matches frames forwarded by any of the accept filters
// and by none of the ignore filters. With no accept filters every frame
// not ignored is forwarded.
func ByMessageFilters(filters ...MessageFilter) FrameFilter {
	var accept, ignore FrameFilter
	for _, m := range filters {
		typ := m.Type
		m.Type = MatchMeansAccept
		if typ == MatchMeansIgnore {
			ignore = Or(ignore, m.FrameFilter())
			continue
		}
		accept = Or(accept, m.FrameFilter())
	}
	return And(accept, Not(ignore))
}

// StandardOnly matches standard (11-bit) identifiers.
func StandardOnly() FrameFilter {
	return func(f Frame) bool { return !f.Extended }
}

// ExtendedOnly matches extended (29-bit) identifiers.
func ExtendedOnly() FrameFilter {
	return func(f Frame) bool { return f.Extended }
}

// DataOnly matches non-RTR frames.
func DataOnly() FrameFilter {
	return func(f Frame) bool { return !f.RTR }
}

// RTROnly matches remote transmission request frames.
func RTROnly() FrameFilter {
	return func(f Frame) bool { return f.RTR }
}

// LenAtMost matches frames with data length <= n.
func LenAtMost(n uint8) FrameFilter {
	return func(f Frame) bool { return f.Len <= n }
}

// And composes two filters; the result matches when both match. A nil
// filter is ignored.
func And(a, b FrameFilter) FrameFilter {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	default:
		return func(f Frame) bool { return a(f) && b(f) }
	}
}

// Or composes two filters; the result matches when either matches. A nil
// filter is ignored.
func Or(a, b FrameFilter) FrameFilter {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	default:
		return func(f Frame) bool { return a(f) || b(f) }
	}
}

// Not inverts a filter. Not(nil) matches everything.
func Not(a FrameFilter) FrameFilter {
	if a == nil {
		return func(Frame) bool { return true }
	}
	return func(f Frame) bool { return !a(f) }
}
