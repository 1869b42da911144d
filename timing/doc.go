// Package timing computes CAN bit-timing register parameters.
//
// Given a controller clock, a target bitrate, a target sample point and the
// controller's register limits, Compute returns a lazy sequence of every
// (prescaler, seg1, seg2) combination the hardware can express. Picking one
// of them is left to the caller:
//
//	sols, err := timing.Compute(80, 500_000, timing.CANopen, 1, limits)
//	if err != nil {
//	    return err
//	}
//	for p := range sols.All() {
//	    fmt.Println(p.Prescaler, p.Seg1, p.Seg2)
//	}
//
// The package does no I/O and holds no shared state, so independent solves
// may run concurrently.
package timing
