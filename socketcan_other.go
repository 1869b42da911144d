//go:build !linux

package canutil

// DialSocketCAN is only available on Linux.
func DialSocketCAN(iface string, filters ...MessageFilter) (Bus, error) {
	return nil, ErrUnsupported
}
