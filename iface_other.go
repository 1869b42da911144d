//go:build !linux

package canutil

// IsInterfaceUp is only available on Linux.
func IsInterfaceUp(name string) (bool, error) { return false, ErrUnsupported }

// SetInterfaceUp is only available on Linux.
func SetInterfaceUp(name string) error { return ErrUnsupported }

// SetInterfaceDown is only available on Linux.
func SetInterfaceDown(name string) error { return ErrUnsupported }

// RequireRootOrCapNetAdmin returns err unchanged outside Linux.
func RequireRootOrCapNetAdmin(err error) error { return err }

// ConfigureLinuxCANInterface is only available on Linux.
func ConfigureLinuxCANInterface(name string, opts LinuxCANInterfaceOptions) error {
	return ErrUnsupported
}
