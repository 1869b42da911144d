//go:build linux

package canutil

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"
)

// Linux network interface helpers. These toggle IFF_UP via ioctl on a
// SOCK_DGRAM socket and require CAP_NET_ADMIN; without it they return EPERM.

func interfaceFlags(name string) (uint16, error) {
	if err := validIfName(name); err != nil {
		return 0, err
	}
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return 0, err
	}
	defer unix.Close(fd)
	ifr, err := unix.NewIfreq(name)
	if err != nil {
		return 0, err
	}
	if err := unix.IoctlIfreq(fd, unix.SIOCGIFFLAGS, ifr); err != nil {
		return 0, err
	}
	return ifr.Uint16(), nil
}

func setInterfaceFlags(name string, flags uint16) error {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return err
	}
	defer unix.Close(fd)
	ifr, err := unix.NewIfreq(name)
	if err != nil {
		return err
	}
	ifr.SetUint16(flags)
	return unix.IoctlIfreq(fd, unix.SIOCSIFFLAGS, ifr)
}

// IsInterfaceUp returns true if the Linux network interface has IFF_UP set.
func IsInterfaceUp(name string) (bool, error) {
	flags, err := interfaceFlags(name)
	if err != nil {
		return false, err
	}
	return flags&unix.IFF_UP != 0, nil
}

// SetInterfaceUp sets IFF_UP on the given interface. Requires CAP_NET_ADMIN.
func SetInterfaceUp(name string) error {
	flags, err := interfaceFlags(name)
	if err != nil {
		return err
	}
	if flags&unix.IFF_UP != 0 {
		return nil
	}
	return RequireRootOrCapNetAdmin(setInterfaceFlags(name, flags|unix.IFF_UP))
}

// SetInterfaceDown clears IFF_UP on the given interface. Requires CAP_NET_ADMIN.
func SetInterfaceDown(name string) error {
	flags, err := interfaceFlags(name)
	if err != nil {
		return err
	}
	if flags&unix.IFF_UP == 0 {
		return nil
	}
	return RequireRootOrCapNetAdmin(setInterfaceFlags(name, flags&^unix.IFF_UP))
}

// RequireRootOrCapNetAdmin maps EPERM to an error advising to grant
// CAP_NET_ADMIN to the binary.
func RequireRootOrCapNetAdmin(err error) error {
	if errors.Is(err, unix.EPERM) {
		return fmt.Errorf("operation requires CAP_NET_ADMIN (or root): %w", err)
	}
	return err
}

// ConfigureLinuxCANInterface applies the provided options to a Linux CAN
// network interface by invoking the system `ip` command (iproute2).
func ConfigureLinuxCANInterface(name string, opts LinuxCANInterfaceOptions) error {
	cmds, err := IPCommands(name, opts)
	if err != nil {
		return err
	}
	for _, args := range cmds {
		out, err := exec.Command("ip", args...).CombinedOutput()
		if err != nil {
			return RequireRootOrCapNetAdmin(fmt.Errorf("ip %s failed: %w; output: %s", strings.Join(args, " "), err, out))
		}
	}
	return nil
}
