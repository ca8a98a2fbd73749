// Released under an MIT license. See LICENSE.

package builtins

import (
	"golang.org/x/sys/unix"
)

// Some Linux architectures only provide dup3, which rejects equal
// descriptors.
func dup2(old, fd int) error {
	if old == fd {
		_, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0)

		return err
	}

	return unix.Dup3(old, fd, 0)
}
