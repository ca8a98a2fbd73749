// Released under an MIT license. See LICENSE.

//go:build aix || darwin || dragonfly || freebsd || netbsd || openbsd || solaris
// +build aix darwin dragonfly freebsd netbsd openbsd solaris

package builtins

import (
	"golang.org/x/sys/unix"
)

func dup2(old, fd int) error {
	return unix.Dup2(old, fd)
}
