// Released under an MIT license. See LICENSE.

//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris
// +build aix darwin dragonfly freebsd linux netbsd openbsd solaris

package history

import (
	"os"
	"path/filepath"
)

// Name is the name of the history file in the user's home directory.
const Name = ".mes_history"

func file(op func(string) (*os.File, error)) (*os.File, error) {
	return op(filepath.Join(os.Getenv("HOME"), Name))
}
