// Released under an MIT license. See LICENSE.

// Package boot provides the core library that is read before a program.
package boot

import (
	_ "embed" // Blank import required by embed.
	"os"

	"github.com/pkg/errors"
)

//go:embed boot.scm
var script string //nolint:gochecknoglobals

// Name is the name the embedded script is read under.
const Name = "boot.scm"

// Script returns the embedded boot script.
func Script() string {
	return script
}

// Load returns the name and text of the boot script. If MES_BOOT names a
// file, it replaces the embedded script.
func Load(getenv func(string) string) (string, string, error) {
	name := getenv("MES_BOOT")
	if name == "" {
		return Name, script, nil
	}

	b, err := os.ReadFile(name)
	if err != nil {
		return "", "", errors.Wrap(err, "MES_BOOT")
	}

	return name, string(b), nil
}
