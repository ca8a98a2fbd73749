// Released under an MIT license. See LICENSE.

package heap

import (
	"strconv"

	"github.com/pkg/errors"
)

// Config holds the heap's tunables. All sizes are in cells or stack slots.
type Config struct {
	Arena     int64
	Debug     int64
	Jam       int64
	MaxArena  int64
	MaxStack  int64
	MaxString int64
	Safety    int64
	Stack     int64
}

// Defaults returns the default configuration.
func Defaults() Config {
	c := Config{
		Arena:     600000,
		MaxArena:  100000000,
		MaxStack:  10000000,
		MaxString: 524288,
		Stack:     20000,
	}

	c.Jam = c.Arena / 10
	c.Safety = c.Arena / 100

	return c
}

// FromEnv returns the default configuration overridden by the MES_*
// variables visible through getenv. JAM and SAFETY follow ARENA unless
// they are set explicitly.
func FromEnv(getenv func(string) string) (Config, error) {
	c := Defaults()

	var err error

	integer := func(name string, v *int64) bool {
		s := getenv(name)
		if s == "" || err != nil {
			return false
		}

		n, perr := strconv.ParseInt(s, 10, 64)
		if perr != nil {
			err = errors.Wrapf(perr, "%s", name)

			return false
		}

		*v = n

		return true
	}

	integer("MES_MAX_ARENA", &c.MaxArena)

	if integer("MES_ARENA", &c.Arena) {
		c.Jam = c.Arena / 10
		c.Safety = c.Arena / 100
	}

	integer("MES_JAM", &c.Jam)
	integer("MES_SAFETY", &c.Safety)
	integer("MES_STACK", &c.Stack)
	integer("MES_MAX_STACK", &c.MaxStack)
	integer("MES_MAX_STRING", &c.MaxString)
	integer("MES_DEBUG", &c.Debug)

	if err != nil {
		return c, err
	}

	return c, c.validate()
}

func (c Config) validate() error {
	switch {
	case c.Arena < 2*int64(Max):
		return errors.Errorf("MES_ARENA: %d is too small", c.Arena)
	case c.MaxArena < c.Arena:
		return errors.Errorf("MES_MAX_ARENA: %d is less than MES_ARENA", c.MaxArena)
	case c.Stack < FrameSize:
		return errors.Errorf("MES_STACK: %d is too small", c.Stack)
	case c.MaxStack < c.Stack:
		return errors.Errorf("MES_MAX_STACK: %d is less than MES_STACK", c.MaxStack)
	case c.Jam < 0 || c.Safety < 0 || c.MaxString < 0:
		return errors.New("MES_JAM, MES_SAFETY and MES_MAX_STRING must not be negative")
	}

	return nil
}
