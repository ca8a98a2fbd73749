// Released under an MIT license. See LICENSE.

package builtins

import (
	"golang.org/x/sys/unix"

	"github.com/michaelmacinnis/mes/internal/engine/cell"
	"github.com/michaelmacinnis/mes/internal/engine/heap"
	"github.com/michaelmacinnis/mes/internal/engine/machine"
)

// InternalTimeUnits is the number of get-internal-run-time units per second.
const InternalTimeUnits = 1000000

func (b *builtins) posix() map[string]interface{} {
	return map[string]interface{}{
		"access?":               machine.Fn2(b.access),
		"chmod":                 machine.Fn2(b.chmod),
		"current-time":          machine.Fn0(b.currentTime),
		"delete-file":           machine.Fn1(b.deleteFile),
		"dup":                   machine.Fn1(b.dup),
		"dup2":                  machine.Fn2(b.dup2),
		"get-internal-run-time": machine.Fn0(b.runTime),
		"getcwd":                machine.Fn0(b.getcwd),
		"getenv":                machine.Fn1(b.getenv),
		"getpid":                machine.Fn0(b.getpid),
		"gettimeofday":          machine.Fn0(b.gettimeofday),
		"setenv":                machine.Fn2(b.setenv),
	}
}

func (b *builtins) access(name, mode cell.H) cell.H {
	err := unix.Access(b.str("access?", name), uint32(b.integer("access?", mode)))

	return heap.Boolean(err == nil)
}

func (b *builtins) chmod(name, mode cell.H) cell.H {
	if err := unix.Chmod(b.str("chmod", name), uint32(b.integer("chmod", mode))); err != nil {
		b.systemError(err, name)
	}

	return cell.Unspecified
}

func (b *builtins) currentTime() cell.H {
	var tv unix.Timeval

	if err := unix.Gettimeofday(&tv); err != nil {
		b.systemError(err, cell.Unspecified)
	}

	return b.Number(int64(tv.Sec))
}

func (b *builtins) deleteFile(name cell.H) cell.H {
	if err := unix.Unlink(b.str("delete-file", name)); err != nil {
		b.systemError(err, name)
	}

	return cell.Unspecified
}

func (b *builtins) dup(fd cell.H) cell.H {
	n, err := unix.Dup(int(b.integer("dup", fd)))
	if err != nil {
		b.systemError(err, fd)
	}

	return b.Number(int64(n))
}

func (b *builtins) dup2(old, fd cell.H) cell.H {
	n := int(b.integer("dup2", fd))

	if err := dup2(int(b.integer("dup2", old)), n); err != nil {
		b.systemError(err, b.List(old, fd))
	}

	return b.Number(int64(n))
}

func (b *builtins) getcwd() cell.H {
	dir, err := unix.Getwd()
	if err != nil {
		b.systemError(err, cell.Unspecified)
	}

	return b.MakeString(dir)
}

func (b *builtins) getenv(name cell.H) cell.H {
	v, ok := unix.Getenv(b.str("getenv", name))
	if !ok {
		return cell.False
	}

	return b.MakeString(v)
}

func (b *builtins) getpid() cell.H {
	return b.Number(int64(unix.Getpid()))
}

// (seconds . microseconds)
func (b *builtins) gettimeofday() cell.H {
	var tv unix.Timeval

	if err := unix.Gettimeofday(&tv); err != nil {
		b.systemError(err, cell.Unspecified)
	}

	return b.Cons(b.Number(int64(tv.Sec)), b.Number(int64(tv.Usec)))
}

// User and system time used by this process.
func (b *builtins) runTime() cell.H {
	var ru unix.Rusage

	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		b.systemError(err, cell.Unspecified)
	}

	usec := func(tv unix.Timeval) int64 {
		return int64(tv.Sec)*InternalTimeUnits + int64(tv.Usec)
	}

	return b.Number(usec(ru.Utime) + usec(ru.Stime))
}

func (b *builtins) setenv(name, v cell.H) cell.H {
	if err := unix.Setenv(b.str("setenv", name), b.str("setenv", v)); err != nil {
		b.systemError(err, name)
	}

	return cell.Unspecified
}
