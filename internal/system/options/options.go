// Released under an MIT license. See LICENSE.

// Package options parses the command line.
package options

import (
	"os"

	"github.com/docopt/docopt-go"
	"github.com/mattn/go-isatty"
)

const usage = `mes

Usage:
  mes [--load=IMAGE] [-i] [FILE [ARGUMENTS...]]
  mes --dump
  mes -e EXPR
  mes -h
  mes -v

Arguments:
  FILE       Path to a Scheme program. Read from stdin if omitted.
  ARGUMENTS  Arguments for the program, bound with FILE to %argv.

Options:
  -e, --eval=EXPR    Evaluate EXPR and write its value.
  -i, --interactive  Invert interactive mode.
  -h, --help         Display this help.
  -v, --version      Print the mes version.
  --dump             Write an image of the boot program to stdout.
  --load=IMAGE       Start from an image instead of the boot script.

If mes's stdin is a TTY and no FILE is given, mes starts an interactive
session. The environment variables MES_ARENA, MES_MAX_ARENA, MES_JAM,
MES_SAFETY, MES_STACK, MES_MAX_STACK, MES_MAX_STRING and MES_DEBUG tune
the heap and logging. MES_BOOT names a file that replaces the boot script.
`

//nolint:gochecknoglobals
var helpHandler = docopt.PrintHelpAndExit

// T (options) holds the parsed command line.
type T struct {
	Args        []string
	Dump        bool
	Expression  string
	File        string
	Image       string
	Interactive bool
}

// Parse parses argv, which does not include the program name. The tty
// function reports whether stdin is a terminal.
func Parse(argv []string, version string, tty func() bool) (*T, error) {
	parser := &docopt.Parser{
		HelpHandler: helpHandler,
	}

	opts, err := parser.ParseArgs(usage, argv, version)
	if err != nil {
		return nil, err
	}

	o := &T{}

	o.Dump, _ = opts.Bool("--dump")
	o.Expression, _ = opts.String("--eval")
	o.File, _ = opts.String("FILE")
	o.Image, _ = opts.String("--load")

	name := o.File
	if name == "" {
		name = "mes"
	}

	args, _ := opts["ARGUMENTS"].([]string)
	o.Args = append([]string{name}, args...)

	if o.File == "" && o.Expression == "" && !o.Dump {
		o.Interactive = tty()
	}

	invert, _ := opts.Bool("--interactive")
	o.Interactive = o.Interactive != invert

	return o, nil
}

// Stdin is true if stdin is a terminal.
func Stdin() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}
