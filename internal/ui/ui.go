// Released under an MIT license. See LICENSE.

// Package ui provides an interactive session for the mes interpreter.
package ui

import (
	"io"
	"strings"

	"github.com/muesli/termenv"
	"github.com/peterh/liner"
	"github.com/pkg/errors"

	"github.com/michaelmacinnis/mes/internal/engine/cell"
	"github.com/michaelmacinnis/mes/internal/engine/machine"
	"github.com/michaelmacinnis/mes/internal/reader"
	"github.com/michaelmacinnis/mes/internal/system/history"
)

// Prompts.
const (
	Prompt       = "mes> "
	Continuation = "... "
)

// Evaluator is the interface for things that evaluate parsed data.
type Evaluator interface {
	Eval(x cell.H) (string, error)
	Reader(name string) *reader.T
}

// Run reads data from the terminal and evaluates each as soon as it is
// complete. It returns when input ends or a program exits.
func Run(e Evaluator, stdout, stderr io.Writer) error {
	cli := liner.NewLiner()
	defer cli.Close()

	cli.SetCtrlCAborts(true)

	if err := history.Load(cli.ReadHistory); err != nil {
		return err
	}

	s := newSession(e, stdout, stderr)

	for {
		line, err := cli.Prompt(s.prompt())

		switch {
		case err == nil:
			if strings.TrimSpace(line) != "" {
				cli.AppendHistory(line)
			}
		case errors.Is(err, liner.ErrPromptAborted):
			s.pending = ""

			continue
		case errors.Is(err, io.EOF):
			_, _ = io.WriteString(stdout, "\n")

			return history.Save(cli.WriteHistory)
		default:
			return err
		}

		if err := s.evaluate(line); err != nil {
			_ = history.Save(cli.WriteHistory)

			return err
		}
	}
}

// The session type holds the text of an incomplete datum between lines.
type session struct {
	e       Evaluator
	pending string
	stdout  io.Writer
	stderr  *termenv.Output
}

func newSession(e Evaluator, stdout, stderr io.Writer) *session {
	return &session{
		e:      e,
		stdout: stdout,
		stderr: termenv.NewOutput(stderr),
	}
}

func (s *session) prompt() string {
	if s.pending != "" {
		return Continuation
	}

	return Prompt
}

// Evaluate every complete datum in the pending text and line. Errors are
// reported and the session continues, unless the program exits.
func (s *session) evaluate(line string) error {
	r := s.e.Reader("<repl>")
	r.Scan(s.pending + line + "\n")

	s.pending = ""

	for {
		rest := r.Rest()

		x, err := r.Read()

		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, reader.ErrIncomplete):
			s.pending = rest

			return nil
		case err != nil:
			s.report(err)

			return nil
		}

		v, err := s.e.Eval(x)

		var exit *machine.Exit
		if errors.As(err, &exit) {
			return err
		}

		if err != nil {
			s.report(err)

			continue
		}

		if v != "" {
			_, _ = io.WriteString(s.stdout, v+"\n")
		}
	}
}

func (s *session) report(err error) {
	msg := s.stderr.String(err.Error()).Foreground(termenv.ANSIRed)

	_, _ = io.WriteString(s.stderr, msg.String()+"\n")
}
