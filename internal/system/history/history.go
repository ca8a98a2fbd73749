// Released under an MIT license. See LICENSE.

// Package history loads and saves the interactive session history.
package history

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// Load passes the history file to read. A missing file is not an error.
func Load(read func(r io.Reader) (int, error)) error {
	f, err := file(os.Open)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err != nil {
		return err
	}

	defer f.Close()

	_, err = read(f)

	return errors.Wrap(err, "history")
}

// Save passes a truncated history file to write.
func Save(write func(w io.Writer) (int, error)) error {
	f, err := file(os.Create)
	if err != nil {
		return err
	}

	if _, err = write(f); err != nil {
		f.Close()

		return errors.Wrap(err, "history")
	}

	return f.Close()
}
