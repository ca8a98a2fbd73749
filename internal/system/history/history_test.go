// Released under an MIT license. See LICENSE.

package history

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	var loaded bytes.Buffer

	err := Load(func(r io.Reader) (int, error) {
		n, err := loaded.ReadFrom(r)

		return int(n), err
	})
	if err != nil {
		t.Fatalf("Expected a missing history file to be ignored; got %v", err)
	}

	err = Save(func(w io.Writer) (int, error) {
		return io.WriteString(w, "(+ 1 2)\n")
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(home, Name)); err != nil {
		t.Fatalf("Expected %s to be written: %v", Name, err)
	}

	err = Load(func(r io.Reader) (int, error) {
		n, err := loaded.ReadFrom(r)

		return int(n), err
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if loaded.String() != "(+ 1 2)\n" {
		t.Fatalf("Expected the saved history; got %q", loaded.String())
	}
}
