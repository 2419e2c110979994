package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"plotopt/pkg/cfg"
	"plotopt/pkg/geometry"
	"plotopt/pkg/svgpath"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"golang.org/x/xerrors"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %s", name, err)
	}
	return path
}

func overridesOf(t *testing.T, doc string) *cfg.Overrides {
	t.Helper()
	o, err := cfg.Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("loading overrides: %s", err)
	}
	return o
}

func TestReadInputGcode(t *testing.T) {
	name := writeTemp(t, "drawing.gcode", "G0 Z5\nG0 X0 Y0\nG1 Z0\nG1 X10 Y0 F800\nG0 Z5\n")

	settings := cfg.Default()
	paths, err := readInput(name, &settings, overridesOf(t, `{"z_up": 3}`))
	if err != nil {
		t.Fatalf("readInput failed: %s", err)
	}
	want := []geometry.Polyline{{{X: 0, Y: 0}, {X: 10, Y: 0}}}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Errorf("incorrect strokes: %s", diff)
	}
	// Detected feedrate and pen-down height, with the override on top.
	if settings.ZUp != 3 || settings.ZDown != 0 || settings.Feedrate != 800 {
		t.Errorf("unexpected settings: %+v", settings)
	}
}

func TestReadInputSVG(t *testing.T) {
	const doc = `<svg width="10mm" height="10mm" viewBox="0 0 10 10"><line x1="1" y1="1" x2="4" y2="1"/></svg>`
	for _, name := range []string{"drawing.svg", "DRAWING.SVG"} {
		path := writeTemp(t, name, doc)

		settings := cfg.Default()
		paths, err := readInput(path, &settings, nil)
		if err != nil {
			t.Fatalf("%s: readInput failed: %s", name, err)
		}
		want := []geometry.Polyline{{{X: 1, Y: 9}, {X: 4, Y: 9}}}
		if diff := cmp.Diff(want, paths, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
			t.Errorf("%s: incorrect strokes: %s", name, diff)
		}

		// The curve tolerance override reaches the SVG reader.
		settings = cfg.Default()
		_, err = readInput(path, &settings, overridesOf(t, `{"curve_tolerance": 0}`))
		if !xerrors.Is(err, svgpath.ErrTolerance) {
			t.Errorf("%s: got error %v, want %v", name, err, svgpath.ErrTolerance)
		}
	}

	if _, err := readInput(filepath.Join(t.TempDir(), "missing.svg"), &cfg.Settings{}, nil); err == nil {
		t.Errorf("missing file was read")
	}
}

func TestWriteFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "out.gcode")
	err := writeFile(name, func(w io.Writer) error {
		_, err := io.WriteString(w, "G0 X0 Y0\n")
		return err
	})
	if err != nil {
		t.Fatalf("writeFile failed: %s", err)
	}
	got, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("reading back: %s", err)
	}
	if string(got) != "G0 X0 Y0\n" {
		t.Errorf("file holds %q", got)
	}

	errFull := xerrors.New("disk full")
	err = writeFile(name, func(w io.Writer) error { return errFull })
	if !xerrors.Is(err, errFull) {
		t.Errorf("got error %v, want %v", err, errFull)
	}

	if err := writeFile(filepath.Join(name, "nested"), func(w io.Writer) error { return nil }); err == nil {
		t.Errorf("writing below a file succeeded")
	}
}
