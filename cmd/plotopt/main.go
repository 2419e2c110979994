package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"plotopt/pkg/cfg"
	"plotopt/pkg/cleaner"
	"plotopt/pkg/gcode"
	"plotopt/pkg/geometry"
	"plotopt/pkg/svgpath"
)

func main() {
	settingsFile := flag.String("settings", "", "JSON settings file")
	outFile := flag.String("o", "", "output file (default stdout)")
	maxIter := flag.Int("max-iter", 0, "2-opt pass limit, clamped to [50, 1000] (default from settings)")
	penWidth := flag.Float64("pen-width", -1, "pen width in mm for the coverage filter; 0 disables it")
	verbose := flag.Bool("v", false, "log each stage to stderr")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] file.gcode|file.svg\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	var overrides *cfg.Overrides
	if *settingsFile != "" {
		f, err := os.Open(*settingsFile)
		if err != nil {
			log.Fatalf("settings read error: %s", err)
		}
		overrides, err = cfg.Load(f)
		f.Close()
		if err != nil {
			log.Fatalf("settings error: %s", err)
		}
	}

	settings := cfg.Default()
	paths, err := readInput(flag.Arg(0), &settings, overrides)
	if err != nil {
		log.Fatalf("parse error: %s", err)
	}
	if *maxIter != 0 {
		settings.MaxIterations = cfg.ClampIterations(*maxIter)
	}
	if *penWidth >= 0 {
		settings.PenWidth = *penWidth
	}

	var logger *log.Logger
	if *verbose {
		logger = log.New(os.Stderr, "", log.Ltime)
	}
	res, err := cleaner.Optimize(paths, settings, logger)
	if err != nil {
		log.Fatalf("optimize error: %s", err)
	}

	if *outFile == "" {
		err = gcode.Generate(os.Stdout, res.Paths, settings)
	} else {
		err = writeFile(*outFile, func(w io.Writer) error {
			return gcode.Generate(w, res.Paths, settings)
		})
	}
	if err != nil {
		log.Fatalf("file write error: %s", err)
	}

	st := res.Stats
	savings := 0.0
	if st.NearestPenUp > 0 {
		savings = (1 - st.FinalPenUp/st.NearestPenUp) * 100
	}
	fmt.Fprintf(os.Stderr, "2-Opt %s: %d iterations\n", st.State, st.Iterations)
	fmt.Fprintf(os.Stderr, "Travel: %.1fmm (input) -> %.1fmm (NN) -> %.1fmm (%.1f%% NN refinement)\n",
		st.OriginalPenUp, st.NearestPenUp, st.FinalPenUp, savings)
	fmt.Fprintf(os.Stderr, "Paths: %d in, %d out (%d dots, %d covered, %d merged)\n",
		st.InputPaths, st.OutputPaths, st.DegenerateCount, len(st.RemovedIndices), st.MergedCount)
}

// readInput reads strokes from a G-code or SVG file, chosen by extension.
// Settings detected in a G-code file sit under the JSON overrides.
func readInput(name string, settings *cfg.Settings, overrides *cfg.Overrides) ([]geometry.Polyline, error) {
	in, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	if strings.EqualFold(filepath.Ext(name), ".svg") {
		if overrides != nil {
			overrides.Apply(settings)
		}
		return svgpath.Load(in, settings.CurveTolerance)
	}

	prog, err := gcode.Parse(in)
	if err != nil {
		return nil, err
	}
	prog.Apply(settings)
	if overrides != nil {
		overrides.Apply(settings)
	}
	return prog.Paths, nil
}

// writeFile creates name and writes it with write. A failure to flush the
// file on close is reported like any other write error.
func writeFile(name string, write func(w io.Writer) error) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
