// Command gridmosaic stitches two grids into one.
//
// Usage:
//
//	gridmosaic [-index=footprints.fgb] grid1 grid2 side output
//
// side is where grid1 ends up in the output: left, right, top or bottom.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/tingold/geogrid"
)

var index = flag.String("index", "", "also write the footprints of the inputs and the output to this FlatGeobuf file")

func main() {
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "Usage: %s [-index=FILE] grid1 grid2 side output\n", os.Args[0])
		fmt.Fprintln(out, " Stitches grid1 and grid2 on the defined side into output grid.")
		fmt.Fprintln(out, " side is one of left, right, top, bottom.")
		fmt.Fprintln(out, " Available formats:")
		for _, f := range geogrid.Formats() {
			fmt.Fprintf(out, "   %-16s %s %s\n", f, f.Description(), f.Extension())
		}
		flag.PrintDefaults()
	}
	flag.Parse()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if flag.NArg() != 4 {
		flag.Usage()
		os.Exit(2)
	}
	path1, path2, outputPath := flag.Arg(0), flag.Arg(1), flag.Arg(3)

	edge, err := geogrid.ParseEdge(flag.Arg(2))
	if err != nil {
		logger.Error("Invalid side", "err", err)
		os.Exit(2)
	}

	grid1, err := geogrid.LoadGrid(path1)
	if err != nil {
		logger.Error("Unable to load grid 1", "err", err)
		os.Exit(1)
	}
	grid2, err := geogrid.LoadGrid(path2)
	if err != nil {
		logger.Error("Unable to load grid 2", "err", err)
		os.Exit(1)
	}

	output, err := geogrid.Mosaic(edge, grid1, grid2)
	if err != nil {
		logger.Error("Unable to mosaic grids", "side", edge, "err", err)
		os.Exit(1)
	}
	if err := geogrid.SaveGrid(output, outputPath, output.Format()); err != nil {
		logger.Error("Unable to save output grid", "err", err)
		os.Exit(1)
	}
	rows, columns := output.Dimensions()
	logger.Info("Saved mosaic", "path", outputPath, "rows", rows, "columns", columns)

	if *index == "" {
		return
	}
	if err := writeIndex(*index, []geogrid.NamedGrid{
		{Name: path1, Grid: grid1},
		{Name: path2, Grid: grid2},
		{Name: outputPath, Grid: output},
	}); err != nil {
		logger.Error("Unable to write footprint index", "err", err)
		os.Exit(1)
	}
	logger.Info("Saved footprint index", "path", *index)
}

func writeIndex(path string, grids []geogrid.NamedGrid) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	opts := geogrid.DefaultOptions()
	opts.Name = "mosaic"
	opts.Description = "Mosaic inputs and output"
	return geogrid.WriteFootprints(f, grids, opts)
}
