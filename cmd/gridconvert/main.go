// Command gridconvert converts a grid between formats.
//
// Usage:
//
//	gridconvert -if=INPUT_FORMAT -of=OUTPUT_FORMAT -input=INPUT_GRID -output=OUTPUT_GRID
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/tingold/geogrid"
)

var (
	inputFormat  = flag.String("if", "", "input grid format; inferred from the extension when empty")
	outputFormat = flag.String("of", "", "output grid format")
	input        = flag.String("input", "", "input grid path")
	output       = flag.String("output", "", "output grid path")
)

func init() {
	flag.StringVar(input, "i", "", "shorthand for -input")
	flag.StringVar(output, "o", "", "shorthand for -output")
	flag.Usage = usage
}

func main() {
	flag.Parse()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *input == "" || *output == "" || *outputFormat == "" {
		flag.Usage()
		os.Exit(2)
	}

	iFormat := geogrid.FormatUnknown
	if *inputFormat != "" {
		iFormat = geogrid.GetFormat(*inputFormat)
		if iFormat == geogrid.FormatUnknown {
			logger.Error("Unknown input format", "format", *inputFormat)
			os.Exit(1)
		}
	}
	oFormat := geogrid.GetFormat(*outputFormat)
	if oFormat == geogrid.FormatUnknown {
		logger.Error("Unknown output format", "format", *outputFormat)
		os.Exit(1)
	}

	g, err := geogrid.LoadGridFormat(*input, iFormat)
	if err != nil {
		logger.Error("Unable to load input grid", "err", err)
		os.Exit(1)
	}
	rows, columns := g.Dimensions()
	logger.Info("Loaded grid", "path", *input, "format", g.Format(), "rows", rows, "columns", columns)

	if !oFormat.PortableNoData(g.NoData()) {
		logger.Warn("No-data value is not portable in the output format", "format", oFormat, "nodata", g.NoData())
	}
	if err := geogrid.SaveGrid(g, *output, oFormat); err != nil {
		logger.Error("Unable to create output grid", "err", err)
		os.Exit(1)
	}
	logger.Info("Saved grid", "path", *output, "format", oFormat)
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: %s -if=INPUT_FORMAT -of=OUTPUT_FORMAT -input=INPUT_GRID -output=OUTPUT_GRID\n", os.Args[0])
	fmt.Fprintln(out, " Converts INPUT_GRID (INPUT_FORMAT) to OUTPUT_GRID (OUTPUT_FORMAT).")
	fmt.Fprintln(out, " Available formats:")
	for _, f := range geogrid.Formats() {
		fmt.Fprintf(out, "   %-16s %s %s\n", f, f.Description(), f.Extension())
	}
	flag.PrintDefaults()
}
