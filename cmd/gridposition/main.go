// Command gridposition prints the row and column of the cell holding a
// longitude/latitude pair.
//
// Usage:
//
//	gridposition grid lon lat
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/tingold/geogrid"
)

func main() {
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "Usage: %s grid lon lat\n", os.Args[0])
		fmt.Fprintln(out, " Calculates the row (latitude) and column (longitude) of lon,lat inside a grid.")
	}
	flag.Parse()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if flag.NArg() != 3 {
		flag.Usage()
		os.Exit(2)
	}

	lon, err := strconv.ParseFloat(flag.Arg(1), 64)
	if err != nil {
		logger.Error("Invalid longitude", "value", flag.Arg(1), "err", err)
		os.Exit(2)
	}
	lat, err := strconv.ParseFloat(flag.Arg(2), 64)
	if err != nil {
		logger.Error("Invalid latitude", "value", flag.Arg(2), "err", err)
		os.Exit(2)
	}

	g, err := geogrid.LoadGrid(flag.Arg(0))
	if err != nil {
		logger.Error("Unable to open input grid", "err", err)
		os.Exit(1)
	}

	i, j := g.Position(lon, lat)
	fmt.Printf("Input coordinates: %g,%g\n", lon, lat)
	fmt.Printf("Position: %d,%d\n", i, j)
	if v, ok := g.Value(i, j); ok {
		fmt.Printf("Value: %g\n", v)
	} else {
		fmt.Println("Position is outside the grid.")
	}
}
