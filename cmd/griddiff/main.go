// Command griddiff lists the cells where two grids differ by more than a
// relative percent error.
//
// Usage:
//
//	griddiff [-rpe=1] gridA gridB
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/tingold/geogrid"
)

// maxListed caps the number of differences printed.
const maxListed = 100

var rpe = flag.Float64("rpe", float64(geogrid.DefaultRPE), "relative percent error (1-100)")

func main() {
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "Usage: %s [-rpe=1] gridA gridB\n", os.Args[0])
		fmt.Fprintln(out, " Compares two grids and prints differences: row,column,valueA,valueB")
		fmt.Fprintln(out, " Grid format is deduced from the file extension.")
		flag.PrintDefaults()
	}
	flag.Parse()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}

	a, err := geogrid.LoadGrid(flag.Arg(0))
	if err != nil {
		logger.Error("Unable to load the first grid", "err", err)
		os.Exit(1)
	}
	b, err := geogrid.LoadGrid(flag.Arg(1))
	if err != nil {
		logger.Error("Unable to load the second grid", "err", err)
		os.Exit(1)
	}

	if !a.EqualDimensions(b) {
		fmt.Println("Dimensions are different.")
		return
	}

	rows, columns := a.Dimensions()
	count := 0
	for i := 0; i < rows; i++ {
		for j := 0; j < columns; j++ {
			if a.EqualsAt(b, i, j, float32(*rpe)) {
				continue
			}
			if count < maxListed {
				fmt.Printf("%d,%d,%g,%g Reverse row: %d,%d\n", i, j, a.At(i, j), b.At(i, j), rows-1-i, j)
			}
			count++
		}
	}
	if count > maxListed {
		fmt.Println("...")
	}
	if count > 0 {
		fmt.Printf("%d total positions are different.\n", count)
	}
}
