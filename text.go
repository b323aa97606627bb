package geogrid

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// textCodec handles headerless grids: one line per row, values separated by
// whitespace or commas. FormatText stores row 0 first and FormatTextReverse
// the last row first. Text files carry no geo-referencing, so decoded grids
// have their origin at (0, 0), unit cells and a NaN no-data value.
type textCodec struct {
	format Format
}

func (c textCodec) reverse() bool {
	return c.format == FormatTextReverse
}

func (c textCodec) Decode(path string) (*Grid, error) {
	f, _, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	samples, rows, columns, err := readTextRows(bufio.NewReader(f))
	if err != nil {
		return nil, err
	}
	if c.reverse() {
		flipRows(samples, rows, columns)
	}
	return New(c.format, samples, rows, columns, 0, 0, 1, 1, float32(math.NaN()))
}

func (c textCodec) Encode(g *Grid, path string) error {
	if g.IsEmpty() {
		return ErrEmptyGrid
	}
	return writeFile(path, func(w *bufio.Writer) error {
		return writeTextRows(w, g, c.reverse())
	})
}

// readTextRows parses non-empty lines into a row-major buffer. Every row must
// have as many values as the first one.
func readTextRows(r *bufio.Reader) (samples []float32, rows, columns int, err error) {
	for {
		line, rerr := r.ReadString('\n')
		if rerr != nil && !errors.Is(rerr, io.EOF) {
			return nil, 0, 0, rerr
		}

		fields := strings.FieldsFunc(line, isTextSeparator)
		if len(fields) > 0 {
			if rows == 0 {
				columns = len(fields)
			} else if len(fields) != columns {
				return nil, 0, 0, fmt.Errorf("%w: row %d has %d values, expected %d",
					ErrInvalidDimensions, rows, len(fields), columns)
			}
			for _, tok := range fields {
				v, err := strconv.ParseFloat(tok, 32)
				if err != nil {
					return nil, 0, 0, fmt.Errorf("row %d: %w", rows, err)
				}
				samples = append(samples, float32(v))
			}
			rows++
		}

		if rerr != nil {
			break
		}
	}
	if rows == 0 {
		return nil, 0, 0, ErrEmptyGrid
	}
	return samples, rows, columns, nil
}

func isTextSeparator(r rune) bool {
	switch r {
	case ' ', '\t', ',', ';', '\r', '\n':
		return true
	}
	return false
}
