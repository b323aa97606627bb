package geogrid

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// esriHeader holds the geo-referencing shared by ESRI ASCII grids and the
// .hdr sidecar of ESRI binary float grids.
type esriHeader struct {
	columns   int
	rows      int
	x0, y0    float64 // lower-left corner
	dx, dy    float64
	noData    float32
	bigEndian bool
}

// parseEsriHeader reads "key value" pairs until the first token that is not a
// key. Keys are case-insensitive and unknown keys are skipped with their value.
func parseEsriHeader(t *tokenReader) (esriHeader, error) {
	h := esriHeader{noData: float32(math.NaN())}
	var (
		xCenter, yCenter bool
		haveX, haveY     bool
	)

	for {
		tok, ok := t.next()
		if !ok {
			if err := t.err(); err != nil {
				return h, err
			}
			break
		}
		if !isHeaderKey(tok) {
			t.unread(tok)
			break
		}

		key := strings.ToLower(tok)
		var err error
		switch key {
		case "ncols":
			h.columns, err = t.int(key)
		case "nrows":
			h.rows, err = t.int(key)
		case "xllcorner", "xllcenter":
			h.x0, err = t.float(key)
			haveX, xCenter = true, key == "xllcenter"
		case "yllcorner", "yllcenter":
			h.y0, err = t.float(key)
			haveY, yCenter = true, key == "yllcenter"
		case "cellsize":
			h.dx, err = t.float(key)
			h.dy = h.dx
		case "dx", "xdim":
			h.dx, err = t.float(key)
		case "dy", "ydim":
			h.dy, err = t.float(key)
		case "nodata_value", "nodata":
			var v float64
			v, err = t.float(key)
			h.noData = float32(v)
		case "byteorder":
			tok, ok := t.next()
			if !ok {
				return h, t.missing(key)
			}
			switch strings.ToLower(tok) {
			case "msbfirst", "m":
				h.bigEndian = true
			case "lsbfirst", "i":
				h.bigEndian = false
			default:
				return h, fmt.Errorf("%w: byteorder %q", ErrInvalidHeader, tok)
			}
		default:
			if _, ok := t.next(); !ok {
				return h, t.missing(key)
			}
		}
		if err != nil {
			return h, err
		}
	}

	if h.columns <= 0 || h.rows <= 0 {
		return h, fmt.Errorf("%w: ncols %d nrows %d", ErrInvalidHeader, h.columns, h.rows)
	}
	if !haveX || !haveY {
		return h, fmt.Errorf("%w: missing lower-left corner", ErrInvalidHeader)
	}
	if !(h.dx > 0) || !(h.dy > 0) {
		return h, fmt.Errorf("%w: cell size %g x %g", ErrInvalidHeader, h.dx, h.dy)
	}
	if xCenter {
		h.x0 -= h.dx / 2
	}
	if yCenter {
		h.y0 -= h.dy / 2
	}
	return h, nil
}

// isHeaderKey reports whether tok names a header field rather than a sample.
func isHeaderKey(tok string) bool {
	if tok == "" || !unicode.IsLetter(rune(tok[0])) {
		return false
	}
	_, err := strconv.ParseFloat(tok, 64)
	return err != nil
}

func esriHeaderOf(g *Grid) esriHeader {
	return esriHeader{
		columns: g.columns,
		rows:    g.rows,
		x0:      g.x0,
		y0:      g.y0,
		dx:      g.dx,
		dy:      g.dy,
		noData:  g.noData,
	}
}

// write emits the header. Square cells use "cellsize", others "dx"/"dy".
func (h esriHeader) write(w *bufio.Writer, withByteOrder bool) error {
	fmt.Fprintf(w, "%-14s%d\n", "ncols", h.columns)
	fmt.Fprintf(w, "%-14s%d\n", "nrows", h.rows)
	fmt.Fprintf(w, "%-14s%s\n", "xllcorner", formatFloat64(h.x0))
	fmt.Fprintf(w, "%-14s%s\n", "yllcorner", formatFloat64(h.y0))
	if h.dx == h.dy {
		fmt.Fprintf(w, "%-14s%s\n", "cellsize", formatFloat64(h.dx))
	} else {
		fmt.Fprintf(w, "%-14s%s\n", "dx", formatFloat64(h.dx))
		fmt.Fprintf(w, "%-14s%s\n", "dy", formatFloat64(h.dy))
	}
	fmt.Fprintf(w, "%-14s%s\n", "NODATA_value", appendFloat32(nil, h.noData))
	if withByteOrder {
		order := "LSBFIRST"
		if h.bigEndian {
			order = "MSBFIRST"
		}
		fmt.Fprintf(w, "%-14s%s\n", "byteorder", order)
	}
	return nil
}

func (h esriHeader) byteOrder() binary.ByteOrder {
	if h.bigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// esriASCIICodec handles ESRI ASCII grids. Rows are stored north row first.
type esriASCIICodec struct{}

func (esriASCIICodec) Decode(path string) (*Grid, error) {
	f, size, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t := newTokenReader(bufio.NewReader(f))
	h, err := parseEsriHeader(t)
	if err != nil {
		return nil, err
	}
	// Every sample takes at least one digit and one separator.
	if err := checkCells(h.rows, h.columns, 2, size+1); err != nil {
		return nil, err
	}
	samples, err := t.samples(h.rows * h.columns)
	if err != nil {
		return nil, err
	}
	flipRows(samples, h.rows, h.columns)

	return New(FormatEsriASCII, samples, h.rows, h.columns, h.x0, h.y0, h.dx, h.dy, h.noData)
}

func (esriASCIICodec) Encode(g *Grid, path string) error {
	if g.IsEmpty() {
		return ErrEmptyGrid
	}
	return writeFile(path, func(w *bufio.Writer) error {
		if err := esriHeaderOf(g).write(w, false); err != nil {
			return err
		}
		return writeTextRows(w, g, true)
	})
}

// esriFloatCodec handles ESRI binary float grids: a raw float32 payload,
// north row first, described by a sidecar .hdr file.
type esriFloatCodec struct{}

func (esriFloatCodec) Decode(path string) (*Grid, error) {
	h, err := readEsriSidecar(headerPath(path))
	if err != nil {
		return nil, err
	}

	f, size, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := checkCells(h.rows, h.columns, 4, size); err != nil {
		return nil, err
	}
	samples, err := readFloats(bufio.NewReader(f), h.byteOrder(), 4, h.rows*h.columns)
	if err != nil {
		return nil, err
	}
	flipRows(samples, h.rows, h.columns)

	return New(FormatEsriFloat, samples, h.rows, h.columns, h.x0, h.y0, h.dx, h.dy, h.noData)
}

func (esriFloatCodec) Encode(g *Grid, path string) error {
	if g.IsEmpty() {
		return ErrEmptyGrid
	}
	h := esriHeaderOf(g)
	err := writeFile(headerPath(path), func(w *bufio.Writer) error {
		return h.write(w, true)
	})
	if err != nil {
		return err
	}
	return writeFile(path, func(w *bufio.Writer) error {
		return rowsInOrder(g, true, func(row []float32) error {
			return writeFloats(w, h.byteOrder(), 4, row, nil)
		})
	})
}

func readEsriSidecar(path string) (esriHeader, error) {
	f, _, err := openFile(path)
	if err != nil {
		return esriHeader{}, err
	}
	defer f.Close()

	t := newTokenReader(bufio.NewReader(f))
	h, err := parseEsriHeader(t)
	if err != nil {
		return h, fmt.Errorf("%s: %w", path, err)
	}
	if tok, ok := t.next(); ok {
		return h, fmt.Errorf("%w: %s: unexpected %q", ErrInvalidHeader, path, tok)
	}
	return h, nil
}

// writeTextRows writes one line per row, values separated by single spaces.
func writeTextRows(w *bufio.Writer, g *Grid, reverse bool) error {
	buf := make([]byte, 0, 16*g.columns)
	return rowsInOrder(g, reverse, func(row []float32) error {
		buf = buf[:0]
		for j, v := range row {
			if j > 0 {
				buf = append(buf, ' ')
			}
			buf = appendFloat32(buf, v)
		}
		buf = append(buf, '\n')
		_, err := w.Write(buf)
		return err
	})
}
