package geogrid

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// surferBlank is the value Surfer uses for blanked (no-data) nodes.
const surferBlank = 1.70141e38

// Surfer file signatures.
const (
	surferASCIISignature = "DSAA"
	surfer6Signature     = "DSBB"
)

// Surfer 7 section tags.
const (
	surfer7HeaderTag = 0x42525344 // "DSRB"
	surfer7GridTag   = 0x44495247 // "GRID"
	surfer7DataTag   = 0x41544144 // "DATA"
	surfer7FaultTag  = 0x49544c46 // "FLTI"
)

// surfer6MaxDim is the largest dimension a DSBB header can record.
const surfer6MaxDim = math.MaxInt16

// nodeGeometry describes a grid by the positions of its first and last nodes,
// as Surfer and NetCDF grids do. Nodes are the centres of the grid cells.
type nodeGeometry struct {
	columns, rows int
	xLo, xHi      float64
	yLo, yHi      float64
	zLo, zHi      float64
}

func nodeGeometryOf(g *Grid) nodeGeometry {
	zLo, zHi := g.zRange()
	return nodeGeometry{
		columns: g.columns,
		rows:    g.rows,
		xLo:     g.x0 + g.dx/2,
		xHi:     g.x0 + (float64(g.columns)-0.5)*g.dx,
		yLo:     g.y0 + g.dy/2,
		yHi:     g.y0 + (float64(g.rows)-0.5)*g.dy,
		zLo:     zLo,
		zHi:     zHi,
	}
}

// cells converts node ranges back to a lower-left corner and cell size. A
// single column or row borrows the spacing of the other axis, and a single
// node gets unit spacing.
func (s nodeGeometry) cells() (x0, y0, dx, dy float64, err error) {
	if s.columns > 1 {
		dx = (s.xHi - s.xLo) / float64(s.columns-1)
	}
	if s.rows > 1 {
		dy = (s.yHi - s.yLo) / float64(s.rows-1)
	}
	switch {
	case s.columns == 1 && s.rows == 1:
		dx, dy = 1, 1
	case s.columns == 1:
		dx = dy
	case s.rows == 1:
		dy = dx
	}
	if !(dx > 0) || !(dy > 0) {
		return 0, 0, 0, 0, fmt.Errorf("%w: node spacing %g x %g", ErrInvalidHeader, dx, dy)
	}
	return s.xLo - dx/2, s.yLo - dy/2, dx, dy, nil
}

// surfer6Header is the fixed 56 byte DSBB header.
type surfer6Header struct {
	ID       [4]byte
	NX, NY   int16
	XLo, XHi float64
	YLo, YHi float64
	ZLo, ZHi float64
}

// surfer7Section prefixes every section of a DSRB file.
type surfer7Section struct {
	Tag  uint32
	Size uint32
}

// surfer7Grid is the body of the GRID section.
type surfer7Grid struct {
	Rows       int32
	Columns    int32
	XLL        float64
	YLL        float64
	XSize      float64
	YSize      float64
	ZMin       float64
	ZMax       float64
	Rotation   float64
	BlankValue float64
}

const surfer7GridSize = 72

// surferCodec handles the Surfer grid family. Decode recognises the variant
// from the file signature; Encode writes the codec's own variant. Rows are
// stored south row first, matching the in-memory order.
type surferCodec struct {
	format Format
}

func (surferCodec) Decode(path string) (*Grid, error) {
	f, size, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	sig, err := r.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("%w: missing signature", ErrInvalidHeader)
	}
	switch {
	case string(sig) == surferASCIISignature:
		return decodeSurferASCII(r, size)
	case string(sig) == surfer6Signature:
		return decodeSurfer6(r, size)
	case binary.LittleEndian.Uint32(sig) == surfer7HeaderTag:
		return decodeSurfer7(r, size)
	}
	return nil, fmt.Errorf("%w: unknown Surfer signature %q", ErrInvalidHeader, sig)
}

func (c surferCodec) Encode(g *Grid, path string) error {
	if g.IsEmpty() {
		return ErrEmptyGrid
	}
	switch c.format {
	case FormatSurferASCII:
		return writeFile(path, func(w *bufio.Writer) error { return encodeSurferASCII(w, g) })
	case FormatSurfer6:
		if g.rows > surfer6MaxDim || g.columns > surfer6MaxDim {
			return fmt.Errorf("%w: %dx%d exceeds Surfer 6 limits", ErrInvalidDimensions, g.rows, g.columns)
		}
		return writeFile(path, func(w *bufio.Writer) error { return encodeSurfer6(w, g) })
	case FormatSurfer7:
		if int64(g.rows)*int64(g.columns)*8 > math.MaxUint32 {
			return fmt.Errorf("%w: %dx%d exceeds Surfer 7 limits", ErrInvalidDimensions, g.rows, g.columns)
		}
		return writeFile(path, func(w *bufio.Writer) error { return encodeSurfer7(w, g) })
	}
	return fmt.Errorf("%w: %v", ErrUnknownFormat, c.format)
}

// blankSamples replaces Surfer blanks with the canonical blank value.
func blankSamples(samples []float32, blank float32) {
	for i, v := range samples {
		if v >= blank {
			samples[i] = blank
		}
	}
}

// surferBlankFor maps no-data samples of g to the Surfer blank value.
func surferBlankFor(g *Grid) func(float32) (float64, bool) {
	return func(v float32) (float64, bool) {
		if g.IsNoData(v) {
			return surferBlank, true
		}
		return 0, false
	}
}

func decodeSurferASCII(r io.Reader, size int64) (*Grid, error) {
	t := newTokenReader(r)
	if tok, _ := t.next(); tok != surferASCIISignature {
		return nil, fmt.Errorf("%w: missing %s signature", ErrInvalidHeader, surferASCIISignature)
	}

	var s nodeGeometry
	var err error
	fields := []struct {
		what  string
		count *int
		coord *float64
	}{
		{what: "ncols", count: &s.columns},
		{what: "nrows", count: &s.rows},
		{what: "xlo", coord: &s.xLo},
		{what: "xhi", coord: &s.xHi},
		{what: "ylo", coord: &s.yLo},
		{what: "yhi", coord: &s.yHi},
		{what: "zlo", coord: &s.zLo},
		{what: "zhi", coord: &s.zHi},
	}
	for _, f := range fields {
		if f.count != nil {
			*f.count, err = t.int(f.what)
		} else {
			*f.coord, err = t.float(f.what)
		}
		if err != nil {
			return nil, err
		}
	}

	if err := checkCells(s.rows, s.columns, 2, size+1); err != nil {
		return nil, err
	}
	x0, y0, dx, dy, err := s.cells()
	if err != nil {
		return nil, err
	}
	samples, err := t.samples(s.rows * s.columns)
	if err != nil {
		return nil, err
	}
	blankSamples(samples, float32(surferBlank))

	return New(FormatSurferASCII, samples, s.rows, s.columns, x0, y0, dx, dy, float32(surferBlank))
}

func encodeSurferASCII(w *bufio.Writer, g *Grid) error {
	s := nodeGeometryOf(g)
	fmt.Fprintln(w, surferASCIISignature)
	fmt.Fprintf(w, "%d %d\n", s.columns, s.rows)
	fmt.Fprintf(w, "%s %s\n", formatFloat64(s.xLo), formatFloat64(s.xHi))
	fmt.Fprintf(w, "%s %s\n", formatFloat64(s.yLo), formatFloat64(s.yHi))
	fmt.Fprintf(w, "%s %s\n", formatFloat64(s.zLo), formatFloat64(s.zHi))

	blank := surferBlankFor(g)
	buf := make([]byte, 0, 16*g.columns)
	return rowsInOrder(g, false, func(row []float32) error {
		buf = buf[:0]
		for j, v := range row {
			if j > 0 {
				buf = append(buf, ' ')
			}
			if b, ok := blank(v); ok {
				v = float32(b)
			}
			buf = appendFloat32(buf, v)
		}
		buf = append(buf, '\n')
		_, err := w.Write(buf)
		return err
	})
}

func decodeSurfer6(r io.Reader, size int64) (*Grid, error) {
	var h surfer6Header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: Surfer 6 header: %v", ErrTruncated, err)
	}
	s := nodeGeometry{
		columns: int(h.NX),
		rows:    int(h.NY),
		xLo:     h.XLo,
		xHi:     h.XHi,
		yLo:     h.YLo,
		yHi:     h.YHi,
		zLo:     h.ZLo,
		zHi:     h.ZHi,
	}

	if err := checkCells(s.rows, s.columns, 4, size-int64(binary.Size(h))); err != nil {
		return nil, err
	}
	x0, y0, dx, dy, err := s.cells()
	if err != nil {
		return nil, err
	}
	samples, err := readFloats(r, binary.LittleEndian, 4, s.rows*s.columns)
	if err != nil {
		return nil, err
	}
	blankSamples(samples, float32(surferBlank))

	return New(FormatSurfer6, samples, s.rows, s.columns, x0, y0, dx, dy, float32(surferBlank))
}

func encodeSurfer6(w *bufio.Writer, g *Grid) error {
	s := nodeGeometryOf(g)
	h := surfer6Header{
		NX:  int16(s.columns),
		NY:  int16(s.rows),
		XLo: s.xLo,
		XHi: s.xHi,
		YLo: s.yLo,
		YHi: s.yHi,
		ZLo: s.zLo,
		ZHi: s.zHi,
	}
	copy(h.ID[:], surfer6Signature)
	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return err
	}
	return writeFloats(w, binary.LittleEndian, 4, g.samples, surferBlankFor(g))
}

// decodeSurfer7 walks the tagged sections of a DSRB file. Sections other
// than GRID and DATA are skipped.
func decodeSurfer7(r io.Reader, size int64) (*Grid, error) {
	var (
		sec     surfer7Section
		version uint32
		info    *surfer7Grid
		read    int64
	)

	if err := binary.Read(r, binary.LittleEndian, &sec); err != nil {
		return nil, fmt.Errorf("%w: Surfer 7 header: %v", ErrTruncated, err)
	}
	if sec.Tag != surfer7HeaderTag || sec.Size < 4 {
		return nil, fmt.Errorf("%w: Surfer 7 header section", ErrInvalidHeader)
	}
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("%w: Surfer 7 version: %v", ErrTruncated, err)
	}
	if err := skip(r, int64(sec.Size)-4); err != nil {
		return nil, err
	}
	read = 8 + int64(sec.Size)

	for {
		if err := binary.Read(r, binary.LittleEndian, &sec); err != nil {
			return nil, fmt.Errorf("%w: Surfer 7 data section not found", ErrTruncated)
		}
		read += 8
		if int64(sec.Size) > size-read {
			return nil, fmt.Errorf("%w: Surfer 7 section %#x needs %d bytes", ErrTruncated, sec.Tag, sec.Size)
		}

		switch sec.Tag {
		case surfer7GridTag:
			if sec.Size < surfer7GridSize {
				return nil, fmt.Errorf("%w: Surfer 7 grid section of %d bytes", ErrInvalidHeader, sec.Size)
			}
			info = new(surfer7Grid)
			if err := binary.Read(r, binary.LittleEndian, info); err != nil {
				return nil, fmt.Errorf("%w: Surfer 7 grid section: %v", ErrTruncated, err)
			}
			if err := skip(r, int64(sec.Size)-surfer7GridSize); err != nil {
				return nil, err
			}

		case surfer7DataTag:
			if info == nil {
				return nil, fmt.Errorf("%w: Surfer 7 data before grid section", ErrInvalidHeader)
			}
			return decodeSurfer7Data(r, info, int64(sec.Size))

		default:
			if err := skip(r, int64(sec.Size)); err != nil {
				return nil, err
			}
		}
		read += int64(sec.Size)
	}
}

func decodeSurfer7Data(r io.Reader, info *surfer7Grid, size int64) (*Grid, error) {
	if info.Rotation != 0 {
		return nil, fmt.Errorf("%w: rotated Surfer 7 grid", ErrUnsupported)
	}
	rows, columns := int(info.Rows), int(info.Columns)
	if err := checkCells(rows, columns, 8, size); err != nil {
		return nil, err
	}
	if !(info.XSize > 0) || !(info.YSize > 0) {
		return nil, fmt.Errorf("%w: node spacing %g x %g", ErrInvalidHeader, info.XSize, info.YSize)
	}

	samples, err := readFloats(r, binary.LittleEndian, 8, rows*columns)
	if err != nil {
		return nil, err
	}
	noData := float32(info.BlankValue)
	if info.BlankValue >= surferBlank {
		noData = float32(surferBlank)
		blankSamples(samples, noData)
	}

	x0 := info.XLL - info.XSize/2
	y0 := info.YLL - info.YSize/2
	return New(FormatSurfer7, samples, rows, columns, x0, y0, info.XSize, info.YSize, noData)
}

func encodeSurfer7(w *bufio.Writer, g *Grid) error {
	s := nodeGeometryOf(g)
	info := surfer7Grid{
		Rows:       int32(g.rows),
		Columns:    int32(g.columns),
		XLL:        s.xLo,
		YLL:        s.yLo,
		XSize:      g.dx,
		YSize:      g.dy,
		ZMin:       s.zLo,
		ZMax:       s.zHi,
		BlankValue: surferBlank,
	}
	dataSize := uint32(8 * g.rows * g.columns)

	parts := []any{
		surfer7Section{Tag: surfer7HeaderTag, Size: 4},
		uint32(2), // version
		surfer7Section{Tag: surfer7GridTag, Size: surfer7GridSize},
		&info,
		surfer7Section{Tag: surfer7DataTag, Size: dataSize},
	}
	for _, p := range parts {
		if err := binary.Write(w, binary.LittleEndian, p); err != nil {
			return err
		}
	}
	return writeFloats(w, binary.LittleEndian, 8, g.samples, surferBlankFor(g))
}

func skip(r io.Reader, n int64) error {
	if n <= 0 {
		return nil
	}
	if _, err := io.CopyN(io.Discard, r, n); err != nil {
		return fmt.Errorf("%w: skipping %d bytes", ErrTruncated, n)
	}
	return nil
}
