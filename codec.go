package geogrid

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
)

// Codec reads and writes one family of grid layouts.
type Codec interface {
	// Decode reads the grid stored at path.
	Decode(path string) (*Grid, error)

	// Encode writes g to path, replacing any existing file.
	// Encoding an empty grid fails with ErrEmptyGrid and creates no file.
	Encode(g *Grid, path string) error
}

// codecs maps every format to its codec. The table is never modified.
var codecs = map[Format]Codec{
	FormatEsriASCII:   esriASCIICodec{},
	FormatEsriFloat:   esriFloatCodec{},
	FormatEnvi:        enviCodec{format: FormatEnvi},
	FormatEnviDouble:  enviCodec{format: FormatEnviDouble},
	FormatSurferASCII: surferCodec{format: FormatSurferASCII},
	FormatSurfer6:     surferCodec{format: FormatSurfer6},
	FormatSurfer7:     surferCodec{format: FormatSurfer7},
	FormatText:        textCodec{format: FormatText},
	FormatTextReverse: textCodec{format: FormatTextReverse},
	FormatNetCDF:      netcdfCodec{},
}

// CodecFor returns the codec handling f.
func CodecFor(f Format) (Codec, error) {
	c, ok := codecs[f]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, f)
	}
	return c, nil
}

// LoadGrid reads a grid, inferring its format from the file extension.
func LoadGrid(path string) (*Grid, error) {
	return LoadGridFormat(path, FormatUnknown)
}

// LoadGridFormat reads a grid stored in format f. FormatUnknown infers the
// format from the file extension.
func LoadGridFormat(path string, f Format) (*Grid, error) {
	if f == FormatUnknown {
		f = FormatFromPath(path)
	}
	c, err := CodecFor(f)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	g, err := c.Decode(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return g, nil
}

// SaveGrid writes g to path in format f. When f is FormatUnknown the grid's
// own format is used, and failing that the format implied by the extension.
func SaveGrid(g *Grid, path string, f Format) error {
	if f == FormatUnknown {
		f = g.Format()
	}
	if f == FormatUnknown {
		f = FormatFromPath(path)
	}
	c, err := CodecFor(f)
	if err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	if err := c.Encode(g, path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// writeFile creates path and hands a buffered writer to write. The file is
// flushed and closed on every path; a failed close is reported.
func writeFile(path string, write func(w *bufio.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := bufio.NewWriterSize(f, 1<<16)
	if err := write(w); err != nil {
		return err
	}
	return w.Flush()
}

// openFile opens path for reading and returns its size.
func openFile(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}

// maxCells bounds the number of samples a decoded header may announce.
const maxCells = 1 << 31

// checkCells validates announced dimensions against the bytes available, so
// that a corrupt header cannot trigger a huge allocation.
func checkCells(rows, columns int, bytesPerCell, available int64) error {
	if rows <= 0 || columns <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, rows, columns)
	}
	cells := int64(rows) * int64(columns)
	if int64(rows) > maxCells || int64(columns) > maxCells || cells > maxCells {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, rows, columns)
	}
	if cells*bytesPerCell > available {
		return fmt.Errorf("%w: %dx%d grid needs %d bytes, %d available",
			ErrTruncated, rows, columns, cells*bytesPerCell, available)
	}
	return nil
}

// readFloats reads n samples of the given width (4 or 8 bytes) from r and
// narrows them to float32.
func readFloats(r io.Reader, order binary.ByteOrder, width, n int) ([]float32, error) {
	buf := make([]byte, width*n)
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w: payload", ErrTruncated)
		}
		return nil, err
	}

	samples := make([]float32, n)
	switch width {
	case 4:
		for i := range samples {
			samples[i] = math.Float32frombits(order.Uint32(buf[i*4:]))
		}
	case 8:
		for i := range samples {
			samples[i] = float32(math.Float64frombits(order.Uint64(buf[i*8:])))
		}
	default:
		return nil, fmt.Errorf("%w: %d byte samples", ErrUnsupported, width)
	}
	return samples, nil
}

// writeFloats writes samples with the given width (4 or 8 bytes). Samples for
// which blank reports true are written as the returned value instead.
func writeFloats(w io.Writer, order binary.ByteOrder, width int, samples []float32, blank func(float32) (float64, bool)) error {
	buf := make([]byte, width*len(samples))
	for i, v := range samples {
		f := float64(v)
		if blank != nil {
			if b, ok := blank(v); ok {
				f = b
			}
		}
		switch width {
		case 4:
			order.PutUint32(buf[i*4:], math.Float32bits(float32(f)))
		case 8:
			order.PutUint64(buf[i*8:], math.Float64bits(f))
		default:
			return fmt.Errorf("%w: %d byte samples", ErrUnsupported, width)
		}
	}
	_, err := w.Write(buf)
	return err
}

// flipRows reverses the row order of a row-major buffer in place.
func flipRows(samples []float32, rows, columns int) {
	for top, bottom := 0, rows-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := samples[top*columns : (top+1)*columns]
		b := samples[bottom*columns : (bottom+1)*columns]
		for j := range a {
			a[j], b[j] = b[j], a[j]
		}
	}
}

// rowsInOrder calls fn for every row of g, last row first when reverse is set.
func rowsInOrder(g *Grid, reverse bool, fn func(row []float32) error) error {
	for k := 0; k < g.rows; k++ {
		i := k
		if reverse {
			i = g.rows - 1 - k
		}
		if err := fn(g.row(i)); err != nil {
			return err
		}
	}
	return nil
}

// appendFloat32 appends the shortest text form of v that parses back to the
// same float32.
func appendFloat32(b []byte, v float32) []byte {
	return strconv.AppendFloat(b, float64(v), 'g', -1, 32)
}

// formatFloat64 formats v so that it parses back to the same float64.
func formatFloat64(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
