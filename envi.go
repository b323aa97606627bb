package geogrid

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ENVI data type codes.
const (
	enviFloat32 = 4
	enviFloat64 = 5
)

// enviHeader is the subset of an ENVI .hdr file needed to read a single band
// raster.
type enviHeader struct {
	samples      int // columns
	lines        int // rows
	bands        int
	headerOffset int64
	dataType     int
	bigEndian    bool
	interleave   string
	x0, y0       float64 // lower-left corner
	dx, dy       float64
	noData       float32
}

// width returns the size in bytes of one sample.
func (h enviHeader) width() int {
	if h.dataType == enviFloat64 {
		return 8
	}
	return 4
}

func (h enviHeader) format() Format {
	if h.dataType == enviFloat64 {
		return FormatEnviDouble
	}
	return FormatEnvi
}

func (h enviHeader) byteOrder() binary.ByteOrder {
	if h.bigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// readEnviFields splits an ENVI header into lowercase keys and raw values.
// Values enclosed in braces may span several lines.
func readEnviFields(r io.Reader) (map[string]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)

	if !sc.Scan() || strings.TrimSpace(sc.Text()) != "ENVI" {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: missing ENVI signature", ErrInvalidHeader)
	}

	fields := make(map[string]string)
	for sc.Scan() {
		line := sc.Text()
		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			continue
		}
		key := strings.ToLower(strings.Join(strings.Fields(line[:eq]), " "))
		value := strings.TrimSpace(line[eq+1:])
		if strings.HasPrefix(value, "{") {
			for !strings.Contains(value, "}") && sc.Scan() {
				value += " " + strings.TrimSpace(sc.Text())
			}
			if !strings.Contains(value, "}") {
				return nil, fmt.Errorf("%w: unterminated %q", ErrInvalidHeader, key)
			}
		}
		fields[key] = value
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return fields, nil
}

// parseEnviHeader decodes the fields of an ENVI header. Unknown keys are
// ignored.
func parseEnviHeader(r io.Reader) (enviHeader, error) {
	h := enviHeader{bands: 1, dataType: enviFloat32, interleave: "bsq", dx: 1, dy: 1, noData: float32(math.NaN())}

	fields, err := readEnviFields(r)
	if err != nil {
		return h, err
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"samples", &h.samples},
		{"lines", &h.lines},
		{"bands", &h.bands},
		{"data type", &h.dataType},
	}
	for _, f := range ints {
		v, ok := fields[f.key]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return h, fmt.Errorf("%w: %s %q", ErrInvalidHeader, f.key, v)
		}
		*f.dst = n
	}
	if v, ok := fields["header offset"]; ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return h, fmt.Errorf("%w: header offset %q", ErrInvalidHeader, v)
		}
		h.headerOffset = n
	}
	if v, ok := fields["byte order"]; ok {
		h.bigEndian = v == "1"
	}
	if v, ok := fields["interleave"]; ok {
		h.interleave = strings.ToLower(v)
	}
	if v, ok := fields["data ignore value"]; ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return h, fmt.Errorf("%w: data ignore value %q", ErrInvalidHeader, v)
		}
		h.noData = float32(f)
	}

	if h.samples <= 0 || h.lines <= 0 {
		return h, fmt.Errorf("%w: samples %d lines %d", ErrInvalidHeader, h.samples, h.lines)
	}
	if h.bands != 1 {
		return h, fmt.Errorf("%w: %d bands", ErrUnsupported, h.bands)
	}
	if h.dataType != enviFloat32 && h.dataType != enviFloat64 {
		return h, fmt.Errorf("%w: data type %d", ErrUnsupported, h.dataType)
	}

	if v, ok := fields["map info"]; ok {
		if err := h.parseMapInfo(v); err != nil {
			return h, err
		}
	}
	return h, nil
}

// parseMapInfo reads {projection, refX, refY, easting, northing, dx, dy, ...}.
// The reference pixel is 1-based and (1, 1) is the upper-left corner of the
// upper-left pixel.
func (h *enviHeader) parseMapInfo(v string) error {
	v = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(v), "{"), "}")
	parts := strings.Split(v, ",")
	if len(parts) < 7 {
		return fmt.Errorf("%w: map info %q", ErrInvalidHeader, v)
	}
	var nums [6]float64
	for i := range nums {
		f, err := strconv.ParseFloat(strings.TrimSpace(parts[i+1]), 64)
		if err != nil {
			return fmt.Errorf("%w: map info %q", ErrInvalidHeader, v)
		}
		nums[i] = f
	}
	refX, refY, easting, northing, dx, dy := nums[0], nums[1], nums[2], nums[3], nums[4], nums[5]
	if !(dx > 0) || !(dy > 0) {
		return fmt.Errorf("%w: map info pixel size %g x %g", ErrInvalidHeader, dx, dy)
	}
	h.dx, h.dy = dx, dy
	h.x0 = easting - (refX-1)*dx
	h.y0 = northing - (float64(h.lines)+1-refY)*dy
	return nil
}

func (h enviHeader) write(w *bufio.Writer) error {
	fmt.Fprintln(w, "ENVI")
	fmt.Fprintln(w, "description = {geogrid raster}")
	fmt.Fprintf(w, "samples = %d\n", h.samples)
	fmt.Fprintf(w, "lines = %d\n", h.lines)
	fmt.Fprintln(w, "bands = 1")
	fmt.Fprintln(w, "header offset = 0")
	fmt.Fprintln(w, "file type = ENVI Standard")
	fmt.Fprintf(w, "data type = %d\n", h.dataType)
	fmt.Fprintln(w, "interleave = bsq")
	if h.bigEndian {
		fmt.Fprintln(w, "byte order = 1")
	} else {
		fmt.Fprintln(w, "byte order = 0")
	}
	// The reference pixel is the lower-left corner of the grid.
	fmt.Fprintf(w, "map info = {Arbitrary, 1, %d, %s, %s, %s, %s}\n",
		h.lines+1, formatFloat64(h.x0), formatFloat64(h.y0), formatFloat64(h.dx), formatFloat64(h.dy))
	fmt.Fprintf(w, "data ignore value = %s\n", appendFloat32(nil, h.noData))
	fmt.Fprintln(w, "band names = {band 1}")
	return nil
}

// isEnviHeader reports whether path exists and starts with the ENVI signature.
func isEnviHeader(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, 4)
	if _, err := io.ReadFull(f, buf); err != nil {
		return false
	}
	return string(buf) == "ENVI"
}

// enviCodec handles single band ENVI rasters stored as float32 or float64,
// north row first, with a sidecar .hdr file. Decoding accepts either sample
// width regardless of the codec's own format.
type enviCodec struct {
	format Format
}

func (enviCodec) Decode(path string) (*Grid, error) {
	hf, _, err := openFile(headerPath(path))
	if err != nil {
		return nil, err
	}
	h, err := parseEnviHeader(bufio.NewReader(hf))
	hf.Close()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", headerPath(path), err)
	}

	f, size, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := checkCells(h.lines, h.samples, int64(h.width()), size-h.headerOffset); err != nil {
		return nil, err
	}
	if _, err := f.Seek(h.headerOffset, io.SeekStart); err != nil {
		return nil, err
	}
	samples, err := readFloats(bufio.NewReader(f), h.byteOrder(), h.width(), h.lines*h.samples)
	if err != nil {
		return nil, err
	}
	flipRows(samples, h.lines, h.samples)

	return New(h.format(), samples, h.lines, h.samples, h.x0, h.y0, h.dx, h.dy, h.noData)
}

func (c enviCodec) Encode(g *Grid, path string) error {
	if g.IsEmpty() {
		return ErrEmptyGrid
	}
	h := enviHeader{
		samples:  g.columns,
		lines:    g.rows,
		bands:    1,
		dataType: enviFloat32,
		x0:       g.x0,
		y0:       g.y0,
		dx:       g.dx,
		dy:       g.dy,
		noData:   g.noData,
	}
	if c.format == FormatEnviDouble {
		h.dataType = enviFloat64
	}

	err := writeFile(headerPath(path), func(w *bufio.Writer) error {
		return h.write(w)
	})
	if err != nil {
		return err
	}
	return writeFile(path, func(w *bufio.Writer) error {
		return rowsInOrder(g, true, func(row []float32) error {
			return writeFloats(w, h.byteOrder(), h.width(), row, nil)
		})
	})
}
