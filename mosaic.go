package geogrid

import (
	"fmt"
	"math"
	"strings"
)

// Edge names the side of a mosaic occupied by its first grid.
type Edge int

// Mosaic edges.
const (
	EdgeLeft Edge = iota
	EdgeRight
	EdgeTop
	EdgeBottom
)

var edgeNames = [...]string{"left", "right", "top", "bottom"}

func (e Edge) String() string {
	if e < 0 || int(e) >= len(edgeNames) {
		return fmt.Sprintf("Edge(%d)", int(e))
	}
	return edgeNames[e]
}

// ParseEdge resolves a case-insensitive edge name.
func ParseEdge(name string) (Edge, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range edgeNames {
		if n == name {
			return Edge(i), nil
		}
	}
	return 0, fmt.Errorf("geogrid: unknown edge %q", name)
}

// resolutionTolerance is the relative difference under which two cell sizes
// are considered equal.
const resolutionTolerance = 1e-9

func sameResolution(a, b float64) bool {
	return math.Abs(a-b) <= resolutionTolerance*math.Max(math.Abs(a), math.Abs(b))
}

// Mosaic joins a and b into a new grid. The edge names the side of the
// result that a occupies: with EdgeLeft, columns [0, a.columns) come from a
// and the remaining columns from b.
//
// Both grids must share dx and dy. Left and right joins also need the same
// rows, top and bottom joins the same columns. On failure Mosaic returns a
// nil grid and an error wrapping ErrMismatch or ErrEmptyGrid; the inputs are
// never modified.
//
// The result keeps the format and no-data value of a. Samples are copied
// verbatim, except that absent samples of b are rewritten to a's no-data
// value.
func Mosaic(edge Edge, a, b *Grid) (*Grid, error) {
	if a.IsEmpty() || b.IsEmpty() {
		return nil, fmt.Errorf("mosaic %s: %w", edge, ErrEmptyGrid)
	}

	switch edge {
	case EdgeLeft:
		return joinColumns(a, b, a, a)
	case EdgeRight:
		return joinColumns(b, a, a, b)
	case EdgeTop:
		return joinRows(b, a, a, b)
	case EdgeBottom:
		return joinRows(a, b, a, a)
	default:
		return nil, fmt.Errorf("mosaic: unknown edge %d", int(edge))
	}
}

// MosaicLeft places a on the left of b.
func MosaicLeft(a, b *Grid) (*Grid, error) { return Mosaic(EdgeLeft, a, b) }

// MosaicRight places a on the right of b.
func MosaicRight(a, b *Grid) (*Grid, error) { return Mosaic(EdgeRight, a, b) }

// MosaicTop places a above (north of) b.
func MosaicTop(a, b *Grid) (*Grid, error) { return Mosaic(EdgeTop, a, b) }

// MosaicBottom places a below (south of) b.
func MosaicBottom(a, b *Grid) (*Grid, error) { return Mosaic(EdgeBottom, a, b) }

// joinColumns places west then east side by side. Metadata comes from ref,
// except the X origin which comes from origin.
func joinColumns(west, east, ref, origin *Grid) (*Grid, error) {
	if west.rows != east.rows {
		return nil, fmt.Errorf("%w: %d rows vs %d rows", ErrMismatch, west.rows, east.rows)
	}
	if err := checkResolution(west, east); err != nil {
		return nil, err
	}

	rows, columns := west.rows, west.columns+east.columns
	samples := make([]float32, 0, rows*columns)
	for i := 0; i < rows; i++ {
		samples = appendRelabelled(samples, west.row(i), west, ref)
		samples = appendRelabelled(samples, east.row(i), east, ref)
	}
	return New(ref.format, samples, rows, columns, origin.x0, ref.y0, ref.dx, ref.dy, ref.noData)
}

// joinRows stacks south below north. Metadata comes from ref, except the Y
// origin which comes from origin.
func joinRows(south, north, ref, origin *Grid) (*Grid, error) {
	if south.columns != north.columns {
		return nil, fmt.Errorf("%w: %d columns vs %d columns", ErrMismatch, south.columns, north.columns)
	}
	if err := checkResolution(south, north); err != nil {
		return nil, err
	}

	rows, columns := south.rows+north.rows, south.columns
	samples := make([]float32, 0, rows*columns)
	samples = appendRelabelled(samples, south.samples, south, ref)
	samples = appendRelabelled(samples, north.samples, north, ref)
	return New(ref.format, samples, rows, columns, ref.x0, origin.y0, ref.dx, ref.dy, ref.noData)
}

// checkResolution fails unless both grids have the same cell size.
func checkResolution(a, b *Grid) error {
	if !sameResolution(a.dx, b.dx) || !sameResolution(a.dy, b.dy) {
		return fmt.Errorf("%w: cell size %g x %g vs %g x %g", ErrMismatch, a.dx, a.dy, b.dx, b.dy)
	}
	return nil
}

// appendRelabelled appends src, a run of samples of from, rewriting its
// absent samples to the no-data value of to.
func appendRelabelled(dst, src []float32, from, to *Grid) []float32 {
	if from == to || sameNoData(from.noData, to.noData) {
		return append(dst, src...)
	}
	for _, v := range src {
		if from.IsNoData(v) {
			v = to.noData
		}
		dst = append(dst, v)
	}
	return dst
}

func sameNoData(a, b float32) bool {
	return a == b || (isNaN32(a) && isNaN32(b))
}
