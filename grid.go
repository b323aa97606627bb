package geogrid

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Grid is a dense raster of float32 samples geo-referenced by the lower-left
// corner (x0, y0) and a cell size (dx, dy).
//
// Samples are stored row-major: the sample at row i, column j lives at
// index i*columns + j. Row 0 is the southern row, its lower edge lies on y0,
// and increasing row indices move north. Column 0 starts at x0 and increasing
// column indices move east.
//
// A Grid is read-only by convention. Codecs and the mosaic engine always build
// new grids instead of modifying existing ones.
type Grid struct {
	samples []float32
	rows    int
	columns int
	x0, y0  float64
	dx, dy  float64
	noData  float32
	format  Format
}

// New creates a grid from a sample buffer. Ownership of samples passes to the
// returned grid; callers must not modify the slice afterwards.
//
// A grid with zero rows or columns is valid and empty. Non-empty grids must
// carry exactly rows*columns samples and strictly positive cell sizes.
func New(format Format, samples []float32, rows, columns int, x0, y0, dx, dy float64, noData float32) (*Grid, error) {
	if rows < 0 || columns < 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, rows, columns)
	}
	if rows == 0 || columns == 0 {
		if len(samples) != 0 {
			return nil, fmt.Errorf("%w: %d samples for an empty grid", ErrInvalidDimensions, len(samples))
		}
		return &Grid{x0: x0, y0: y0, dx: dx, dy: dy, noData: noData, format: format}, nil
	}
	if len(samples) != rows*columns {
		return nil, fmt.Errorf("%w: %d samples for %dx%d grid", ErrInvalidDimensions, len(samples), rows, columns)
	}
	if !(dx > 0) || !(dy > 0) || math.IsInf(dx, 0) || math.IsInf(dy, 0) {
		return nil, fmt.Errorf("%w: cell size %g x %g", ErrInvalidDimensions, dx, dy)
	}

	return &Grid{
		samples: samples,
		rows:    rows,
		columns: columns,
		x0:      x0,
		y0:      y0,
		dx:      dx,
		dy:      dy,
		noData:  noData,
		format:  format,
	}, nil
}

// IsEmpty reports whether the grid holds no samples. A nil grid is empty.
func (g *Grid) IsEmpty() bool {
	return g == nil || g.rows == 0 || g.columns == 0
}

// Dimensions returns the number of rows and columns.
func (g *Grid) Dimensions() (rows, columns int) {
	if g == nil {
		return 0, 0
	}
	return g.rows, g.columns
}

// Extents returns the bounding box covered by the grid cells.
// All values are zero for an empty grid.
func (g *Grid) Extents() (xMin, yMin, xMax, yMax float64) {
	if g.IsEmpty() {
		return 0, 0, 0, 0
	}
	return g.x0, g.y0, g.x0 + g.dx*float64(g.columns), g.y0 + g.dy*float64(g.rows)
}

// Bound returns the grid extents as an orb.Bound.
func (g *Grid) Bound() orb.Bound {
	xMin, yMin, xMax, yMax := g.Extents()
	return orb.Bound{Min: orb.Point{xMin, yMin}, Max: orb.Point{xMax, yMax}}
}

// Origin returns the lower-left corner of the grid.
func (g *Grid) Origin() (x0, y0 float64) {
	if g == nil {
		return 0, 0
	}
	return g.x0, g.y0
}

// CellSize returns the cell size along X and Y.
func (g *Grid) CellSize() (dx, dy float64) {
	if g == nil {
		return 0, 0
	}
	return g.dx, g.dy
}

// NoData returns the sentinel marking absent samples. It may be NaN.
func (g *Grid) NoData() float32 {
	if g == nil {
		return float32(math.NaN())
	}
	return g.noData
}

// Format returns the on-disk format the grid was read from or targets.
func (g *Grid) Format() Format {
	if g == nil {
		return FormatUnknown
	}
	return g.format
}

// Samples returns the row-major sample buffer. The slice is shared with the
// grid and must be treated as read-only.
func (g *Grid) Samples() []float32 {
	if g == nil {
		return nil
	}
	return g.samples
}

// At returns the sample at row i, column j. It panics if the position is
// outside the grid, like slice indexing does.
func (g *Grid) At(i, j int) float32 {
	if !g.contains(i, j) {
		panic(fmt.Sprintf("geogrid: position (%d, %d) out of range", i, j))
	}
	return g.samples[i*g.columns+j]
}

// Value returns the sample at row i, column j and whether the position is
// inside the grid.
func (g *Grid) Value(i, j int) (float32, bool) {
	if !g.contains(i, j) {
		return 0, false
	}
	return g.samples[i*g.columns+j], true
}

// IsNoData reports whether v marks an absent sample in this grid. NaN is
// always treated as absent.
func (g *Grid) IsNoData(v float32) bool {
	if isNaN32(v) {
		return true
	}
	return g != nil && v == g.noData
}

// Position maps a geographic coordinate to the cell containing it.
// Indices are not clamped: coordinates outside the extents produce indices
// outside [0, rows) x [0, columns). An empty grid always yields (0, 0).
func (g *Grid) Position(lon, lat float64) (row, col int) {
	if g.IsEmpty() {
		return 0, 0
	}
	row = int(math.Floor((lat - g.y0) / g.dy))
	col = int(math.Floor((lon - g.x0) / g.dx))
	return row, col
}

// PositionOf is Position for an orb.Point holding (lon, lat).
func (g *Grid) PositionOf(p orb.Point) (row, col int) {
	return g.Position(p.Lon(), p.Lat())
}

// EqualDimensions reports whether both grids have the same rows and columns.
// Geo-referencing is not compared.
func (g *Grid) EqualDimensions(other *Grid) bool {
	r1, c1 := g.Dimensions()
	r2, c2 := other.Dimensions()
	return r1 == r2 && c1 == c2
}

// Same reports whether the samples at (i, j) differ by at most threshold.
// Two absent samples are the same; an absent and a present sample are not.
func (g *Grid) Same(other *Grid, i, j int, threshold float32) bool {
	a, b, ok := g.pair(other, i, j)
	if !ok {
		return false
	}
	if done, equal := g.compareNoData(other, a, b); done {
		return equal
	}
	return abs32(a-b) <= threshold
}

// EqualsAt reports whether the samples at (i, j) are within rpe percent of
// each other, relative to the larger magnitude of the two.
// Two absent samples are equal; an absent and a present sample are not.
func (g *Grid) EqualsAt(other *Grid, i, j int, rpe float32) bool {
	a, b, ok := g.pair(other, i, j)
	if !ok {
		return false
	}
	if done, equal := g.compareNoData(other, a, b); done {
		return equal
	}
	if a == b {
		return true
	}
	ref := math.Max(math.Abs(float64(a)), math.Abs(float64(b)))
	return math.Abs(float64(a)-float64(b)) <= float64(rpe)/100*ref
}

func (g *Grid) pair(other *Grid, i, j int) (a, b float32, ok bool) {
	if !g.EqualDimensions(other) || !g.contains(i, j) {
		return 0, 0, false
	}
	k := i*g.columns + j
	return g.samples[k], other.samples[k], true
}

func (g *Grid) compareNoData(other *Grid, a, b float32) (done, equal bool) {
	na, nb := g.IsNoData(a), other.IsNoData(b)
	if na || nb {
		return true, na && nb
	}
	return false, false
}

func (g *Grid) contains(i, j int) bool {
	return g != nil && i >= 0 && j >= 0 && i < g.rows && j < g.columns
}

// row returns the samples of row i.
func (g *Grid) row(i int) []float32 {
	return g.samples[i*g.columns : (i+1)*g.columns]
}

func abs32(v float32) float32 {
	return float32(math.Abs(float64(v)))
}

func isNaN32(v float32) bool {
	return v != v
}
