package geogrid

import (
	"fmt"
	"math"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"
)

// Variable names tried, in order, when reading a NetCDF grid.
var (
	netcdfXNames = []string{"x", "lon", "longitude"}
	netcdfYNames = []string{"y", "lat", "latitude"}
	netcdfZNames = []string{"z", "elevation", "Band1"}
)

// netcdfCodec handles GMT/COARDS NetCDF grids: 1-D coordinate variables x
// and y holding cell centres, and a 2-D variable z(y, x). Rows are stored
// with y ascending, matching the in-memory order; files with descending y
// are flipped on read.
type netcdfCodec struct{}

func (netcdfCodec) Decode(path string) (*Grid, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer nc.Close()

	xs, err := netcdfCoordinate(nc, netcdfXNames)
	if err != nil {
		return nil, err
	}
	ys, err := netcdfCoordinate(nc, netcdfYNames)
	if err != nil {
		return nil, err
	}
	zv, err := netcdfVariable(nc, netcdfZNames)
	if err != nil {
		return nil, err
	}

	rows, columns := len(ys), len(xs)
	if rows == 0 || columns == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, rows, columns)
	}
	samples, err := netcdfSamples(zv.Values, rows, columns)
	if err != nil {
		return nil, err
	}

	ascending := rows == 1 || ys[rows-1] > ys[0]
	if !ascending {
		flipRows(samples, rows, columns)
		for i, j := 0, rows-1; i < j; i, j = i+1, j-1 {
			ys[i], ys[j] = ys[j], ys[i]
		}
	}

	nodes := nodeGeometry{
		columns: columns,
		rows:    rows,
		xLo:     xs[0],
		xHi:     xs[columns-1],
		yLo:     ys[0],
		yHi:     ys[rows-1],
	}
	x0, y0, dx, dy, err := nodes.cells()
	if err != nil {
		return nil, err
	}

	noData := float32(math.NaN())
	if zv.Attributes != nil {
		if v, ok := zv.Attributes.Get("_FillValue"); ok {
			if f, ok := netcdfScalar(v); ok {
				noData = float32(f)
			}
		}
	}
	return New(FormatNetCDF, samples, rows, columns, x0, y0, dx, dy, noData)
}

func (netcdfCodec) Encode(g *Grid, path string) (err error) {
	if g.IsEmpty() {
		return ErrEmptyGrid
	}

	xs := make([]float64, g.columns)
	for j := range xs {
		xs[j] = g.x0 + (float64(j)+0.5)*g.dx
	}
	ys := make([]float64, g.rows)
	for i := range ys {
		ys[i] = g.y0 + (float64(i)+0.5)*g.dy
	}
	zs := make([][]float32, g.rows)
	for i := range zs {
		zs[i] = g.row(i)
	}

	xAttrs, err := util.NewOrderedMap([]string{"long_name"}, map[string]interface{}{"long_name": "x"})
	if err != nil {
		return err
	}
	yAttrs, err := util.NewOrderedMap([]string{"long_name"}, map[string]interface{}{"long_name": "y"})
	if err != nil {
		return err
	}
	zAttrs, err := util.NewOrderedMap(
		[]string{"long_name", "_FillValue"},
		map[string]interface{}{"long_name": "z", "_FillValue": g.noData})
	if err != nil {
		return err
	}

	cw, err := cdf.OpenWriter(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := cw.Close(); err == nil {
			err = cerr
		}
	}()

	vars := []struct {
		name string
		v    api.Variable
	}{
		{"x", api.Variable{Values: xs, Dimensions: []string{"x"}, Attributes: xAttrs}},
		{"y", api.Variable{Values: ys, Dimensions: []string{"y"}, Attributes: yAttrs}},
		{"z", api.Variable{Values: zs, Dimensions: []string{"y", "x"}, Attributes: zAttrs}},
	}
	for _, v := range vars {
		if err := cw.AddVar(v.name, v.v); err != nil {
			return fmt.Errorf("netcdf variable %s: %w", v.name, err)
		}
	}
	return nil
}

// netcdfCoordinate reads the first of names that exists as a 1-D variable.
func netcdfCoordinate(nc api.Group, names []string) ([]float64, error) {
	for _, name := range names {
		vg, err := nc.GetVarGetter(name)
		if err != nil {
			continue
		}
		v, err := vg.Values()
		if err != nil {
			return nil, fmt.Errorf("netcdf variable %s: %w", name, err)
		}
		switch vals := v.(type) {
		case []float64:
			return vals, nil
		case []float32:
			out := make([]float64, len(vals))
			for i, f := range vals {
				out[i] = float64(f)
			}
			return out, nil
		default:
			return nil, fmt.Errorf("%w: netcdf variable %s of type %T", ErrUnsupported, name, v)
		}
	}
	return nil, fmt.Errorf("%w: none of %v found", ErrInvalidHeader, names)
}

func netcdfVariable(nc api.Group, names []string) (*api.Variable, error) {
	for _, name := range names {
		if v, err := nc.GetVariable(name); err == nil {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: none of %v found", ErrInvalidHeader, names)
}

// netcdfSamples flattens a 2-D float variable into a row-major buffer.
func netcdfSamples(values interface{}, rows, columns int) ([]float32, error) {
	samples := make([]float32, 0, rows*columns)
	switch vals := values.(type) {
	case [][]float32:
		if len(vals) != rows {
			return nil, fmt.Errorf("%w: z has %d rows, y has %d", ErrInvalidDimensions, len(vals), rows)
		}
		for _, row := range vals {
			if len(row) != columns {
				return nil, fmt.Errorf("%w: z row of %d values, x has %d", ErrInvalidDimensions, len(row), columns)
			}
			samples = append(samples, row...)
		}
	case [][]float64:
		if len(vals) != rows {
			return nil, fmt.Errorf("%w: z has %d rows, y has %d", ErrInvalidDimensions, len(vals), rows)
		}
		for _, row := range vals {
			if len(row) != columns {
				return nil, fmt.Errorf("%w: z row of %d values, x has %d", ErrInvalidDimensions, len(row), columns)
			}
			for _, v := range row {
				samples = append(samples, float32(v))
			}
		}
	default:
		return nil, fmt.Errorf("%w: netcdf z of type %T", ErrUnsupported, values)
	}
	return samples, nil
}

// netcdfScalar extracts a number from an attribute value, which may be a
// scalar or a one element slice.
func netcdfScalar(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case []float32:
		if len(val) > 0 {
			return float64(val[0]), true
		}
	case []float64:
		if len(val) > 0 {
			return val[0], true
		}
	}
	return 0, false
}
