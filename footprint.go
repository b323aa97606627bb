package geogrid

import (
	"io"
	"math"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// NamedGrid pairs a grid with the name its footprint is catalogued under,
// typically the file it was loaded from.
type NamedGrid struct {
	Name string
	Grid *Grid
}

// Footprint is the catalogue entry of one grid: its extents rectangle and
// the metadata needed to identify it without loading the samples.
type Footprint struct {
	Name    string
	Format  Format
	Rows    int
	Columns int
	DX, DY  float64
	NoData  float64
	Polygon orb.Polygon
}

// Bound returns the extents of the footprint polygon.
func (f Footprint) Bound() orb.Bound {
	return f.Polygon.Bound()
}

// Footprint returns the grid extents as a closed, counter-clockwise
// rectangle. Empty grids have no footprint.
func (g *Grid) Footprint() orb.Polygon {
	if g.IsEmpty() {
		return nil
	}
	return boundToPolygon(g.Bound())
}

// Feature returns the footprint as a GeoJSON feature carrying the grid
// metadata as properties.
func (g *Grid) Feature(name string) *geojson.Feature {
	f := geojson.NewFeature(g.Footprint())
	rows, columns := g.Dimensions()
	dx, dy := g.CellSize()
	f.Properties = geojson.Properties{
		propName:    name,
		propFormat:  g.Format().String(),
		propRows:    rows,
		propColumns: columns,
		propDX:      dx,
		propDY:      dy,
	}
	// GeoJSON has no NaN; a NaN sentinel is left out.
	if nd := g.NoData(); !isNaN32(nd) {
		f.Properties[propNoData] = float64(nd)
	}
	return f
}

// FootprintCollection returns the footprints of the non-empty grids as a
// GeoJSON feature collection, in input order.
func FootprintCollection(grids []NamedGrid) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, ng := range grids {
		if ng.Grid.IsEmpty() {
			continue
		}
		fc.Append(ng.Grid.Feature(ng.Name))
	}
	return fc
}

// WriteFootprints writes the footprints of the non-empty grids as a
// FlatGeobuf polygon layer with a fixed column schema.
func WriteFootprints(w io.Writer, grids []NamedGrid, opts *Options) error {
	if opts == nil {
		opts = DefaultOptions()
	}

	entries := make([]NamedGrid, 0, len(grids))
	for _, ng := range grids {
		if !ng.Grid.IsEmpty() {
			entries = append(entries, ng)
		}
	}
	if len(entries) == 0 {
		return ErrNoFootprints
	}

	builder := flatbuffers.NewBuilder(4096)

	header := writer.NewHeader(builder)
	header.SetGeometryType(flattypes.GeometryTypePolygon)
	if opts.Name != "" {
		header.SetName(opts.Name)
	}
	if opts.Description != "" {
		header.SetDescription(opts.Description)
	}
	header.SetColumns(footprintColumns(builder))

	if opts.CRS != nil {
		crs := writer.NewCrs(builder)
		crs.SetOrg("EPSG")
		if opts.CRS.Code > 0 {
			crs.SetCode(int32(opts.CRS.Code))
		}
		if opts.CRS.Name != "" {
			crs.SetName(opts.CRS.Name)
		}
		switch {
		case opts.CRS.Description != "":
			crs.SetDescription(opts.CRS.Description)
		case opts.CRS.WKT != "":
			crs.SetDescription(opts.CRS.WKT)
		}
		header.SetCrs(crs)
	}

	gen := &footprintGenerator{grids: entries}
	fgbWriter := writer.NewWriter(header, opts.IncludeIndex, gen, nil)
	_, err := fgbWriter.Write(w)
	return err
}

// footprintGenerator feeds one feature per grid to the FlatGeobuf writer.
type footprintGenerator struct {
	grids []NamedGrid
	index int
}

func (g *footprintGenerator) Generate() *writer.Feature {
	if g.index >= len(g.grids) {
		return nil
	}
	ng := g.grids[g.index]
	g.index++

	builder := flatbuffers.NewBuilder(1024)
	feature := writer.NewFeature(builder)
	feature.SetGeometry(polygonToFGB(ng.Grid.Footprint(), builder))
	feature.SetProperties(encodeFootprintProperties(ng))
	return feature
}

func boundToPolygon(b orb.Bound) orb.Polygon {
	return orb.Polygon{
		orb.Ring{
			{b.Min[0], b.Min[1]},
			{b.Max[0], b.Min[1]},
			{b.Max[0], b.Max[1]},
			{b.Min[0], b.Max[1]},
			{b.Min[0], b.Min[1]},
		},
	}
}

// noDataProperty converts a no-data sentinel for a double column.
func noDataProperty(g *Grid) float64 {
	nd := g.NoData()
	if isNaN32(nd) {
		return math.NaN()
	}
	return float64(nd)
}
