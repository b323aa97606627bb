package geogrid

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func testGrids(t *testing.T) []NamedGrid {
	t.Helper()
	west, err := New(FormatEsriASCII, make([]float32, 6), 2, 3, 0, 0, 1, 1, -9999)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	east, err := New(FormatSurfer7, make([]float32, 4), 2, 2, 20, 20, 0.5, 0.5, float32(math.NaN()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return []NamedGrid{
		{Name: "west.asc", Grid: west},
		{Name: "east.grd", Grid: east},
	}
}

func TestGrid_Footprint(t *testing.T) {
	g, err := New(FormatText, make([]float32, 8), 2, 4, 10, 20, 0.5, 1, 0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	poly := g.Footprint()
	if len(poly) != 1 {
		t.Fatalf("expected 1 ring, got %d", len(poly))
	}

	expected := orb.Ring{{10, 20}, {12, 20}, {12, 22}, {10, 22}, {10, 20}}
	if !poly[0].Equal(expected) {
		t.Errorf("expected ring %v, got %v", expected, poly[0])
	}
	if !poly[0].Closed() {
		t.Error("expected a closed ring")
	}
	if poly[0].Orientation() != orb.CCW {
		t.Error("expected a counter-clockwise ring")
	}
}

func TestGrid_Footprint_Empty(t *testing.T) {
	var g *Grid
	if poly := g.Footprint(); poly != nil {
		t.Errorf("expected nil footprint, got %v", poly)
	}
}

func TestGrid_Feature(t *testing.T) {
	grids := testGrids(t)

	f := grids[0].Grid.Feature("west.asc")
	want := map[string]interface{}{
		"name":    "west.asc",
		"format":  "esriAscii",
		"rows":    2,
		"columns": 3,
		"dx":      1.0,
		"dy":      1.0,
		"nodata":  -9999.0,
	}
	for k, v := range want {
		if f.Properties[k] != v {
			t.Errorf("property %s: expected %v, got %v", k, v, f.Properties[k])
		}
	}

	// A NaN sentinel cannot be represented in GeoJSON.
	f = grids[1].Grid.Feature("east.grd")
	if _, ok := f.Properties["nodata"]; ok {
		t.Error("expected no nodata property for a NaN sentinel")
	}
	if _, err := json.Marshal(f); err != nil {
		t.Errorf("feature does not marshal: %v", err)
	}
}

func TestFootprintCollection(t *testing.T) {
	grids := testGrids(t)
	empty, _ := New(FormatText, nil, 0, 0, 0, 0, 1, 1, 0)
	grids = append(grids, NamedGrid{Name: "empty", Grid: empty})

	fc := FootprintCollection(grids)
	if len(fc.Features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(fc.Features))
	}
	if fc.Features[1].Properties["name"] != "east.grd" {
		t.Errorf("expected features in input order, got %v", fc.Features[1].Properties["name"])
	}

	data, err := json.Marshal(fc)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	decoded, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		t.Fatalf("UnmarshalFeatureCollection failed: %v", err)
	}
	if _, ok := decoded.Features[0].Geometry.(orb.Polygon); !ok {
		t.Errorf("expected polygon geometry, got %T", decoded.Features[0].Geometry)
	}
}

func TestWriteFootprints_Magic(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFootprints(&buf, testGrids(t), nil); err != nil {
		t.Fatalf("WriteFootprints failed: %v", err)
	}

	data := buf.Bytes()
	if len(data) < 8 {
		t.Fatal("output too short")
	}
	expectedMagic := []byte{0x66, 0x67, 0x62, 0x03, 0x66, 0x67, 0x62, 0x00}
	for i, b := range expectedMagic {
		if data[i] != b {
			t.Errorf("magic byte %d: expected 0x%02x, got 0x%02x", i, b, data[i])
		}
	}
}

func TestWriteFootprints_NoGrids(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFootprints(&buf, nil, nil); err != ErrNoFootprints {
		t.Errorf("expected ErrNoFootprints, got %v", err)
	}

	empty, _ := New(FormatText, nil, 0, 0, 0, 0, 1, 1, 0)
	err := WriteFootprints(&buf, []NamedGrid{{Name: "empty", Grid: empty}}, nil)
	if err != ErrNoFootprints {
		t.Errorf("expected ErrNoFootprints for empty grids, got %v", err)
	}
}

func writeFootprintFile(t *testing.T, grids []NamedGrid, opts *Options) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "footprints.fgb")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	err = WriteFootprints(file, grids, opts)
	_ = file.Close()
	if err != nil {
		t.Fatalf("WriteFootprints failed: %v", err)
	}
	return path
}

func TestFootprints_RoundTrip(t *testing.T) {
	grids := testGrids(t)
	opts := &Options{
		Name:         "catalogue",
		Description:  "test grids",
		IncludeIndex: true,
		CRS:          WGS84(),
	}
	path := writeFootprintFile(t, grids, opts)

	reader, err := NewFootprintReader(path)
	if err != nil {
		t.Fatalf("NewFootprintReader failed: %v", err)
	}
	defer func() { _ = reader.Close() }()

	header := reader.Header()
	if header == nil {
		t.Fatal("expected non-nil header")
	}
	if header.Name != "catalogue" {
		t.Errorf("expected name 'catalogue', got %q", header.Name)
	}
	if header.FeaturesCount != 2 {
		t.Errorf("expected 2 features, got %d", header.FeaturesCount)
	}
	if !header.HasIndex {
		t.Error("expected HasIndex to be true")
	}
	if header.CRS == nil || header.CRS.Code != 4326 {
		t.Errorf("expected EPSG:4326, got %+v", header.CRS)
	}
	if len(header.Columns) != len(footprintSchema) || header.Columns[0] != "name" {
		t.Errorf("unexpected columns %v", header.Columns)
	}

	footprints, err := ReadFootprints(path)
	if err != nil {
		t.Fatalf("ReadFootprints failed: %v", err)
	}
	if len(footprints) == 0 {
		t.Fatal("expected footprints")
	}

	byName := make(map[string]*Grid, len(grids))
	for _, ng := range grids {
		byName[ng.Name] = ng.Grid
	}
	for _, fp := range footprints {
		g, ok := byName[fp.Name]
		if !ok {
			t.Errorf("unexpected footprint %q", fp.Name)
			continue
		}
		rows, columns := g.Dimensions()
		if fp.Rows != rows || fp.Columns != columns {
			t.Errorf("%s: expected %dx%d, got %dx%d", fp.Name, rows, columns, fp.Rows, fp.Columns)
		}
		if fp.Format != g.Format() {
			t.Errorf("%s: expected format %v, got %v", fp.Name, g.Format(), fp.Format)
		}
		if fp.Bound() != g.Bound() {
			t.Errorf("%s: expected bound %v, got %v", fp.Name, g.Bound(), fp.Bound())
		}
	}
}

func TestFootprints_Search(t *testing.T) {
	path := writeFootprintFile(t, testGrids(t), &Options{IncludeIndex: true})

	reader, err := NewFootprintReader(path)
	if err != nil {
		t.Fatalf("NewFootprintReader failed: %v", err)
	}
	defer func() { _ = reader.Close() }()

	results, err := reader.Search(orb.Bound{Min: orb.Point{19, 19}, Max: orb.Point{25, 25}})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	for _, fp := range results {
		if fp.Name == "west.asc" {
			t.Error("search returned a footprint outside the query")
		}
	}
}

func TestFootprints_NoIndex(t *testing.T) {
	path := writeFootprintFile(t, testGrids(t), &Options{IncludeIndex: false})

	reader, err := NewFootprintReader(path)
	if err != nil {
		t.Fatalf("NewFootprintReader failed: %v", err)
	}
	defer func() { _ = reader.Close() }()

	if reader.Header().HasIndex {
		t.Error("expected HasIndex to be false")
	}
	_, err = reader.Search(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{10, 10}})
	if err != ErrNoIndex {
		t.Errorf("expected ErrNoIndex, got %v", err)
	}
}

func TestReadFootprintsFromData_Invalid(t *testing.T) {
	if _, err := ReadFootprintsFromData([]byte("not a flatgeobuf")); err == nil {
		t.Error("expected error for invalid data")
	}
	if _, err := ReadFootprintsFromData([]byte{}); err == nil {
		t.Error("expected error for empty data")
	}
}

func TestPolygonToXYEnds(t *testing.T) {
	poly := orb.Polygon{
		{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
		{{2, 2}, {4, 2}, {4, 4}, {2, 2}},
	}
	xy, ends := polygonToXYEnds(poly)

	if len(xy) != 18 {
		t.Errorf("expected 18 coordinates, got %d", len(xy))
	}
	if len(ends) != 2 || ends[0] != 5 || ends[1] != 9 {
		t.Errorf("expected ends [5 9], got %v", ends)
	}
}

func TestPropertyValues(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		colType flattypes.ColumnType
		want    interface{}
		size    int
	}{
		{"int", 42, flattypes.ColumnTypeInt, int64(42), 4},
		{"negative int", -7, flattypes.ColumnTypeInt, int64(-7), 4},
		{"double", 0.25, flattypes.ColumnTypeDouble, 0.25, 8},
		{"string", "grid.asc", flattypes.ColumnTypeString, "grid.asc", 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			writePropertyValue(&buf, tt.value, tt.colType)
			got, n := readPropertyValue(buf.Bytes(), tt.colType)
			if n != tt.size {
				t.Errorf("expected %d bytes, got %d", tt.size, n)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	if _, n := readPropertyValue([]byte{1, 2}, flattypes.ColumnTypeDouble); n != 0 {
		t.Errorf("expected short buffer to read nothing, got %d bytes", n)
	}
}
