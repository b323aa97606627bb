package geogrid

import (
	"math"

	flatgeobuf "github.com/flatgeobuf/flatgeobuf/src/go"
	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/paulmach/orb"
)

// FootprintReader provides read access to a footprint layer written by
// WriteFootprints, or any FlatGeobuf polygon layer with compatible columns.
type FootprintReader struct {
	fgb *flatgeobuf.FlatGeoBuf
}

// NewFootprintReader opens a FlatGeobuf file. The file is memory-mapped.
func NewFootprintReader(path string) (*FootprintReader, error) {
	fgb, err := flatgeobuf.New(path)
	if err != nil {
		return nil, err
	}
	return &FootprintReader{fgb: fgb}, nil
}

// NewFootprintReaderFromData creates a reader from the bytes of a FlatGeobuf
// file.
func NewFootprintReaderFromData(data []byte) (*FootprintReader, error) {
	fgb, err := flatgeobuf.NewWithData(data)
	if err != nil {
		return nil, err
	}
	return &FootprintReader{fgb: fgb}, nil
}

// ReadFootprints reads every footprint of the layer at path.
func ReadFootprints(path string) ([]Footprint, error) {
	r, err := NewFootprintReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.ReadAll()
}

// ReadFootprintsFromData reads every footprint of an in-memory layer.
func ReadFootprintsFromData(data []byte) ([]Footprint, error) {
	r, err := NewFootprintReaderFromData(data)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.ReadAll()
}

// Header returns the layer metadata.
func (r *FootprintReader) Header() *Header {
	h := r.fgb.Header()
	if h == nil {
		return nil
	}

	header := &Header{
		Name:          string(h.Name()),
		Description:   string(h.Description()),
		FeaturesCount: h.FeaturesCount(),
		HasIndex:      h.IndexNodeSize() > 0,
	}
	if h.EnvelopeLength() >= 4 {
		header.Envelope = [4]float64{h.Envelope(0), h.Envelope(1), h.Envelope(2), h.Envelope(3)}
	}

	var crs flattypes.Crs
	if h.Crs(&crs) != nil {
		header.CRS = &CRS{
			Code:        int(crs.Code()),
			Name:        string(crs.Name()),
			Description: string(crs.Description()),
		}
	}

	for i := 0; i < h.ColumnsLength(); i++ {
		var col flattypes.Column
		if h.Columns(&col, i) {
			header.Columns = append(header.Columns, string(col.Name()))
		}
	}
	return header
}

// ReadAll returns every footprint of the layer. Features can only be
// enumerated through the spatial index, so layers written without one fail
// with ErrNoIndex unless they are empty.
func (r *FootprintReader) ReadAll() ([]Footprint, error) {
	h := r.fgb.Header()
	if h.FeaturesCount() == 0 {
		return nil, nil
	}

	bound := orb.Bound{
		Min: orb.Point{-math.MaxFloat64, -math.MaxFloat64},
		Max: orb.Point{math.MaxFloat64, math.MaxFloat64},
	}
	if h.EnvelopeLength() >= 4 {
		bound = orb.Bound{
			Min: orb.Point{h.Envelope(0), h.Envelope(1)},
			Max: orb.Point{h.Envelope(2), h.Envelope(3)},
		}
	}
	return r.Search(bound)
}

// Search returns the footprints whose bounding boxes intersect bound.
func (r *FootprintReader) Search(bound orb.Bound) ([]Footprint, error) {
	h := r.fgb.Header()
	if h.IndexNodeSize() == 0 {
		return nil, ErrNoIndex
	}

	features, err := r.fgb.Search(bound.Min[0], bound.Min[1], bound.Max[0], bound.Max[1])
	if err != nil {
		return nil, err
	}

	footprints := make([]Footprint, 0, len(features))
	for _, feature := range features {
		if fp, ok := convertFootprint(feature, h); ok {
			footprints = append(footprints, fp)
		}
	}
	return footprints, nil
}

// Close releases the reader. The memory map is reclaimed by the garbage
// collector once the reader is unreachable.
func (r *FootprintReader) Close() error {
	r.fgb = nil
	return nil
}

func convertFootprint(feature *flattypes.Feature, header *flattypes.Header) (Footprint, bool) {
	if feature == nil {
		return Footprint{}, false
	}

	var geom flattypes.Geometry
	poly := polygonFromFGB(feature.Geometry(&geom))
	if poly == nil {
		return Footprint{}, false
	}
	fp := Footprint{Polygon: poly, NoData: math.NaN()}

	if n := feature.PropertiesLength(); n > 0 && header.ColumnsLength() > 0 {
		props := make([]byte, n)
		for i := range props {
			props[i] = byte(feature.Properties(i))
		}
		decodeFootprintProperties(&fp, props, header)
	}
	return fp, true
}
