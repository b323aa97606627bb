package geogrid

import (
	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/paulmach/orb"
)

// polygonToFGB converts a polygon to a FlatGeobuf writer.Geometry.
func polygonToFGB(poly orb.Polygon, builder *flatbuffers.Builder) *writer.Geometry {
	g := writer.NewGeometry(builder)
	g.SetType(flattypes.GeometryTypePolygon)
	xy, ends := polygonToXYEnds(poly)
	g.SetXY(xy)
	g.SetEnds(ends)
	return g
}

func polygonToXYEnds(poly orb.Polygon) ([]float64, []uint32) {
	totalPoints := 0
	for _, ring := range poly {
		totalPoints += len(ring)
	}

	xy := make([]float64, 0, totalPoints*2)
	ends := make([]uint32, 0, len(poly))

	cumulative := uint32(0)
	for _, ring := range poly {
		for _, p := range ring {
			xy = append(xy, p[0], p[1])
		}
		cumulative += uint32(len(ring))
		ends = append(ends, cumulative)
	}
	return xy, ends
}

// polygonFromFGB reads a polygon geometry. Other geometry types yield nil.
func polygonFromFGB(geom *flattypes.Geometry) orb.Polygon {
	if geom == nil || geom.Type() != flattypes.GeometryTypePolygon {
		return nil
	}

	xyLen := geom.XyLength()
	if xyLen < 2 {
		return nil
	}

	endsLen := geom.EndsLength()
	if endsLen == 0 {
		// A single ring.
		ring := make(orb.Ring, 0, xyLen/2)
		for i := 0; i+1 < xyLen; i += 2 {
			ring = append(ring, orb.Point{geom.Xy(i), geom.Xy(i + 1)})
		}
		return orb.Polygon{ring}
	}

	poly := make(orb.Polygon, 0, endsLen)
	start := uint32(0)
	for i := 0; i < endsLen; i++ {
		end := geom.Ends(i)
		if end < start {
			break
		}
		ring := make(orb.Ring, 0, end-start)
		for j := start; j < end; j++ {
			idx := int(j) * 2
			if idx+1 < xyLen {
				ring = append(ring, orb.Point{geom.Xy(idx), geom.Xy(idx + 1)})
			}
		}
		poly = append(poly, ring)
		start = end
	}
	return poly
}
