// Package geogrid provides an in-memory geo-referenced raster grid and codecs
// for the interchange formats used by GIS tooling: ESRI ASCII and binary
// float, ENVI, Surfer ASCII/6/7, GMT NetCDF and headerless text.
// Grids can be compared cell by cell, stitched together along an edge and
// catalogued as FlatGeobuf or GeoJSON footprints.
package geogrid

import (
	"errors"
)

// Common errors returned by this package.
var (
	ErrEmptyGrid         = errors.New("geogrid: empty grid")
	ErrUnknownFormat     = errors.New("geogrid: unknown grid format")
	ErrInvalidHeader     = errors.New("geogrid: invalid header")
	ErrInvalidDimensions = errors.New("geogrid: invalid dimensions")
	ErrTruncated         = errors.New("geogrid: truncated data")
	ErrMismatch          = errors.New("geogrid: grids are not compatible")
	ErrUnsupported       = errors.New("geogrid: unsupported feature")
	ErrNoFootprints      = errors.New("geogrid: no footprints to write")
	ErrNoIndex           = errors.New("geogrid: footprint file has no spatial index")
)

// DefaultRPE is the relative percent error used by grid comparisons when the
// caller has no better tolerance.
const DefaultRPE float32 = 1.0

// CRS represents a coordinate reference system.
type CRS struct {
	Code        int    // EPSG code (e.g., 4326 for WGS84)
	Name        string // CRS name
	Description string // CRS description
	WKT         string // Well-Known Text representation
}

// WGS84 returns the standard WGS84 CRS (EPSG:4326).
func WGS84() *CRS {
	return &CRS{
		Code: 4326,
		Name: "WGS 84",
	}
}

// Options configures footprint writing.
type Options struct {
	Name         string // Layer name
	Description  string // Layer description
	IncludeIndex bool   // Include spatial index (default: true)
	CRS          *CRS   // Coordinate reference system (optional)
}

// DefaultOptions returns default options for writing footprint layers.
func DefaultOptions() *Options {
	return &Options{
		Name:         "footprints",
		IncludeIndex: true,
	}
}

// Header contains metadata about a footprint layer.
type Header struct {
	Name          string     // Layer name
	Description   string     // Layer description
	FeaturesCount uint64     // Number of footprints in the file
	Envelope      [4]float64 // Bounding box [minX, minY, maxX, maxY]
	CRS           *CRS       // Coordinate reference system
	HasIndex      bool       // Whether the file has a spatial index
	Columns       []string   // Property column names, in schema order
}
