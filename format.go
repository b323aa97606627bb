package geogrid

import (
	"path/filepath"
	"strings"
)

// Format identifies an on-disk grid layout.
type Format int

// Supported grid formats.
const (
	FormatUnknown     Format = iota
	FormatEsriASCII          // ESRI ASCII grid (.asc)
	FormatEsriFloat          // ESRI binary float grid with .hdr (.bil, .flt)
	FormatEnvi               // ENVI float32 raster with .hdr (.flt)
	FormatEnviDouble         // ENVI float64 raster with .hdr (.flt)
	FormatSurferASCII        // Surfer 6 text grid, DSAA (.grd)
	FormatSurfer6            // Surfer 6 binary grid, DSBB (.grd)
	FormatSurfer7            // Surfer 7 binary grid, DSRB (.grd)
	FormatText               // headerless rows, first row first (.txt)
	FormatTextReverse        // headerless rows, last row first (.txt)
	FormatNetCDF             // GMT/COARDS NetCDF grid (.nc)
)

var formatNames = []string{
	"unknown",
	"esriAscii",
	"esri",
	"envi",
	"enviDouble",
	"surferAscii",
	"surfer6",
	"surfer7",
	"txt",
	"txtReverse",
	"netcdf",
}

var formatExtensions = []string{
	"",
	".asc",
	".bil",
	".flt",
	".flt",
	".grd",
	".grd",
	".grd",
	".txt",
	".txt",
	".nc",
}

var formatDescriptions = []string{
	"",
	"ESRI ASCII",
	"ESRI binary (float)",
	"ENVI binary (float)",
	"ENVI binary (double)",
	"Surfer 6 ASCII",
	"Surfer 6 binary (float)",
	"Surfer 7 binary (double)",
	"Headerless first row first",
	"Headerless last row first",
	"GMT NetCDF",
}

// formatsByName maps lowercase format names to formats.
var formatsByName = func() map[string]Format {
	m := make(map[string]Format, len(formatNames))
	for i, name := range formatNames[1:] {
		m[strings.ToLower(name)] = Format(i + 1)
	}
	return m
}()

// formatsByExtension maps lowercase extensions to the format assumed when
// loading. Extensions shared by several formats resolve to the family's
// reader, which tells the variants apart from the file contents.
var formatsByExtension = map[string]Format{
	".asc": FormatEsriASCII,
	".bil": FormatEsriFloat,
	".flt": FormatEnvi,
	".grd": FormatSurferASCII,
	".txt": FormatText,
	".nc":  FormatNetCDF,
}

// String returns the format name accepted by GetFormat ("esriAscii", "envi", ...).
func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return formatNames[FormatUnknown]
	}
	return formatNames[f]
}

// Extension returns the conventional file extension, including the dot.
func (f Format) Extension() string {
	if f < 0 || int(f) >= len(formatExtensions) {
		return ""
	}
	return formatExtensions[f]
}

// Description returns a short human readable description of the format.
func (f Format) Description() string {
	if f < 0 || int(f) >= len(formatDescriptions) {
		return ""
	}
	return formatDescriptions[f]
}

// PortableNoData reports whether other readers of format f accept v as the
// no-data value. ESRI grids written with a NaN sentinel reload here but are
// rejected by ArcGIS and GDAL.
func (f Format) PortableNoData(v float32) bool {
	switch f {
	case FormatEsriASCII, FormatEsriFloat:
		return !isNaN32(v)
	default:
		return true
	}
}

// Formats lists every known format, excluding FormatUnknown.
func Formats() []Format {
	list := make([]Format, 0, len(formatNames)-1)
	for i := 1; i < len(formatNames); i++ {
		list = append(list, Format(i))
	}
	return list
}

// GetFormat resolves a case-insensitive format name such as "esriAscii",
// "surfer7" or "txtReverse". Unknown names yield FormatUnknown.
func GetFormat(name string) Format {
	if f, ok := formatsByName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return f
	}
	return FormatUnknown
}

// FormatFromPath infers the format from a file extension.
//
// A .flt file is ENVI when its sidecar header starts with "ENVI" and ESRI
// binary float otherwise. A .grd file resolves to the Surfer family; the
// exact variant is read from the file signature when decoding.
func FormatFromPath(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	f, ok := formatsByExtension[ext]
	if !ok {
		return FormatUnknown
	}
	if f == FormatEnvi && !isEnviHeader(headerPath(path)) {
		return FormatEsriFloat
	}
	return f
}

// headerPath returns the sidecar header path for a binary payload.
func headerPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".hdr"
}
