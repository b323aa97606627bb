package geogrid

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
)

// Footprint property names, shared by the GeoJSON and FlatGeobuf outputs.
const (
	propName    = "name"
	propFormat  = "format"
	propRows    = "rows"
	propColumns = "columns"
	propDX      = "dx"
	propDY      = "dy"
	propNoData  = "nodata"
)

// footprintSchema is the column layout of footprint layers. A column's
// index in the schema is its FlatGeobuf column index.
var footprintSchema = []struct {
	name  string
	title string
	typ   flattypes.ColumnType
}{
	{propName, "Grid name", flattypes.ColumnTypeString},
	{propFormat, "Grid format", flattypes.ColumnTypeString},
	{propRows, "Rows", flattypes.ColumnTypeInt},
	{propColumns, "Columns", flattypes.ColumnTypeInt},
	{propDX, "Cell width", flattypes.ColumnTypeDouble},
	{propDY, "Cell height", flattypes.ColumnTypeDouble},
	{propNoData, "No-data value", flattypes.ColumnTypeDouble},
}

func footprintColumns(builder *flatbuffers.Builder) []*writer.Column {
	columns := make([]*writer.Column, 0, len(footprintSchema))
	for _, c := range footprintSchema {
		col := writer.NewColumn(builder)
		col.SetName(c.name)
		col.SetTitle(c.title)
		col.SetType(c.typ)
		col.SetNullable(false)
		columns = append(columns, col)
	}
	return columns
}

// encodeFootprintProperties encodes the grid metadata in schema order.
// The format is: [2-byte column index][value bytes]... for every column.
func encodeFootprintProperties(ng NamedGrid) []byte {
	g := ng.Grid
	rows, columns := g.Dimensions()
	dx, dy := g.CellSize()
	values := []interface{}{
		ng.Name,
		g.Format().String(),
		rows,
		columns,
		dx,
		dy,
		noDataProperty(g),
	}

	var buf bytes.Buffer
	for i, c := range footprintSchema {
		var idx [2]byte
		binary.LittleEndian.PutUint16(idx[:], uint16(i))
		buf.Write(idx[:])
		writePropertyValue(&buf, values[i], c.typ)
	}
	return buf.Bytes()
}

// writePropertyValue writes a single property value for a column type used
// by the footprint schema.
func writePropertyValue(buf *bytes.Buffer, value interface{}, colType flattypes.ColumnType) {
	switch colType {
	case flattypes.ColumnTypeInt:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(int32(value.(int))))
		buf.Write(b[:])

	case flattypes.ColumnTypeDouble:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(value.(float64)))
		buf.Write(b[:])

	case flattypes.ColumnTypeString:
		buf.WriteString(value.(string))
		buf.WriteByte(0)
	}
}

// decodeFootprintProperties fills f from encoded properties. Columns are
// matched by name, so layers with extra or reordered columns still decode.
func decodeFootprintProperties(f *Footprint, data []byte, header *flattypes.Header) {
	offset := 0
	for offset+2 <= len(data) {
		colIndex := int(binary.LittleEndian.Uint16(data[offset:]))
		offset += 2

		var col flattypes.Column
		if colIndex >= header.ColumnsLength() || !header.Columns(&col, colIndex) {
			return
		}
		value, n := readPropertyValue(data[offset:], col.Type())
		if n == 0 {
			return
		}
		offset += n

		switch string(col.Name()) {
		case propName:
			f.Name, _ = value.(string)
		case propFormat:
			if s, ok := value.(string); ok {
				f.Format = GetFormat(s)
			}
		case propRows:
			f.Rows = propertyInt(value)
		case propColumns:
			f.Columns = propertyInt(value)
		case propDX:
			f.DX, _ = value.(float64)
		case propDY:
			f.DY, _ = value.(float64)
		case propNoData:
			f.NoData, _ = value.(float64)
		}
	}
}

// readPropertyValue reads a property value from the buffer and returns it
// with the number of bytes consumed. Unknown types consume nothing.
func readPropertyValue(data []byte, colType flattypes.ColumnType) (interface{}, int) {
	switch colType {
	case flattypes.ColumnTypeBool, flattypes.ColumnTypeByte, flattypes.ColumnTypeUByte:
		if len(data) < 1 {
			return nil, 0
		}
		return int64(data[0]), 1

	case flattypes.ColumnTypeShort, flattypes.ColumnTypeUShort:
		if len(data) < 2 {
			return nil, 0
		}
		return int64(int16(binary.LittleEndian.Uint16(data))), 2

	case flattypes.ColumnTypeInt, flattypes.ColumnTypeUInt:
		if len(data) < 4 {
			return nil, 0
		}
		return int64(int32(binary.LittleEndian.Uint32(data))), 4

	case flattypes.ColumnTypeLong, flattypes.ColumnTypeULong:
		if len(data) < 8 {
			return nil, 0
		}
		return int64(binary.LittleEndian.Uint64(data)), 8

	case flattypes.ColumnTypeFloat:
		if len(data) < 4 {
			return nil, 0
		}
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(data))), 4

	case flattypes.ColumnTypeDouble:
		if len(data) < 8 {
			return nil, 0
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(data)), 8

	case flattypes.ColumnTypeString, flattypes.ColumnTypeJson, flattypes.ColumnTypeDateTime:
		nullIdx := bytes.IndexByte(data, 0)
		if nullIdx == -1 {
			return string(data), len(data)
		}
		return string(data[:nullIdx]), nullIdx + 1

	default:
		return nil, 0
	}
}

func propertyInt(v interface{}) int {
	if i, ok := v.(int64); ok {
		return int(i)
	}
	return 0
}
