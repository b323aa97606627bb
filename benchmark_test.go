package geogrid

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
)

// =============================================================================
// Test Data Generators
// =============================================================================

// generateSurface creates a smooth synthetic elevation surface with a
// sprinkling of no-data cells.
func generateSurface(r *rand.Rand, format Format, rows, columns int) *Grid {
	samples := make([]float32, rows*columns)
	for i := 0; i < rows; i++ {
		for j := 0; j < columns; j++ {
			v := 1000*math.Sin(float64(i)/40)*math.Cos(float64(j)/25) + r.Float64()*5
			samples[i*columns+j] = float32(v)
		}
	}
	for k := 0; k < len(samples)/100; k++ {
		samples[r.Intn(len(samples))] = -9999
	}
	g, err := New(format, samples, rows, columns, -76.5, 2.4, 0.00025, 0.00025, -9999)
	if err != nil {
		panic(err)
	}
	return g
}

// generateTiles creates n adjacent tiles of the given size laid out west to
// east.
func generateTiles(r *rand.Rand, n, rows, columns int) []NamedGrid {
	tiles := make([]NamedGrid, n)
	for k := range tiles {
		samples := make([]float32, rows*columns)
		for i := range samples {
			samples[i] = r.Float32() * 100
		}
		g, err := New(FormatSurfer7, samples, rows, columns, float64(k*columns), 0, 1, 1, -9999)
		if err != nil {
			panic(err)
		}
		tiles[k] = NamedGrid{Name: fmt.Sprintf("tile_%04d.grd", k), Grid: g}
	}
	return tiles
}

// =============================================================================
// Size Comparison Tests
// =============================================================================

func TestSizeComparison_Formats(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping size comparison in short mode")
	}

	r := rand.New(rand.NewSource(42))
	dir := t.TempDir()

	for _, size := range []int{100, 500} {
		g := generateSurface(r, FormatText, size, size)

		t.Logf("\n=== Size Comparison: %dx%d ===", size, size)
		t.Logf("%-12s | %-12s | %-10s", "Format", "Size", "Bytes/cell")
		t.Logf("%s", "-------------|--------------|-----------")

		for _, f := range Formats() {
			path := filepath.Join(dir, fmt.Sprintf("size_%d%s", size, f.Extension()))
			if err := SaveGrid(g, path, f); err != nil {
				t.Fatalf("SaveGrid %v failed: %v", f, err)
			}
			n := fileSize(t, path)
			if f == FormatEsriFloat || f == FormatEnvi || f == FormatEnviDouble {
				n += fileSize(t, headerPath(path))
			}
			t.Logf("%-12s | %-12s | %.2f", f, formatBytes(n), float64(n)/float64(size*size))
		}
	}
}

func TestSizeComparison_Footprints(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	t.Logf("%-12s | %-15s | %-15s | %-15s", "Grids", "GeoJSON (bytes)", "FGB (bytes)", "FGB+Index")
	t.Logf("%s", "-------------|-----------------|-----------------|----------------")

	for _, n := range []int{10, 100, 1000} {
		tiles := generateTiles(r, n, 2, 2)

		geoJSONBytes, err := json.Marshal(FootprintCollection(tiles))
		if err != nil {
			t.Fatalf("JSON marshal failed: %v", err)
		}

		var fgbBuf bytes.Buffer
		if err := WriteFootprints(&fgbBuf, tiles, &Options{IncludeIndex: false}); err != nil {
			t.Fatalf("WriteFootprints failed: %v", err)
		}

		var fgbIdxBuf bytes.Buffer
		if err := WriteFootprints(&fgbIdxBuf, tiles, &Options{IncludeIndex: true}); err != nil {
			t.Fatalf("WriteFootprints with index failed: %v", err)
		}

		t.Logf("%-12d | %-15d | %-15d | %-15d", n, len(geoJSONBytes), fgbBuf.Len(), fgbIdxBuf.Len())
	}
}

func fileSize(t *testing.T, path string) int {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	return int(info.Size())
}

// =============================================================================
// Codec Benchmarks
// =============================================================================

func BenchmarkEncode_EsriASCII_500(b *testing.B) { benchmarkEncode(b, FormatEsriASCII, 500) }
func BenchmarkEncode_EsriFloat_500(b *testing.B) { benchmarkEncode(b, FormatEsriFloat, 500) }
func BenchmarkEncode_Envi_500(b *testing.B) { benchmarkEncode(b, FormatEnvi, 500) }
func BenchmarkEncode_EnviDouble_500(b *testing.B) { benchmarkEncode(b, FormatEnviDouble, 500) }
func BenchmarkEncode_SurferASCII_500(b *testing.B) {
	benchmarkEncode(b, FormatSurferASCII, 500)
}
func BenchmarkEncode_Surfer6_500(b *testing.B) { benchmarkEncode(b, FormatSurfer6, 500) }
func BenchmarkEncode_Surfer7_500(b *testing.B) { benchmarkEncode(b, FormatSurfer7, 500) }
func BenchmarkEncode_Text_500(b *testing.B) { benchmarkEncode(b, FormatText, 500) }
func BenchmarkEncode_NetCDF_500(b *testing.B) { benchmarkEncode(b, FormatNetCDF, 500) }

func BenchmarkDecode_EsriASCII_500(b *testing.B) { benchmarkDecode(b, FormatEsriASCII, 500) }
func BenchmarkDecode_EsriFloat_500(b *testing.B) { benchmarkDecode(b, FormatEsriFloat, 500) }
func BenchmarkDecode_Envi_500(b *testing.B) { benchmarkDecode(b, FormatEnvi, 500) }
func BenchmarkDecode_EnviDouble_500(b *testing.B) { benchmarkDecode(b, FormatEnviDouble, 500) }
func BenchmarkDecode_SurferASCII_500(b *testing.B) {
	benchmarkDecode(b, FormatSurferASCII, 500)
}
func BenchmarkDecode_Surfer6_500(b *testing.B) { benchmarkDecode(b, FormatSurfer6, 500) }
func BenchmarkDecode_Surfer7_500(b *testing.B) { benchmarkDecode(b, FormatSurfer7, 500) }
func BenchmarkDecode_Text_500(b *testing.B) { benchmarkDecode(b, FormatText, 500) }
func BenchmarkDecode_NetCDF_500(b *testing.B) { benchmarkDecode(b, FormatNetCDF, 500) }

func benchmarkEncode(b *testing.B, f Format, size int) {
	r := rand.New(rand.NewSource(42))
	g := generateSurface(r, f, size, size)
	path := filepath.Join(b.TempDir(), "bench"+f.Extension())

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if err := SaveGrid(g, path, f); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkDecode(b *testing.B, f Format, size int) {
	r := rand.New(rand.NewSource(42))
	g := generateSurface(r, f, size, size)
	path := filepath.Join(b.TempDir(), "bench"+f.Extension())
	if err := SaveGrid(g, path, f); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := LoadGridFormat(path, f); err != nil {
			b.Fatal(err)
		}
	}
}

// =============================================================================
// Mosaic and Comparison Benchmarks
// =============================================================================

func BenchmarkMosaic_Left_500(b *testing.B) { benchmarkMosaic(b, EdgeLeft, 500) }
func BenchmarkMosaic_Top_500(b *testing.B) { benchmarkMosaic(b, EdgeTop, 500) }
func BenchmarkMosaic_Left_2000(b *testing.B) { benchmarkMosaic(b, EdgeLeft, 2000) }
func BenchmarkMosaic_Top_2000(b *testing.B) { benchmarkMosaic(b, EdgeTop, 2000) }

func benchmarkMosaic(b *testing.B, edge Edge, size int) {
	r := rand.New(rand.NewSource(42))
	a := generateSurface(r, FormatText, size, size)
	other := generateSurface(r, FormatText, size, size)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := Mosaic(edge, a, other); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEqualsAt_500(b *testing.B) {
	r := rand.New(rand.NewSource(42))
	g := generateSurface(r, FormatText, 500, 500)
	other := generateSurface(r, FormatText, 500, 500)

	b.ResetTimer()

	for n := 0; n < b.N; n++ {
		diffs := 0
		for i := 0; i < 500; i++ {
			for j := 0; j < 500; j++ {
				if !g.EqualsAt(other, i, j, DefaultRPE) {
					diffs++
				}
			}
		}
		_ = diffs
	}
}

// =============================================================================
// Footprint Benchmarks
// =============================================================================

func BenchmarkWriteFootprints_GeoJSON_1000(b *testing.B) {
	tiles := generateTiles(rand.New(rand.NewSource(42)), 1000, 2, 2)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := json.Marshal(FootprintCollection(tiles)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkWriteFootprints_FlatGeobuf_1000(b *testing.B) {
	benchmarkWriteFootprints(b, 1000, false)
}

func BenchmarkWriteFootprints_FlatGeobufIdx_1000(b *testing.B) {
	benchmarkWriteFootprints(b, 1000, true)
}

func benchmarkWriteFootprints(b *testing.B, n int, includeIndex bool) {
	tiles := generateTiles(rand.New(rand.NewSource(42)), n, 2, 2)
	opts := &Options{IncludeIndex: includeIndex}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		if err := WriteFootprints(&buf, tiles, opts); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSearchFootprints_1000(b *testing.B) {
	tiles := generateTiles(rand.New(rand.NewSource(42)), 1000, 2, 2)
	var buf bytes.Buffer
	if err := WriteFootprints(&buf, tiles, &Options{IncludeIndex: true}); err != nil {
		b.Fatal(err)
	}
	reader, err := NewFootprintReaderFromData(buf.Bytes())
	if err != nil {
		b.Fatal(err)
	}
	defer reader.Close()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		x := float64((i * 37) % 1900)
		if _, err := reader.Search(orb.Bound{Min: orb.Point{x, 0}, Max: orb.Point{x + 100, 2}}); err != nil {
			b.Fatal(err)
		}
	}
}

func formatBytes(bytes int) string {
	if bytes < 1024 {
		return fmt.Sprintf("%d B", bytes)
	} else if bytes < 1024*1024 {
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	} else {
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	}
}
