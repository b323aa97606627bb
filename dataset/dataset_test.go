package dataset

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoad_Float32(t *testing.T) {
	data := make([]float32, 500*500)
	for k := range data {
		data[k] = float32(k)
	}
	path := filepath.Join(t.TempDir(), "sequence.txt")
	require.NoError(t, SaveText(path, data, 500))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	lines := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		fields := strings.Split(sc.Text(), " ")
		require.Len(t, fields, 500, "line %d", lines)
		assert.Equal(t, strconv.Itoa(lines*500), fields[0])
		lines++
	}
	require.NoError(t, sc.Err())
	assert.Equal(t, 500, lines)

	loaded, err := LoadText[float32](path)
	require.NoError(t, err)
	assert.Equal(t, data, loaded)
}

func TestWriteText_Layout(t *testing.T) {
	tests := []struct {
		name          string
		data          []int
		valuesPerLine int
		want          string
	}{
		{"full lines", []int{1, 2, 3, 4}, 2, "1 2\n3 4\n"},
		{"partial last line", []int{1, 2, 3, 4, 5}, 2, "1 2\n3 4\n5\n"},
		{"single line", []int{-1, 0, 1}, 0, "-1 0 1\n"},
		{"negative count", []int{7, 8}, -3, "7 8\n"},
		{"empty", nil, 4, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteText(&buf, tt.data, tt.valuesPerLine))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestRoundTrip_Types(t *testing.T) {
	t.Run("float64", func(t *testing.T) {
		data := []float64{0.1, -2.5e-300, 1e300, 3}
		var buf bytes.Buffer
		require.NoError(t, WriteText(&buf, data, 3))
		got, err := ReadText[float64](&buf)
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})

	t.Run("int16", func(t *testing.T) {
		data := []int16{-32768, 0, 32767}
		var buf bytes.Buffer
		require.NoError(t, WriteText(&buf, data, 1))
		got, err := ReadText[int16](&buf)
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})

	t.Run("uint64", func(t *testing.T) {
		data := []uint64{0, 18446744073709551615}
		var buf bytes.Buffer
		require.NoError(t, WriteText(&buf, data, 2))
		assert.Equal(t, "0 18446744073709551615\n", buf.String())
		got, err := ReadText[uint64](&buf)
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})
}

func TestReadText_Whitespace(t *testing.T) {
	got, err := ReadText[int32](strings.NewReader("  1\t2\n\n 3  \r\n4"))
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2, 3, 4}, got)

	got, err = ReadText[int32](strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadText_Invalid(t *testing.T) {
	_, err := ReadText[float32](strings.NewReader("1 2 abc 4"))
	require.Error(t, err)
	assert.ErrorIs(t, err, strconv.ErrSyntax)
	assert.Contains(t, err.Error(), "value 2")

	_, err = ReadText[uint8](strings.NewReader("255 300"))
	require.Error(t, err)
	assert.ErrorIs(t, err, strconv.ErrRange)

	_, err = ReadText[uint8](strings.NewReader("-1"))
	assert.Error(t, err)

	_, err = ReadText[int](strings.NewReader("1.5"))
	assert.Error(t, err)
}

func TestLoadText_MissingFile(t *testing.T) {
	_, err := LoadText[float32](filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
