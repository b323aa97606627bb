// Package dataset reads and writes flat sequences of numbers as text, with a
// fixed number of values per line. It carries no geo-referencing and is
// mostly useful to dump or compare raw grid payloads.
package dataset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"

	"golang.org/x/exp/constraints"
)

// Number is any integer or floating point type.
type Number interface {
	constraints.Integer | constraints.Float
}

// SaveText writes data to path, valuesPerLine values per line separated by a
// single space. A valuesPerLine of zero or less puts every value on one line.
func SaveText[T Number](path string, data []T, valuesPerLine int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteText(f, data, valuesPerLine)
}

// WriteText is SaveText for an arbitrary writer.
func WriteText[T Number](w io.Writer, data []T, valuesPerLine int) error {
	if valuesPerLine <= 0 {
		valuesPerLine = len(data)
	}
	bw := bufio.NewWriterSize(w, 1<<16)
	format := formatterFor[T]()

	var buf []byte
	for i, v := range data {
		buf = buf[:0]
		if i%valuesPerLine != 0 {
			buf = append(buf, ' ')
		}
		buf = format(buf, v)
		if (i+1)%valuesPerLine == 0 || i == len(data)-1 {
			buf = append(buf, '\n')
		}
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// LoadText reads every whitespace separated value of the file at path.
func LoadText[T Number](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadText[T](f)
}

// ReadText is LoadText for an arbitrary reader. Values that do not parse as
// T, or overflow it, are reported with their position.
func ReadText[T Number](r io.Reader) ([]T, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	sc.Split(bufio.ScanWords)
	parse := parserFor[T]()

	var data []T
	for sc.Scan() {
		v, err := parse(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("dataset: value %d: %w", len(data), err)
		}
		data = append(data, v)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return data, nil
}

// formatterFor returns an append function producing the shortest text that
// parses back to the same T.
func formatterFor[T Number]() func([]byte, T) []byte {
	var zero T
	kind := reflect.TypeOf(zero).Kind()
	switch kind {
	case reflect.Float32:
		return func(b []byte, v T) []byte { return strconv.AppendFloat(b, float64(v), 'g', -1, 32) }
	case reflect.Float64:
		return func(b []byte, v T) []byte { return strconv.AppendFloat(b, float64(v), 'g', -1, 64) }
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return func(b []byte, v T) []byte { return strconv.AppendUint(b, uint64(v), 10) }
	default:
		return func(b []byte, v T) []byte { return strconv.AppendInt(b, int64(v), 10) }
	}
}

func parserFor[T Number]() func(string) (T, error) {
	var zero T
	typ := reflect.TypeOf(zero)
	bits := typ.Bits()
	switch typ.Kind() {
	case reflect.Float32, reflect.Float64:
		return func(s string) (T, error) {
			v, err := strconv.ParseFloat(s, bits)
			return T(v), err
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return func(s string) (T, error) {
			v, err := strconv.ParseUint(s, 10, bits)
			return T(v), err
		}
	default:
		return func(s string) (T, error) {
			v, err := strconv.ParseInt(s, 10, bits)
			return T(v), err
		}
	}
}
