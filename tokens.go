package geogrid

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// tokenReader splits a text grid into whitespace separated tokens and allows
// one token of look-ahead, which header parsers need to find where the
// samples start.
type tokenReader struct {
	sc      *bufio.Scanner
	pending string
	peeked  bool
}

func newTokenReader(r io.Reader) *tokenReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	sc.Split(bufio.ScanWords)
	return &tokenReader{sc: sc}
}

// next returns the next token, or false at the end of input.
func (t *tokenReader) next() (string, bool) {
	if t.peeked {
		t.peeked = false
		return t.pending, true
	}
	if !t.sc.Scan() {
		return "", false
	}
	return t.sc.Text(), true
}

// unread pushes tok back so that the following next call returns it.
func (t *tokenReader) unread(tok string) {
	t.pending = tok
	t.peeked = true
}

// err returns the first non-EOF read error.
func (t *tokenReader) err() error {
	return t.sc.Err()
}

// int reads an integer token.
func (t *tokenReader) int(what string) (int, error) {
	tok, ok := t.next()
	if !ok {
		return 0, t.missing(what)
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		// Some writers emit integral values with a decimal point.
		f, ferr := strconv.ParseFloat(tok, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, fmt.Errorf("%w: %s %q", ErrInvalidHeader, what, tok)
		}
		v = int(f)
	}
	return v, nil
}

// float reads a float64 token.
func (t *tokenReader) float(what string) (float64, error) {
	tok, ok := t.next()
	if !ok {
		return 0, t.missing(what)
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrInvalidHeader, what, tok)
	}
	return v, nil
}

// samples reads n float32 tokens.
func (t *tokenReader) samples(n int) ([]float32, error) {
	out := make([]float32, n)
	for i := range out {
		tok, ok := t.next()
		if !ok {
			if err := t.err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w: got %d of %d samples", ErrTruncated, i, n)
		}
		v, err := strconv.ParseFloat(tok, 32)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		out[i] = float32(v)
	}
	return out, nil
}

func (t *tokenReader) missing(what string) error {
	if err := t.err(); err != nil {
		return err
	}
	return fmt.Errorf("%w: missing %s", ErrInvalidHeader, what)
}
