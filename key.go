package textsort

import (
	"bytes"
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

type keyKind uint8

const (
	keyString keyKind = iota
	keyInteger
	keyNumber
)

// key is a typed, comparison-ready value extracted from one field of a line.
// All keys produced for the same Field share the same kind, so compare never
// sees mixed kinds.
type key struct {
	kind keyKind
	s    []byte
	i    int64
	n    float64
}

// newKey extracts a key from the raw field bytes per the field definition.
// raw is borrowed; string keys that need case folding are copied.
//
// Unparsable Integer/Number fields fail with a ParseError: the sort is strict
// by default and the caller decides whether to skip the line or abort.
func newKey(raw []byte, f Field, shuffleSeed uint64) (key, error) {
	if f.Random {
		return key{kind: keyInteger, i: int64(shuffleHash(shuffleSeed, raw))}, nil
	}
	switch f.Type {
	case FieldTypeString:
		s := raw
		if f.IgnoreBlanks {
			s = bytes.TrimSpace(s)
		}
		if f.IgnoreCase {
			s = bytes.ToUpper(s)
		}
		return key{kind: keyString, s: s}, nil
	case FieldTypeInteger:
		i, err := strconv.ParseInt(string(bytes.TrimSpace(raw)), 10, 64)
		if err != nil {
			return key{}, &ParseError{Field: f.label(), Value: string(raw), Cause: err}
		}
		return key{kind: keyInteger, i: i}, nil
	case FieldTypeNumber:
		n, err := strconv.ParseFloat(string(bytes.TrimSpace(raw)), 64)
		if err != nil {
			return key{}, &ParseError{Field: f.label(), Value: string(raw), Cause: err}
		}
		return key{kind: keyNumber, n: n}, nil
	}
	return key{}, &ParseError{Field: f.label(), Value: string(raw), Cause: errUnknownFieldType}
}

// shuffleHash derives the shuffle key for a Random field. Hashing the raw
// field bytes with a per-run seed keeps the key stable when the record is
// re-parsed out of a temp file during merge, so temp files stay sorted.
func shuffleHash(seed uint64, raw []byte) uint64 {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(seed >> (8 * i))
	}
	d := xxhash.New()
	_, _ = d.Write(buf[:])
	_, _ = d.Write(raw)
	return d.Sum64()
}

// compare returns a three-way comparison of two keys of the same kind.
// NaN numbers compare equal to each other and below every non-NaN number.
func (k key) compare(other key) int {
	switch k.kind {
	case keyString:
		return bytes.Compare(k.s, other.s)
	case keyInteger:
		switch {
		case k.i < other.i:
			return -1
		case k.i > other.i:
			return 1
		}
		return 0
	case keyNumber:
		a, b := k.n, other.n
		aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
		switch {
		case aNaN && bNaN:
			return 0
		case aNaN:
			return -1
		case bNaN:
			return 1
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	}
	return 0
}
