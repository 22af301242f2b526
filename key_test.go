package textsort

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringKeyCompare(t *testing.T) {
	f := NewField(0, FieldTypeString)
	a, err := newKey([]byte("apple"), f, 0)
	require.NoError(t, err)
	b, err := newKey([]byte("banana"), f, 0)
	require.NoError(t, err)

	require.Negative(t, a.compare(b))
	require.Positive(t, b.compare(a))
	require.Zero(t, a.compare(a))
}

func TestStringKeyTransforms(t *testing.T) {
	blanks := Field{Index: 0, Type: FieldTypeString, IgnoreBlanks: true}
	a, err := newKey([]byte("  x  "), blanks, 0)
	require.NoError(t, err)
	b, err := newKey([]byte("x"), blanks, 0)
	require.NoError(t, err)
	require.Zero(t, a.compare(b))

	folded := Field{Index: 0, Type: FieldTypeString, IgnoreCase: true}
	a, err = newKey([]byte("HELLO"), folded, 0)
	require.NoError(t, err)
	b, err = newKey([]byte("hello"), folded, 0)
	require.NoError(t, err)
	require.Zero(t, a.compare(b))
}

func TestIntegerKeyCompare(t *testing.T) {
	f := NewField(0, FieldTypeInteger)
	cases := []struct {
		a, b string
		want int
	}{
		{"1", "2", -1},
		{"10", "9", 1},
		{"-5", "3", -1},
		{" 42 ", "42", 0},
	}
	for _, tc := range cases {
		a, err := newKey([]byte(tc.a), f, 0)
		require.NoError(t, err)
		b, err := newKey([]byte(tc.b), f, 0)
		require.NoError(t, err)
		require.Equal(t, tc.want, a.compare(b), "%q vs %q", tc.a, tc.b)
	}
}

func TestIntegerKeyParseError(t *testing.T) {
	f := NewField(0, FieldTypeInteger)
	_, err := newKey([]byte("not-a-number"), f, 0)
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "not-a-number", parseErr.Value)
}

func TestNumberKeyNaNSortsLowest(t *testing.T) {
	f := NewField(0, FieldTypeNumber)
	nan := key{kind: keyNumber, n: math.NaN()}
	one, err := newKey([]byte("1.5"), f, 0)
	require.NoError(t, err)

	require.Zero(t, nan.compare(nan))
	require.Negative(t, nan.compare(one))
	require.Positive(t, one.compare(nan))
}

func TestShuffleKeyStableWithinRun(t *testing.T) {
	f := Field{Index: 0, Type: FieldTypeString, Random: true}
	const seed = 12345
	a, err := newKey([]byte("same-line"), f, seed)
	require.NoError(t, err)
	b, err := newKey([]byte("same-line"), f, seed)
	require.NoError(t, err)
	// the same bytes must produce the same shuffle key within one run so
	// records re-parsed out of temp files keep their position
	require.Zero(t, a.compare(b))

	c, err := newKey([]byte("same-line"), f, seed+1)
	require.NoError(t, err)
	require.NotZero(t, a.compare(c))
}
