package textsort

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func runCheck(t *testing.T, content string, config *Config) *CheckResult {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "input.dat")
	require.NoError(t, os.WriteFile(input, []byte(content), 0o644))

	result, err := New([]string{input}, "", config).Check(context.Background())
	require.NoError(t, err)
	return result
}

func TestCheckSortedFile(t *testing.T) {
	result := runCheck(t, "a\nb\nc\n", nil)
	require.True(t, result.Sorted)
}

func TestCheckReportsFirstViolation(t *testing.T) {
	result := runCheck(t, "a\nc\nb\nz\n", nil)
	require.False(t, result.Sorted)
	require.Equal(t, int64(3), result.Line)
}

func TestCheckEqualRecordsAreInOrder(t *testing.T) {
	result := runCheck(t, "a\na\nb\n", nil)
	require.True(t, result.Sorted)
}

func TestCheckIntegerOrder(t *testing.T) {
	config := &Config{Fields: []Field{NewField(0, FieldTypeInteger)}}
	// lexicographically out of order but numerically sorted
	require.True(t, runCheck(t, "9\n10\n11\n", config).Sorted)
	require.False(t, runCheck(t, "10\n9\n", config).Sorted)
}

func TestCheckDescending(t *testing.T) {
	config := &Config{Order: Desc}
	require.True(t, runCheck(t, "c\nb\na\n", config).Sorted)
	require.False(t, runCheck(t, "a\nb\n", config).Sorted)
}

func TestCheckSkipsIgnoredLines(t *testing.T) {
	config := &Config{IgnoreLines: regexp.MustCompile("^#")}
	result := runCheck(t, "# z comes first here\na\nb\n", config)
	require.True(t, result.Sorted)
}

func TestCheckEmptyFile(t *testing.T) {
	require.True(t, runCheck(t, "", nil).Sorted)
}

func TestCheckAfterSortAlwaysPasses(t *testing.T) {
	content := "pear\napple\nmango\nkiwi\nplum\n"
	out := runSort(t, content, nil)

	result := runCheck(t, out, nil)
	require.True(t, result.Sorted)
}

func TestCheckMissingFileIsError(t *testing.T) {
	_, err := New([]string{filepath.Join(t.TempDir(), "missing.dat")}, "", nil).Check(context.Background())
	require.Error(t, err)
}
