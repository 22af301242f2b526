package textsort

import (
	"math/rand"
	"regexp"
	"runtime"
	"unicode/utf8"
)

// Config holds configuration settings for a text file sort
type Config struct {
	Tasks           int            // number of parallel sort workers, 0 for all available cores
	ChunkSizeBytes  int64          // target input chunk size in bytes, chunks end on line boundaries
	MaxFiles        int            // descriptor budget for simultaneously open sorted files
	TempDir         string         // directory for intermediate files, empty for the OS default
	TempPrefix      string         // temp file name prefix
	TempSuffix      string         // temp file name suffix
	FieldSeparator  byte           // single byte field separator
	Endl            byte           // line terminator, must be ASCII
	Fields          []Field        // ordered sort key fields, empty for whole-line String
	Order           Order          // global sort direction default
	IgnoreEmpty     bool           // drop lines that are empty after trimming
	IgnoreLines     *regexp.Regexp // drop lines matching this pattern, nil for the "^#" default
	NoIgnoreLines   bool           // disable the ignore pattern entirely
	ConcurrentMerge bool           // merge each worker's backlog while sorting continues
	Prefix          []string       // lines emitted verbatim before the sorted body
	Suffix          []string       // lines emitted verbatim after the sorted body
	SkipUnparsable  bool           // drop lines that fail key extraction instead of aborting
	CompressTemp    bool           // lz4 compress intermediate files
	BufferSize      int            // file IO buffer size for each file
}

// DefaultConfig returns the configuration used when none is provided: TAB
// separated fields, the whole line as a single String key, ascending order,
// comment lines starting with '#' dropped, 10 MB chunks and a budget of 1024
// intermediate files.
func DefaultConfig() *Config {
	return &Config{
		Tasks:           0,
		ChunkSizeBytes:  10_000_000,
		MaxFiles:        1024,
		TempDir:         "",
		TempPrefix:      "part-",
		TempSuffix:      ".unmerged",
		FieldSeparator:  '\t',
		Endl:            '\n',
		Order:           Asc,
		IgnoreLines:     regexp.MustCompile("^#"),
		ConcurrentMerge: true,
		BufferSize:      1 << 20,
	}
}

// mergeConfig takes a provided config and replaces any values not set with the defaults
func mergeConfig(c *Config) *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.ChunkSizeBytes <= 0 {
		out.ChunkSizeBytes = d.ChunkSizeBytes
	}
	if out.MaxFiles <= 0 {
		out.MaxFiles = d.MaxFiles
	}
	if out.TempPrefix == "" {
		out.TempPrefix = d.TempPrefix
	}
	if out.TempSuffix == "" {
		out.TempSuffix = d.TempSuffix
	}
	if out.FieldSeparator == 0 {
		out.FieldSeparator = d.FieldSeparator
	}
	if out.Endl == 0 {
		out.Endl = d.Endl
	}
	if out.Order == OrderDefault {
		out.Order = d.Order
	}
	if out.BufferSize <= 0 {
		out.BufferSize = d.BufferSize
	}
	if out.NoIgnoreLines {
		out.IgnoreLines = nil
	} else if out.IgnoreLines == nil {
		out.IgnoreLines = d.IgnoreLines
	}
	// TempDir empty means the OS default, Tasks zero means all cores
	return &out
}

// runConfig is the validated, immutable snapshot of a Config that every
// worker shares read-only for the duration of one run.
type runConfig struct {
	tasks       int
	chunkSize   int64
	maxFiles    int
	tempDir     string
	tempPrefix  string
	tempSuffix  string
	separator   byte
	endl        byte
	fields      []Field
	fieldOrders []Order // resolved per-field directions, aligned with fields
	wholeLine   bool    // single index-0 field, skip splitting
	ignoreEmpty bool
	ignoreLines *regexp.Regexp
	concMerge   bool
	prefix      []string
	suffix      []string
	skipParse   bool
	compress    bool
	bufferSize  int
	shuffleSeed uint64
}

// compile validates a merged Config and freezes it into a runConfig.
func compile(c *Config) (*runConfig, error) {
	tasks := c.Tasks
	if tasks <= 0 {
		tasks = runtime.NumCPU()
	}
	if c.Endl >= utf8.RuneSelf {
		return nil, &ConfigError{Field: "Endl", Value: c.Endl,
			Reason: "line terminator must be an ASCII byte so chunk boundaries stay on rune boundaries"}
	}
	if c.FieldSeparator >= utf8.RuneSelf {
		return nil, &ConfigError{Field: "FieldSeparator", Value: c.FieldSeparator,
			Reason: "field separator must be an ASCII byte"}
	}

	fields := c.Fields
	if len(fields) == 0 {
		fields = []Field{NewField(0, FieldTypeString)}
	}
	wholeLine := false
	for _, f := range fields {
		if f.Index < 0 {
			return nil, &ConfigError{Field: "Fields", Value: f.Index, Reason: "field index must not be negative"}
		}
		if f.Index == 0 {
			if len(fields) != 1 {
				return nil, &ConfigError{Field: "Fields", Value: f.Index,
					Reason: "field index 0 means the entire line and must be the only field"}
			}
			wholeLine = true
		}
	}
	orders := make([]Order, len(fields))
	for i, f := range fields {
		orders[i] = f.order(c.Order)
	}

	maxFiles := c.MaxFiles
	if maxFiles < 2*tasks {
		maxFiles = 2 * tasks
	}

	return &runConfig{
		tasks:       tasks,
		chunkSize:   c.ChunkSizeBytes,
		maxFiles:    maxFiles,
		tempDir:     c.TempDir,
		tempPrefix:  c.TempPrefix,
		tempSuffix:  c.TempSuffix,
		separator:   c.FieldSeparator,
		endl:        c.Endl,
		fields:      fields,
		fieldOrders: orders,
		wholeLine:   wholeLine,
		ignoreEmpty: c.IgnoreEmpty,
		ignoreLines: c.IgnoreLines,
		concMerge:   c.ConcurrentMerge,
		prefix:      c.Prefix,
		suffix:      c.Suffix,
		skipParse:   c.SkipUnparsable,
		compress:    c.CompressTemp,
		bufferSize:  c.BufferSize,
		shuffleSeed: rand.Uint64(),
	}, nil
}

// backlogLimit is the per-worker file count that triggers an intermediate
// merge when concurrent merging is enabled.
func (rc *runConfig) backlogLimit() int {
	limit := rc.maxFiles / rc.tasks
	if limit < 2 {
		limit = 2
	}
	return limit
}
