// Package tempfile manages the intermediate files of an external sort: it
// creates them under a configurable directory with a prefix/suffix naming
// pattern (default part-*.unmerged), tracks every live file so a failed run
// can sweep them all, and optionally lz4-frames their contents.
package tempfile

import (
	"bufio"
	"io"
	"os"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pierrec/lz4/v4"
)

// Factory creates and tracks temporary files. A file stays tracked until it
// is forgotten (ownership moved to the caller, e.g. renamed into the output)
// or removed. Safe for concurrent use by many workers.
type Factory struct {
	dir    string
	prefix string
	suffix string

	mu   sync.Mutex
	live map[string]struct{}
}

// NewFactory returns a Factory creating files named prefix*suffix in dir.
// An empty dir means the OS default temp directory.
func NewFactory(dir, prefix, suffix string) *Factory {
	return &Factory{
		dir:    dir,
		prefix: prefix,
		suffix: suffix,
		live:   make(map[string]struct{}),
	}
}

// Create makes a new tracked temporary file.
func (f *Factory) Create() (*os.File, error) {
	file, err := os.CreateTemp(f.dir, f.prefix+"*"+f.suffix)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.live[file.Name()] = struct{}{}
	f.mu.Unlock()
	return file, nil
}

// Forget stops tracking path without deleting it. Used when ownership of the
// file moves out of the sort, such as the final rename into the output.
func (f *Factory) Forget(path string) {
	f.mu.Lock()
	delete(f.live, path)
	f.mu.Unlock()
}

// Remove deletes path and stops tracking it.
func (f *Factory) Remove(path string) error {
	f.Forget(path)
	return os.Remove(path)
}

// Live returns the number of tracked files.
func (f *Factory) Live() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.live)
}

// RemoveAll deletes every tracked file, aggregating any deletion failures.
// Called on the failure path so a broken run leaves nothing behind.
func (f *Factory) RemoveAll() error {
	f.mu.Lock()
	paths := make([]string, 0, len(f.live))
	for p := range f.live {
		paths = append(paths, p)
	}
	f.live = make(map[string]struct{})
	f.mu.Unlock()

	var result *multierror.Error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Writer buffers writes to a temp file, optionally through an lz4 frame.
type Writer struct {
	file    *os.File
	lz      *lz4.Writer
	buf     *bufio.Writer
	fileBuf *bufio.Writer // file-level buffer under the lz4 frame
}

// NewWriter wraps file for buffered, optionally compressed writing.
func NewWriter(file *os.File, bufferSize int, compress bool) *Writer {
	w := &Writer{file: file}
	inner := bufio.NewWriterSize(file, bufferSize)
	if compress {
		w.lz = lz4.NewWriter(inner)
		w.buf = bufio.NewWriterSize(w.lz, bufferSize)
		w.fileBuf = inner
	} else {
		w.buf = inner
	}
	return w
}

// Write appends p to the current file.
func (w *Writer) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

// WriteByte appends a single byte, used for line terminators.
func (w *Writer) WriteByte(b byte) error {
	return w.buf.WriteByte(b)
}

// Close flushes all layers and closes the file. The file stays on disk.
func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		return err
	}
	if w.lz != nil {
		if err := w.lz.Close(); err != nil {
			return err
		}
		if err := w.fileBuf.Flush(); err != nil {
			return err
		}
	}
	return w.file.Close()
}

// NewReader wraps file for buffered reading, transparently decoding the lz4
// frame when compress is set. The returned reader supports ReadBytes for
// line-at-a-time consumption during merging.
func NewReader(file *os.File, bufferSize int, compress bool) *bufio.Reader {
	var src io.Reader = bufio.NewReaderSize(file, bufferSize)
	if compress {
		src = lz4.NewReader(src)
	}
	return bufio.NewReaderSize(src, bufferSize)
}
