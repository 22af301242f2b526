package textsort

import (
	"bufio"
	"errors"
	"io"
	"os"
)

// chunk is a contiguous byte range of an input file that ends exactly on a
// line terminator (or at EOF) and is processed as one unit of parallel work.
type chunk struct {
	path   string
	offset int64
	length int64
}

// chunkIterator lazily produces the chunks of one input file. Each chunk is
// at least jump bytes long except the last, extended forward to the next
// terminator so no line is ever split. Not safe for concurrent use and not
// restartable.
type chunkIterator struct {
	path     string
	file     *os.File
	reader   *bufio.Reader
	length   int64
	jump     int64
	pos      int64
	endl     byte
	finished bool
}

// newChunkIterator opens path and prepares iteration with the given target
// chunk size in bytes.
func newChunkIterator(path string, jump int64, endl byte) (*chunkIterator, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, newDiskError(err, "stat", path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, newDiskError(err, "open", path)
	}
	return &chunkIterator{
		path:   path,
		file:   file,
		reader: bufio.NewReader(file),
		length: info.Size(),
		jump:   jump,
		endl:   endl,
	}, nil
}

// next returns the following chunk, or ok=false when the file is exhausted.
// The iterator closes its file handle when iteration completes or fails.
func (it *chunkIterator) next() (chunk, bool, error) {
	if it.finished {
		return chunk{}, false, nil
	}
	remainder := it.length - it.pos
	if remainder <= 0 {
		it.finish()
		return chunk{}, false, nil
	}
	if it.jump >= remainder {
		c := chunk{path: it.path, offset: it.pos, length: remainder}
		it.pos = it.length
		it.finish()
		return c, true, nil
	}

	end, err := it.seekToBoundary()
	if err != nil {
		it.finish()
		return chunk{}, false, err
	}
	c := chunk{path: it.path, offset: it.pos, length: end - it.pos}
	it.pos = end
	if it.pos >= it.length {
		it.finish()
	}
	return c, true, nil
}

// seekToBoundary jumps forward by the target chunk size and then scans to the
// next terminator. The terminator is ASCII, so the boundary can never land
// inside a multi-byte UTF-8 sequence.
func (it *chunkIterator) seekToBoundary() (int64, error) {
	target := it.pos + it.jump
	if _, err := it.file.Seek(target, io.SeekStart); err != nil {
		return 0, newDiskError(err, "seek", it.path)
	}
	it.reader.Reset(it.file)

	scanned := int64(0)
	for {
		b, err := it.reader.ReadSlice(it.endl)
		scanned += int64(len(b))
		if err == nil {
			return target + scanned, nil
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if errors.Is(err, io.EOF) {
			// no trailing terminator, the chunk runs to EOF
			return it.length, nil
		}
		return 0, newDiskError(err, "read", it.path)
	}
}

func (it *chunkIterator) finish() {
	if it.finished {
		return
	}
	it.finished = true
	_ = it.file.Close()
}
