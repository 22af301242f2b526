package textsort

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/navigatorsguild/text-file-sort/queue"
	"github.com/navigatorsguild/text-file-sort/tempfile"
)

// sortedChunkFile is a completed, fully sorted temporary file. Worker
// backlogs order these by line count so intermediate merges fold the
// cheapest files first.
type sortedChunkFile struct {
	path       string
	lines      int64
	compressed bool
}

func lessByLines(a, b sortedChunkFile) bool {
	return a.lines < b.lines
}

// mergeSource identifies one sorted input of a merge pass.
type mergeSource struct {
	path       string
	compressed bool
}

func (f sortedChunkFile) source() mergeSource {
	return mergeSource{path: f.path, compressed: f.compressed}
}

// unmergedChunkFile is a sorted file participating in a merge: an open
// reader plus the peeked head record. While present in the merge queue its
// head is always valid; an exhausted file is closed, deleted and dropped.
type unmergedChunkFile struct {
	path string
	file *os.File
	buf  *lineBuffer
	head lineRecord
	rc   *runConfig
}

// lineBuffer reads terminator-delimited lines from a buffered reader.
type lineBuffer struct {
	r    byteReader
	endl byte
}

type byteReader interface {
	ReadBytes(delim byte) ([]byte, error)
}

// next returns the following line with the terminator stripped, or ok=false
// at end of file. A final line without a trailing terminator is returned as
// a normal line.
func (lb *lineBuffer) next() ([]byte, bool, error) {
	line, err := lb.r.ReadBytes(lb.endl)
	if err != nil {
		if errors.Is(err, io.EOF) {
			if len(line) == 0 {
				return nil, false, nil
			}
			return line, true, nil
		}
		return nil, false, err
	}
	return line[:len(line)-1], true, nil
}

// openUnmerged opens path and peeks its first record. A file with no records
// is closed and deleted immediately, returning nil.
func openUnmerged(src mergeSource, rc *runConfig, factory *tempfile.Factory, gov *governor) (*unmergedChunkFile, error) {
	file, err := os.Open(src.path)
	if err != nil {
		return nil, newDiskError(err, "open", src.path)
	}
	gov.acquire()
	u := &unmergedChunkFile{
		path: src.path,
		file: file,
		rc:   rc,
		buf:  &lineBuffer{r: tempfile.NewReader(file, rc.bufferSize, src.compressed), endl: rc.endl},
	}
	more, err := u.peek()
	if err != nil {
		_ = file.Close()
		gov.release()
		return nil, err
	}
	if !more {
		if err := u.discard(factory, gov); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return u, nil
}

// peek reads and parses the next head record. Ignored lines were filtered
// before the temp file was written, so every line here is a record.
func (u *unmergedChunkFile) peek() (bool, error) {
	line, ok, err := u.buf.next()
	if err != nil {
		return false, newDiskError(err, "read", u.path)
	}
	if !ok {
		return false, nil
	}
	// the record outlives the read buffer, copy the line
	owned := make([]byte, len(line))
	copy(owned, line)
	rec, err := parseRecord(owned, u.rc)
	if err != nil {
		return false, err
	}
	u.head = rec
	return true, nil
}

// discard closes the exhausted file, releases its descriptor and deletes it.
func (u *unmergedChunkFile) discard(factory *tempfile.Factory, gov *governor) error {
	err := u.file.Close()
	u.file = nil
	gov.release()
	if err != nil {
		return newDiskError(err, "close", u.path)
	}
	if err := factory.Remove(u.path); err != nil {
		return newDiskError(err, "remove", u.path)
	}
	return nil
}

// abandon closes the file without deleting it, for merge failure paths where
// the orchestrator sweeps temp files afterwards.
func (u *unmergedChunkFile) abandon(gov *governor) {
	if u.file != nil {
		_ = u.file.Close()
		u.file = nil
		gov.release()
	}
}

// mergeFiles merges the given sorted sources into a new temp file and
// returns its path and line count. Every source file is deleted as it is
// consumed. When the fan-in exceeds the descriptor budget the merge runs in
// bounded passes, folding budget-sized batches into intermediates until a
// single pass fits.
//
// When final is set, prefix and suffix lines wrap the body and the output is
// written raw even if temp compression is on; otherwise the output is a
// regular intermediate file following the run's compression setting.
func mergeFiles(ctx context.Context, sources []mergeSource, rc *runConfig, factory *tempfile.Factory, gov *governor, final bool) (string, int64, error) {
	for {
		// the limit moves as other workers open and close files, take one
		// snapshot per pass
		limit := gov.fanInLimit()
		if len(sources) <= limit {
			break
		}
		batch := sources[:limit]
		slog.Info("descriptor budget exceeded, folding merge batch",
			slog.Int("files", len(sources)), slog.Int("batch", len(batch)))
		path, _, err := mergeOnePass(ctx, batch, rc, factory, gov, false)
		if err != nil {
			return "", 0, err
		}
		rest := sources[limit:]
		folded := make([]mergeSource, 0, len(rest)+1)
		folded = append(folded, mergeSource{path: path, compressed: rc.compress})
		sources = append(folded, rest...)
	}
	return mergeOnePass(ctx, sources, rc, factory, gov, final)
}

func mergeOnePass(ctx context.Context, sources []mergeSource, rc *runConfig, factory *tempfile.Factory, gov *governor, final bool) (string, int64, error) {
	out, err := factory.Create()
	if err != nil {
		return "", 0, newDiskError(err, "create", "temp file")
	}
	compressOut := rc.compress && !final
	w := tempfile.NewWriter(out, rc.bufferSize, compressOut)
	lines, err := writeMerged(ctx, sources, rc, factory, gov, w, final)
	if err != nil {
		_ = w.Close()
		return "", 0, err
	}
	if err := w.Close(); err != nil {
		return "", 0, newDiskError(err, "close", out.Name())
	}
	return out.Name(), lines, nil
}

func writeMerged(ctx context.Context, sources []mergeSource, rc *runConfig, factory *tempfile.Factory, gov *governor, w *tempfile.Writer, final bool) (int64, error) {
	var lines int64
	writeLine := func(line []byte) error {
		if _, err := w.Write(line); err != nil {
			return err
		}
		if err := w.WriteByte(rc.endl); err != nil {
			return err
		}
		lines++
		return nil
	}

	if final {
		for _, p := range rc.prefix {
			if err := writeLine([]byte(p)); err != nil {
				return lines, newDiskError(err, "write", "output")
			}
		}
	}

	if len(sources) == 1 {
		if err := copyLines(sources[0], rc, factory, gov, writeLine); err != nil {
			return lines, err
		}
	} else if len(sources) > 1 {
		pq := queue.New(func(a, b *unmergedChunkFile) bool {
			return compareRecords(a.head, b.head, rc) < 0
		})
		open := make([]*unmergedChunkFile, 0, len(sources))
		defer func() {
			for _, u := range open {
				u.abandon(gov)
			}
		}()
		for _, src := range sources {
			u, err := openUnmerged(src, rc, factory, gov)
			if err != nil {
				return lines, err
			}
			if u != nil {
				pq.Push(u)
				open = append(open, u)
			}
		}

		for pq.Len() > 0 {
			if err := ctx.Err(); err != nil {
				return lines, err
			}
			u := pq.Peek()
			if err := writeLine(u.head.line); err != nil {
				return lines, newDiskError(err, "write", "output")
			}
			more, err := u.peek()
			if err != nil {
				return lines, err
			}
			if more {
				pq.PeekUpdate()
			} else {
				pq.Pop()
				if err := u.discard(factory, gov); err != nil {
					return lines, err
				}
			}
		}
	}

	if final {
		for _, s := range rc.suffix {
			if err := writeLine([]byte(s)); err != nil {
				return lines, newDiskError(err, "write", "output")
			}
		}
	}
	return lines, nil
}

// copyLines is the single-source fast path: no comparisons, just a streaming
// re-terminated copy, deleting the source afterwards.
func copyLines(src mergeSource, rc *runConfig, factory *tempfile.Factory, gov *governor, writeLine func([]byte) error) error {
	file, err := os.Open(src.path)
	if err != nil {
		return newDiskError(err, "open", src.path)
	}
	gov.acquire()
	defer gov.release()
	lb := &lineBuffer{r: tempfile.NewReader(file, rc.bufferSize, src.compressed), endl: rc.endl}
	for {
		line, ok, err := lb.next()
		if err != nil {
			_ = file.Close()
			return newDiskError(err, "read", src.path)
		}
		if !ok {
			break
		}
		if err := writeLine(line); err != nil {
			_ = file.Close()
			return newDiskError(err, "write", "output")
		}
	}
	if err := file.Close(); err != nil {
		return newDiskError(err, "close", src.path)
	}
	if err := factory.Remove(src.path); err != nil {
		return newDiskError(err, "remove", src.path)
	}
	return nil
}
