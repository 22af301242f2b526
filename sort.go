// Package textsort sorts delimited text files that do not fit in memory:
// CSV, TSV and pg_dump style dumps with up to billions of lines. The input
// is split into line-aligned chunks, chunks are sorted in parallel and
// spilled to temporary files, and a final k-way merge produces the output.
// Records are ordered by a configurable list of typed fields.
package textsort

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"slices"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/navigatorsguild/text-file-sort/queue"
	"github.com/navigatorsguild/text-file-sort/tempfile"
)

// Sorter sorts one or more input files into a single ordered output file.
type Sorter struct {
	inputs []string
	output string
	config *Config
}

// New returns a Sorter for the given input files and output path.
// config can be nil to use the defaults, or set only the non-default values
// desired.
func New(inputs []string, output string, config *Config) *Sorter {
	return &Sorter{
		inputs: inputs,
		output: output,
		config: mergeConfig(config),
	}
}

// Sort runs the full pipeline: chunk the inputs, sort chunks across the
// worker pool, optionally fold each worker's backlog concurrently, then
// k-way merge everything into the output. On any failure the first error is
// returned and all temporary files are removed; no partial output is left
// behind.
func (s *Sorter) Sort(ctx context.Context) error {
	rc, err := compile(s.config)
	if err != nil {
		return err
	}
	restore, err := ensureFileLimit(rc.maxFiles)
	if err != nil {
		return err
	}
	defer restore()

	factory := tempfile.NewFactory(rc.tempDir, rc.tempPrefix, rc.tempSuffix)
	gov := newGovernor(rc.maxFiles)

	slog.Info("starting parallel sort",
		slog.Int("tasks", rc.tasks),
		slog.Int64("chunk_size_bytes", rc.chunkSize),
		slog.Int("max_files", rc.maxFiles))

	collected, err := s.sortChunks(ctx, rc, factory, gov)
	if err != nil {
		return s.fail(err, factory)
	}

	slog.Info("sort phase complete, starting final merge", slog.Int("files", len(collected)))
	sources := make([]mergeSource, len(collected))
	for i, f := range collected {
		sources[i] = f.source()
	}
	merged, lines, err := mergeFiles(ctx, sources, rc, factory, gov, true)
	if err != nil {
		return s.fail(err, factory)
	}
	if err := os.Rename(merged, s.output); err != nil {
		return s.fail(newDiskError(err, "rename", merged), factory)
	}
	factory.Forget(merged)
	slog.Info("finished parallel sort", slog.String("output", s.output), slog.Int64("lines", lines))
	return nil
}

// fail removes every temporary file of the run and returns err, with any
// cleanup failures attached.
func (s *Sorter) fail(err error, factory *tempfile.Factory) error {
	if cleanupErr := factory.RemoveAll(); cleanupErr != nil {
		return multierror.Append(err, cleanupErr)
	}
	return err
}

// sortChunks feeds chunks of every input file to the worker pool and
// returns the sorted chunk files surviving after the workers drain.
func (s *Sorter) sortChunks(ctx context.Context, rc *runConfig, factory *tempfile.Factory, gov *governor) ([]sortedChunkFile, error) {
	group, ctx := errgroup.WithContext(ctx)
	chunkChan := make(chan chunk, rc.tasks)

	group.Go(func() error {
		defer close(chunkChan)
		for _, path := range s.inputs {
			it, err := newChunkIterator(path, rc.chunkSize, rc.endl)
			if err != nil {
				return err
			}
			for {
				c, ok, err := it.next()
				if err != nil {
					return err
				}
				if !ok {
					break
				}
				select {
				case chunkChan <- c:
				case <-ctx.Done():
					it.finish()
					return ctx.Err()
				}
			}
		}
		return nil
	})

	var mu sync.Mutex
	var collected []sortedChunkFile
	for i := 0; i < rc.tasks; i++ {
		w := &sortWorker{id: i, rc: rc, factory: factory, gov: gov,
			backlog: queue.New(lessByLines)}
		group.Go(func() error {
			if err := w.run(ctx, chunkChan); err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for w.backlog.Len() > 0 {
				collected = append(collected, w.backlog.Pop())
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return collected, nil
}

// sortWorker is the execution context of one pool worker. It owns a private
// backlog of completed chunk files and the learned capacities used to
// presize the next chunk's buffers; nothing here is shared across workers.
type sortWorker struct {
	id      int
	rc      *runConfig
	factory *tempfile.Factory
	gov     *governor
	backlog *queue.PriorityQueue[sortedChunkFile]

	// learned capacities, carried across the chunks this worker processes
	lineCap    int
	recordsCap int
	chunkBuf   []byte
}

// run sorts chunks until the channel closes, interleaving intermediate
// merges of this worker's own backlog when it grows past the threshold.
func (w *sortWorker) run(ctx context.Context, chunks <-chan chunk) error {
	for c := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		f, err := w.sortChunk(c)
		if err != nil {
			return err
		}
		w.backlog.Push(f)
		if w.rc.concMerge && w.backlog.Len() >= w.rc.backlogLimit() {
			if err := w.mergeBacklog(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// mergeBacklog folds this worker's two smallest sorted files into one,
// bounding the worker's live file count to O(log chunks) instead of
// O(chunks). Only this worker's files are touched, so no locking.
func (w *sortWorker) mergeBacklog(ctx context.Context) error {
	a := w.backlog.Pop()
	b := w.backlog.Pop()
	slog.Debug("merging worker backlog",
		slog.Int("worker", w.id),
		slog.Int64("lines_a", a.lines),
		slog.Int64("lines_b", b.lines))
	path, lines, err := mergeFiles(ctx, []mergeSource{a.source(), b.source()}, w.rc, w.factory, w.gov, false)
	if err != nil {
		return err
	}
	w.backlog.Push(sortedChunkFile{path: path, lines: lines, compressed: w.rc.compress})
	return nil
}

// sortChunk parses one chunk into records, sorts them in memory and writes
// a sorted temporary file.
func (w *sortWorker) sortChunk(c chunk) (sortedChunkFile, error) {
	buf, err := w.readChunk(c)
	if err != nil {
		return sortedChunkFile{}, err
	}
	records, err := w.parseChunk(c, buf)
	if err != nil {
		return sortedChunkFile{}, err
	}
	slices.SortFunc(records, func(a, b lineRecord) int {
		return compareRecords(a, b, w.rc)
	})
	return w.writeSorted(records)
}

// readChunk loads the chunk's byte range into this worker's reusable buffer.
func (w *sortWorker) readChunk(c chunk) ([]byte, error) {
	file, err := os.Open(c.path)
	if err != nil {
		return nil, newDiskError(err, "open", c.path)
	}
	defer file.Close()
	if int64(cap(w.chunkBuf)) < c.length {
		// chunks run past the target size by up to one line, so grow with
		// that much headroom and later chunks reuse the buffer
		w.chunkBuf = make([]byte, c.length+int64(w.lineCap))
	}
	buf := w.chunkBuf[:c.length]
	n, err := file.ReadAt(buf, c.offset)
	// a full read of the final chunk may legitimately report EOF
	if err != nil && !(errors.Is(err, io.EOF) && n == len(buf)) {
		return nil, newDiskError(err, "read", c.path)
	}
	return buf, nil
}

// parseChunk splits the chunk into lines and extracts keys, applying the
// ignore rules. Records borrow their line bytes from buf.
func (w *sortWorker) parseChunk(c chunk, buf []byte) ([]lineRecord, error) {
	rc := w.rc
	records := make([]lineRecord, 0, w.recordsCap)
	for pos := 0; pos < len(buf); {
		end := bytes.IndexByte(buf[pos:], rc.endl)
		var line []byte
		if end < 0 {
			line = buf[pos:]
			pos = len(buf)
		} else {
			line = buf[pos : pos+end]
			pos += end + 1
		}
		if skipLine(line, rc) {
			continue
		}
		rec, err := parseRecord(line, rc)
		if err != nil {
			if rc.skipParse {
				continue
			}
			return nil, chunkParseError(err, c)
		}
		if len(line) > w.lineCap {
			w.lineCap = len(line)
		}
		records = append(records, rec)
	}
	if len(records) > w.recordsCap {
		w.recordsCap = len(records)
	}
	return records, nil
}

// skipLine applies the empty-line and ignore-pattern rules.
func skipLine(line []byte, rc *runConfig) bool {
	if rc.ignoreEmpty && len(bytes.TrimSpace(line)) == 0 {
		return true
	}
	if rc.ignoreLines != nil && rc.ignoreLines.Match(bytes.TrimSpace(line)) {
		return true
	}
	return false
}

// writeSorted spills the sorted records to a new temporary file.
func (w *sortWorker) writeSorted(records []lineRecord) (sortedChunkFile, error) {
	file, err := w.factory.Create()
	if err != nil {
		return sortedChunkFile{}, newDiskError(err, "create", "temp file")
	}
	out := tempfile.NewWriter(file, w.rc.bufferSize, w.rc.compress)
	for _, rec := range records {
		if _, err := out.Write(rec.line); err != nil {
			_ = out.Close()
			return sortedChunkFile{}, newDiskError(err, "write", file.Name())
		}
		if err := out.WriteByte(w.rc.endl); err != nil {
			_ = out.Close()
			return sortedChunkFile{}, newDiskError(err, "write", file.Name())
		}
	}
	if err := out.Close(); err != nil {
		return sortedChunkFile{}, newDiskError(err, "close", file.Name())
	}
	return sortedChunkFile{
		path:       file.Name(),
		lines:      int64(len(records)),
		compressed: w.rc.compress,
	}, nil
}

// Merge skips the chunk and sort phases and k-way merges the given already
// sorted files into the output, applying the configured prefix and suffix
// lines. Each input file is deleted once fully consumed.
func (s *Sorter) Merge(ctx context.Context, files []string) error {
	rc, err := compile(s.config)
	if err != nil {
		return err
	}
	restore, err := ensureFileLimit(rc.maxFiles)
	if err != nil {
		return err
	}
	defer restore()

	factory := tempfile.NewFactory(rc.tempDir, rc.tempPrefix, rc.tempSuffix)
	gov := newGovernor(rc.maxFiles)

	slog.Info("merging sorted files", slog.Int("files", len(files)))
	sources := make([]mergeSource, len(files))
	for i, f := range files {
		// caller provided files are raw text, never lz4 framed
		sources[i] = mergeSource{path: f, compressed: false}
	}
	merged, lines, err := mergeFiles(ctx, sources, rc, factory, gov, true)
	if err != nil {
		return s.fail(err, factory)
	}
	if err := os.Rename(merged, s.output); err != nil {
		return s.fail(newDiskError(err, "rename", merged), factory)
	}
	factory.Forget(merged)
	slog.Info("finished merging sorted files", slog.String("output", s.output), slog.Int64("lines", lines))
	return nil
}

func chunkParseError(err error, c chunk) error {
	return &ChunkError{Path: c.path, Offset: c.offset, Cause: err}
}
