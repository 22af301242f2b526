package textsort

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.dat")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func collectChunks(t *testing.T, path string, jump int64) []chunk {
	t.Helper()
	it, err := newChunkIterator(path, jump, '\n')
	require.NoError(t, err)
	var chunks []chunk
	for {
		c, ok, err := it.next()
		require.NoError(t, err)
		if !ok {
			return chunks
		}
		chunks = append(chunks, c)
	}
}

func TestChunksReconstructFile(t *testing.T) {
	content := "aaaa\nbb\ncccccc\nd\neeeee\n"
	path := writeInput(t, content)

	for _, jump := range []int64{1, 3, 5, 8, 100} {
		chunks := collectChunks(t, path, jump)
		var rebuilt strings.Builder
		var pos int64
		for _, c := range chunks {
			require.Equal(t, pos, c.offset, "chunks must be contiguous")
			data := make([]byte, c.length)
			f, err := os.Open(path)
			require.NoError(t, err)
			_, err = f.ReadAt(data, c.offset)
			require.NoError(t, err)
			require.NoError(t, f.Close())
			rebuilt.Write(data)
			pos += c.length
		}
		require.Equal(t, content, rebuilt.String(), "jump %d", jump)
	}
}

func TestChunkBoundariesEndOnTerminator(t *testing.T) {
	content := "aaaa\nbb\ncccccc\nd\neeeee\n"
	path := writeInput(t, content)

	chunks := collectChunks(t, path, 4)
	for i, c := range chunks {
		if i == len(chunks)-1 {
			continue
		}
		require.Equal(t, byte('\n'), content[c.offset+c.length-1],
			"chunk %d must end at a line terminator", i)
	}
}

func TestChunkEmptyFile(t *testing.T) {
	path := writeInput(t, "")
	require.Empty(t, collectChunks(t, path, 100))
}

func TestChunkSingleOversizedLine(t *testing.T) {
	content := strings.Repeat("x", 1000) + "\n"
	path := writeInput(t, content)

	chunks := collectChunks(t, path, 10)
	require.Len(t, chunks, 1)
	require.Equal(t, int64(len(content)), chunks[0].length)
}

func TestChunkJumpLargerThanFile(t *testing.T) {
	content := "1\n2\n3\n"
	path := writeInput(t, content)

	chunks := collectChunks(t, path, int64(len(content))+18)
	require.Len(t, chunks, 1)
	require.Equal(t, int64(0), chunks[0].offset)
	require.Equal(t, int64(len(content)), chunks[0].length)
}

func TestChunkNoTrailingTerminator(t *testing.T) {
	content := "aa\nbb\ncc"
	path := writeInput(t, content)

	chunks := collectChunks(t, path, 4)
	var total int64
	for _, c := range chunks {
		total += c.length
	}
	require.Equal(t, int64(len(content)), total)
}

func TestChunkUTF8NeverSplit(t *testing.T) {
	// multi-byte runes with boundaries forced at awkward byte offsets
	content := "héllo wörld\n日本語テキスト\nпривет\n"
	path := writeInput(t, content)

	for jump := int64(1); jump < int64(len(content)); jump++ {
		chunks := collectChunks(t, path, jump)
		for i, c := range chunks {
			if i == len(chunks)-1 {
				continue
			}
			require.Equal(t, byte('\n'), content[c.offset+c.length-1],
				"jump %d chunk %d boundary not on terminator", jump, i)
		}
	}
}
