package textsort

import "bytes"

// lineRecord is one input line prepared for comparison: the raw line bytes
// (terminator stripped) plus one extracted key per configured field.
// Records live only for the duration of a single chunk sort or merge step;
// their line bytes may borrow from the originating chunk buffer.
type lineRecord struct {
	line []byte
	keys []key
}

// parseRecord extracts the configured keys from line. line must not include
// the terminator. The field layout was validated when the run config was
// built, so index-0 fields only ever appear alone.
func parseRecord(line []byte, rc *runConfig) (lineRecord, error) {
	keys := make([]key, 0, len(rc.fields))
	if rc.wholeLine {
		k, err := newKey(line, rc.fields[0], rc.shuffleSeed)
		if err != nil {
			return lineRecord{}, err
		}
		return lineRecord{line: line, keys: append(keys, k)}, nil
	}

	parts := splitFields(line, rc.separator)
	for _, f := range rc.fields {
		if f.Index > len(parts) {
			return lineRecord{}, &ParseError{
				Field: f.label(),
				Value: string(line),
				Cause: errMissingField(f.Index, len(parts), rc.separator),
			}
		}
		k, err := newKey(parts[f.Index-1], f, rc.shuffleSeed)
		if err != nil {
			return lineRecord{}, err
		}
		keys = append(keys, k)
	}
	return lineRecord{line: line, keys: keys}, nil
}

// splitFields splits line on the single-byte separator. The returned slices
// borrow from line.
func splitFields(line []byte, sep byte) [][]byte {
	n := bytes.Count(line, []byte{sep}) + 1
	parts := make([][]byte, 0, n)
	for {
		i := bytes.IndexByte(line, sep)
		if i < 0 {
			return append(parts, line)
		}
		parts = append(parts, line[:i])
		line = line[i+1:]
	}
}

// compareRecords orders records lexicographically over their key sequences,
// negating each comparison for fields sorted descending.
func compareRecords(a, b lineRecord, rc *runConfig) int {
	for i := range a.keys {
		c := a.keys[i].compare(b.keys[i])
		if c == 0 {
			continue
		}
		if rc.fieldOrders[i] == Desc {
			return -c
		}
		return c
	}
	return 0
}
