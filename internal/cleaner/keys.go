package cleaner

import (
	"strings"

	"github.com/zeebo/xxh3"

	"loadctl/internal/normalize"
)

const keySep = '\x1f'

// RenameHeader replaces header cells found in renames. Keys match the
// trimmed header text exactly or, failing that, by normalized identifier.
func (r *Result) RenameHeader(renames map[string]string) {
	if len(renames) == 0 {
		return
	}
	byIdent := make(map[string]string, len(renames))
	for from, to := range renames {
		byIdent[normalize.Identifier(from)] = to
	}
	for i, h := range r.Header {
		if to, ok := renames[strings.TrimSpace(h)]; ok {
			r.Header[i] = to
			continue
		}
		if to, ok := byIdent[normalize.Identifier(h)]; ok && normalize.Identifier(h) != "" {
			r.Header[i] = to
		}
	}
}

// DedupeByKey drops rows with an empty key field and keeps the first row for
// each distinct key. Key columns missing from the header are recorded in
// Stats and the pass is skipped.
func (r *Result) DedupeByKey(primaryKey []string) {
	if len(primaryKey) == 0 || r.Header == nil {
		return
	}
	header := normalize.Columns(r.Header)
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[h] = i
	}

	idx := make([]int, 0, len(primaryKey))
	for _, k := range primaryKey {
		i, ok := index[normalize.Identifier(k)]
		if !ok {
			r.Stats.MissingKeyCols = append(r.Stats.MissingKeyCols, k)
			continue
		}
		idx = append(idx, i)
	}
	if len(r.Stats.MissingKeyCols) > 0 {
		return
	}

	seen := make(map[xxh3.Uint128]struct{}, len(r.Rows))
	kept := r.Rows[:0]
	buf := make([]byte, 0, 64)

	for _, row := range r.Rows {
		buf = buf[:0]
		empty := false
		for n, i := range idx {
			if i >= len(row) || row[i] == "" {
				empty = true
				break
			}
			if n > 0 {
				buf = append(buf, keySep)
			}
			buf = append(buf, row[i]...)
		}
		if empty {
			r.Stats.NullKeyRows++
			continue
		}
		h := xxh3.Hash128(buf)
		if _, dup := seen[h]; dup {
			r.Stats.DuplicateRows++
			continue
		}
		seen[h] = struct{}{}
		kept = append(kept, row)
	}
	r.Rows = kept
}
