// Package cleaner normalizes raw CSV text before it is loaded.
//
// Rules, applied in order:
//   - decode as UTF-8 (BOM stripped), falling back to Latin-1
//   - normalize CRLF and lone CR line endings to LF
//   - per field: drop control characters other than tab, trim surrounding
//     whitespace, rewrite null tokens ("NULL", "null") to ""
//   - drop rows whose fields are all empty
//   - optionally drop rows with an empty primary key and repeated keys
//
// Output is re-encoded as RFC 4180 CSV with LF line endings. Cleaning is
// deterministic and idempotent: Clean(Clean(x)) == Clean(x).
package cleaner

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"loadctl/internal/errs"
	"loadctl/internal/logging"
)

const utf8BOM = "\uFEFF"

// DefaultNullTokens are rewritten to the empty string when no tokens are
// configured. The empty string itself is already canonical.
var DefaultNullTokens = []string{"NULL", "null"}

// Options configure a Cleaner.
type Options struct {
	// NullTokens are field values (after trimming) replaced by "".
	NullTokens []string
	// Comma is the field delimiter; zero means ','.
	Comma rune
}

// Cleaner applies the text normalization rules. It holds no per-call state
// and is safe for concurrent use.
type Cleaner struct {
	nullTokens map[string]struct{}
	comma      rune
	logger     *zap.Logger
}

// Stats counts what cleaning removed or changed.
type Stats struct {
	// Encoding is "utf-8" or "latin-1".
	Encoding        string
	BlankRows       int
	NullKeyRows     int
	DuplicateRows   int
	MissingKeyCols  []string
	ControlsRemoved int
}

// Dropped is the number of data rows removed by cleaning.
func (s Stats) Dropped() int { return s.BlankRows + s.NullKeyRows + s.DuplicateRows }

// Result is cleaned tabular content. Header is nil for empty input.
type Result struct {
	Header []string
	Rows   [][]string
	Stats  Stats
	comma  rune
}

// New builds a Cleaner. A nil logger disables logging.
func New(opts Options, logger *zap.Logger) *Cleaner {
	tokens := opts.NullTokens
	if len(tokens) == 0 {
		tokens = DefaultNullTokens
	}
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[strings.TrimSpace(t)] = struct{}{}
	}
	comma := opts.Comma
	if comma == 0 {
		comma = ','
	}
	return &Cleaner{nullTokens: set, comma: comma, logger: logging.OrNop(logger)}
}

// Clean applies the text rules with default options.
func Clean(raw []byte) ([]byte, error) {
	return New(Options{}, nil).Clean(raw)
}

// Clean applies the text rules to raw and returns the cleaned CSV. It fails
// only with an errs.EncodingError when raw cannot be decoded.
func (c *Cleaner) Clean(raw []byte) ([]byte, error) {
	res, err := c.Parse(raw, nil)
	if err != nil {
		return nil, err
	}
	return res.Bytes(), nil
}

// Parse decodes and cleans raw into a header and rows. The first non-blank
// row is the header. When primaryKey names columns (matched against the
// normalized header), rows with any empty key field are dropped and only the
// first row per key is kept.
func (c *Cleaner) Parse(raw []byte, primaryKey []string) (*Result, error) {
	text, enc, err := decode(raw)
	if err != nil {
		return nil, err
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	res := &Result{Stats: Stats{Encoding: enc}, comma: c.comma}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = c.comma
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// LazyQuotes accepts nearly anything; keep what was read.
			c.logger.Warn("cleaner: stopped at unparsable input", zap.Error(err), zap.Int("rows", len(res.Rows)))
			break
		}
		if !c.cleanRecord(rec, &res.Stats) {
			res.Stats.BlankRows++
			continue
		}
		if res.Header == nil {
			res.Header = rec
			continue
		}
		res.Rows = append(res.Rows, rec)
	}

	res.DedupeByKey(primaryKey)
	return res, nil
}

// cleanRecord rewrites rec in place and reports whether any field is non-empty.
func (c *Cleaner) cleanRecord(rec []string, st *Stats) bool {
	nonEmpty := false
	for i, f := range rec {
		f = stripControls(f, st)
		f = strings.TrimSpace(f)
		if _, ok := c.nullTokens[f]; ok {
			f = ""
		}
		rec[i] = f
		if f != "" {
			nonEmpty = true
		}
	}
	return nonEmpty
}

// stripControls removes control characters except tab and newline, and any
// stray byte order marks.
func stripControls(s string, st *Stats) string {
	if strings.IndexFunc(s, isStripped) < 0 {
		return s
	}
	return strings.Map(func(r rune) rune {
		if isStripped(r) {
			st.ControlsRemoved++
			return -1
		}
		return r
	}, s)
}

func isStripped(r rune) bool {
	if r == '\uFEFF' {
		return true
	}
	return unicode.IsControl(r) && r != '\t' && r != '\n'
}

// Bytes encodes the header and rows as CSV with LF line endings. Empty
// content encodes to an empty slice.
func (r *Result) Bytes() []byte {
	if r.Header == nil {
		return []byte{}
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if r.comma != 0 {
		w.Comma = r.comma
	}
	_ = w.Write(r.Header)
	for _, row := range r.Rows {
		_ = w.Write(row)
	}
	w.Flush()
	return buf.Bytes()
}

// decode returns raw as UTF-8 text and the encoding it was read as. Input
// that is not valid UTF-8 is read as Latin-1, which maps every byte to a code
// point; NUL and C1 controls that come through are removed per field.
func decode(raw []byte) (string, string, error) {
	raw = bytes.TrimPrefix(raw, []byte(utf8BOM))
	if utf8.Valid(raw) {
		return string(raw), "utf-8", nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", "", errs.E(errs.EncodingError, "decode latin-1", err)
	}
	return string(out), "latin-1", nil
}
