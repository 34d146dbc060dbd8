// Package report renders run outcomes as a JSON results file and a short
// human-readable summary.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"loadctl/internal/loader"
	"loadctl/internal/pipeline"
	"loadctl/internal/verifier"
)

// Run is the results document of one run.
type Run struct {
	RunID      string    `json:"run_id"`
	Command    string    `json:"command"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	TotalTables          int     `json:"total_tables"`
	Successful           int     `json:"successful"`
	Partial              int     `json:"partial"`
	Failed               int     `json:"failed"`
	TotalRowsLoaded      int64   `json:"total_rows_loaded"`
	CompletionPercentage float64 `json:"completion_percentage"`

	Truncations   []pipeline.TruncateResult     `json:"truncations,omitempty"`
	Loads         []loader.LoadResult           `json:"loads"`
	Verifications []verifier.VerificationResult `json:"verifications"`
	Verification  *verifier.Summary             `json:"verification,omitempty"`
	SuccessRate   float64                       `json:"success_rate"`
}

// New builds the results document for res. Counts are derived from the
// loads; the success rate from the verifications.
func New(runID, command string, started, finished time.Time, res *pipeline.Result) *Run {
	r := &Run{
		RunID:         runID,
		Command:       command,
		StartedAt:     started.UTC(),
		FinishedAt:    finished.UTC(),
		Truncations:   res.Truncations,
		Loads:         res.Loads,
		Verifications: res.Verifications,
	}
	if r.Loads == nil {
		r.Loads = []loader.LoadResult{}
	}
	if r.Verifications == nil {
		r.Verifications = []verifier.VerificationResult{}
	}

	for _, l := range res.Loads {
		switch l.Status {
		case loader.StatusSuccess:
			r.Successful++
		case loader.StatusPartial:
			r.Partial++
		case loader.StatusFailed:
			r.Failed++
		}
		r.TotalRowsLoaded += l.RowsLoaded
	}
	r.TotalTables = len(res.Loads)
	if r.TotalTables == 0 {
		r.TotalTables = len(res.Verifications)
	}
	if len(res.Loads) > 0 {
		r.CompletionPercentage = float64(r.Successful) / float64(len(res.Loads)) * 100
	}
	if len(res.Verifications) > 0 {
		s := verifier.Summarize(res.Verifications)
		r.Verification = &s
		r.SuccessRate = s.SuccessRate
	}
	return r
}

// FileName is the name WriteJSON uses, e.g. "run_20240501T101500Z_1b4e28ba.json".
func (r *Run) FileName() string {
	id := r.RunID
	if len(id) > 8 {
		id = id[:8]
	}
	name := r.Command
	if name == "" {
		name = "run"
	}
	return fmt.Sprintf("%s_%s_%s.json", name, r.StartedAt.Format("20060102T150405Z"), id)
}

// WriteJSON writes the document into dir, creating it if needed, and
// returns the file path.
func (r *Run) WriteJSON(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("report: create %s: %w", dir, err)
	}
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("report: encode: %w", err)
	}
	path := filepath.Join(dir, r.FileName())
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("report: write %s: %w", path, err)
	}
	return path, nil
}

// WriteSummary prints tables of the outcomes followed by the totals.
func (r *Run) WriteSummary(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	if len(r.Truncations) > 0 {
		fmt.Fprintln(tw, "TABLE\tTRUNCATED\tSTATUS\tERROR")
		for _, t := range r.Truncations {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", t.Table, t.RowsTruncated, t.Status, t.Error)
		}
		fmt.Fprintln(tw)
	}
	if len(r.Loads) > 0 {
		fmt.Fprintln(tw, "FILE\tTABLE\tSTATUS\tREAD\tLOADED\tDETAIL")
		for _, l := range r.Loads {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
				l.FileName, l.DestinationTable, l.Status, l.RowsRead, l.RowsLoaded, oneLine(l.ErrorDetail))
		}
		fmt.Fprintln(tw)
	}
	if len(r.Verifications) > 0 {
		fmt.Fprintln(tw, "TABLE\tEXPECTED\tACTUAL\tSTATUS\tDETAIL")
		for _, v := range r.Verifications {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n",
				v.DestinationTable, v.ExpectedRows, v.ActualRows, v.Status, oneLine(v.ErrorDetail))
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Loads) > 0 {
		fmt.Fprintf(w, "loads: %d total, %d successful, %d partial, %d failed, %d rows loaded (%.1f%% complete)\n",
			len(r.Loads), r.Successful, r.Partial, r.Failed, r.TotalRowsLoaded, r.CompletionPercentage)
	}
	if r.Verification != nil {
		fmt.Fprintf(w, "verification: %d/%d tables match (success rate %.1f%%)\n",
			r.Verification.Matches, r.Verification.Total, r.SuccessRate*100)
	}
	_, err := fmt.Fprintf(w, "run %s finished in %s\n", r.RunID, r.FinishedAt.Sub(r.StartedAt).Truncate(time.Millisecond))
	return err
}

// oneLine keeps tabular output on one row per result.
func oneLine(s string) string {
	const width = 120
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > width {
		s = s[:width-3] + "..."
	}
	return s
}
