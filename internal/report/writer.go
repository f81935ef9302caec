package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"settingscout/internal/artifact"
	"settingscout/internal/util/jsonutil"
)

// Dir is the artifact directory reports are written under.
const Dir = "all_paths_results"

// Writer persists reports into an artifact store.
type Writer struct {
	Store artifact.Store
	Now   func() time.Time
}

func NewWriter(store artifact.Store) *Writer {
	return &Writer{Store: store, Now: time.Now}
}

// FileName returns "<pkg with dots as underscores>_<YYYYMMDD_HHMMSS>.json".
func FileName(pkg string, at time.Time) string {
	safe := strings.ReplaceAll(strings.TrimSpace(pkg), ".", "_")
	if safe == "" {
		safe = "unknown"
	}
	return fmt.Sprintf("%s_%s.json", safe, at.Format("20060102_150405"))
}

// Write stores rep as indented JSON under runID and returns its artifact path.
func (w *Writer) Write(ctx context.Context, runID, pkg string, rep Report) (string, error) {
	if w == nil || w.Store == nil {
		return "", fmt.Errorf("report: writer has no store")
	}
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	body, err := Encode(rep)
	if err != nil {
		return "", err
	}
	path := Dir + "/" + FileName(pkg, now())
	if err := w.Store.Put(ctx, runID, path, body); err != nil {
		return "", fmt.Errorf("report: put %s: %w", path, err)
	}
	return path, nil
}

// Encode renders rep as indented JSON with non-ASCII text kept verbatim.
func Encode(rep Report) ([]byte, error) {
	return jsonutil.MarshalNoEscapeIndent(rep, "", "  ")
}

// Decode parses a persisted report.
func Decode(raw []byte) (Report, error) {
	rep := New()
	if err := json.Unmarshal(raw, &rep); err != nil {
		return Report{}, fmt.Errorf("report: decode: %w", err)
	}
	return rep, nil
}
