package artifact

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrNotFound = errors.New("artifact not found")

// Store persists run artifacts (reports, screenshots) keyed by run ID and a
// slash-separated relative path.
type Store interface {
	Put(ctx context.Context, runID, path string, content []byte) error
	Get(ctx context.Context, runID, path string) ([]byte, error)
	List(ctx context.Context, runID string) ([]string, error)
}

// URLer is implemented by stores that can hand out a download URL.
type URLer interface {
	GetURL(ctx context.Context, runID, path string) (string, error)
}

func normalize(runID, path string) (string, string, error) {
	runID = strings.TrimSpace(runID)
	path = strings.TrimLeft(strings.TrimSpace(path), "/")
	if runID == "" {
		return "", "", fmt.Errorf("run_id is required")
	}
	if path == "" {
		return "", "", fmt.Errorf("path is required")
	}
	if strings.Contains(path, "..") {
		return "", "", fmt.Errorf("path %q escapes the run directory", path)
	}
	return runID, path, nil
}

func objectKey(runID, path string) string {
	return runID + "/" + path
}
