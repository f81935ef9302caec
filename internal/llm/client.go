package llm

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrInvalidJSON = errors.New("llm: invalid JSON from model")
	ErrEmptyReply  = errors.New("llm: empty reply from model")
)

// Media is an inline attachment (screenshots) sent alongside the prompt.
type Media struct {
	MIMEType string
	Data     []byte
}

// Client is a vision-capable model that answers with a JSON document.
type Client interface {
	Name() string
	GenerateJSON(ctx context.Context, prompt string, media ...Media) (json.RawMessage, error)
	Close() error
}

type ctxKeyPhase struct{}

// WithPhase tags the context with the caller's phase ("inspect",
// "entry.settings", ...) for logging.
func WithPhase(ctx context.Context, phase string) context.Context {
	return context.WithValue(ctx, ctxKeyPhase{}, phase)
}

// PhaseFrom returns the phase stored in the context, or "".
func PhaseFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxKeyPhase{}).(string); ok {
		return v
	}
	return ""
}

func mediaBytes(media []Media) int {
	n := 0
	for _, m := range media {
		n += len(m.Data)
	}
	return n
}
