package inspector

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"settingscout/internal/device"
	"settingscout/internal/llm"
)

var quiet = log.New(io.Discard, "", 0)

func TestParsePageNormalizesEntries(t *testing.T) {
	raw := []byte("```json\n" + `{
  "isPopup": false,
  "switches": [
    {"text": " Location ", "current_state": "OFF", "recommended_state": "On", "analysis": "x"},
    {"text": "", "current_state": "on"}
  ],
  "layouts": [{"text": "Advanced"}, {"text": "  "}]
}` + "\n```")
	p, err := ParsePage(raw)
	require.NoError(t, err)
	require.False(t, p.IsPopup)
	require.Equal(t, []Switch{{Text: "Location", CurrentState: "off", RecommendedState: "on", Analysis: "x"}}, p.Switches)
	require.Equal(t, []Layout{{Text: "Advanced"}}, p.Layouts)
	require.NotNil(t, p.Personalization.Switches)
	require.Empty(t, p.Personalization.Layouts)
}

func TestParsePageRejectsEmptyClassification(t *testing.T) {
	_, err := ParsePage([]byte(`{}`))
	require.ErrorIs(t, err, ErrNoClassification)

	_, err = ParsePage([]byte(`not json`))
	require.ErrorIs(t, err, ErrNoClassification)

	p, err := ParsePage([]byte(`{"isPopup": true}`))
	require.NoError(t, err)
	require.True(t, p.IsPopup)
}

func TestVisionSendsCompressedScreenshot(t *testing.T) {
	fake := llm.NewFakeClient().OnPhase("inspect", llm.FakeReply{JSON: `{"isPopup":false,"personalization":{"layouts":[{"text":"Ads"}]}}`})
	dev := device.NewFake("home", &device.FakeScreen{Name: "home"})

	p, err := NewVision(fake, quiet).Inspect(context.Background(), dev)
	require.NoError(t, err)
	require.Equal(t, []Layout{{Text: "Ads"}}, p.Personalization.Layouts)
	require.Len(t, fake.Calls, 1)
	require.Equal(t, 1, fake.Calls[0].Media)
	require.True(t, strings.Contains(fake.Calls[0].Prompt, "isPopup"))
}

func TestVisionPropagatesModelFailure(t *testing.T) {
	fake := llm.NewFakeClient(llm.FakeReply{Err: errors.New("quota")})
	dev := device.NewFake("home", &device.FakeScreen{Name: "home"})
	_, err := NewVision(fake, quiet).Inspect(context.Background(), dev)
	require.Error(t, err)
}

func TestCachedReusesClassificationForIdenticalTree(t *testing.T) {
	calls := 0
	inner := Func(func(ctx context.Context, d device.Driver) (*Page, error) {
		calls++
		return &Page{IsPopup: calls > 1}, nil
	})
	dev := device.NewFake("home",
		&device.FakeScreen{Name: "home", Rows: []device.FakeRow{{Text: "Next", Bounds: device.Rect{Left: 0, Top: 500, Right: 1080, Bottom: 600}, Target: "next"}}},
		&device.FakeScreen{Name: "next"},
	)
	c, err := NewCached(inner, 8, quiet)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := c.Inspect(ctx, dev)
	require.NoError(t, err)
	again, err := c.Inspect(ctx, dev)
	require.NoError(t, err)
	require.Same(t, first, again)
	require.Equal(t, 1, calls)

	require.NoError(t, dev.Tap(ctx, 540, 550))
	other, err := c.Inspect(ctx, dev)
	require.NoError(t, err)
	require.True(t, other.IsPopup)
	require.Equal(t, 1, c.Hits)
	require.Equal(t, 2, c.Misses)
}

func TestCachedDoesNotStoreFailures(t *testing.T) {
	calls := 0
	inner := Func(func(ctx context.Context, d device.Driver) (*Page, error) {
		calls++
		if calls == 1 {
			return nil, ErrNoClassification
		}
		return &Page{}, nil
	})
	dev := device.NewFake("home", &device.FakeScreen{Name: "home"})
	c, err := NewCached(inner, 0, quiet)
	require.NoError(t, err)

	_, err = c.Inspect(context.Background(), dev)
	require.ErrorIs(t, err, ErrNoClassification)
	_, err = c.Inspect(context.Background(), dev)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

// sameTree makes every screen dump identically, as canvas-rendered pages do.
type sameTree struct {
	*device.Fake
}

func (sameTree) DumpTree(context.Context) (string, error) {
	return `<hierarchy rotation="0"><node text="" bounds="[0,0][1080,2400]"/></hierarchy>`, nil
}

func TestCachedSeparatesScreensWithIdenticalTree(t *testing.T) {
	fake := device.NewFake("home",
		&device.FakeScreen{Name: "home", Rows: []device.FakeRow{{Text: "Next", Bounds: device.Rect{Left: 0, Top: 500, Right: 1080, Bottom: 600}, Target: "next"}}},
		&device.FakeScreen{Name: "next"},
	)
	dev := sameTree{fake}
	var seen [][]byte
	inner := Func(func(ctx context.Context, d device.Driver) (*Page, error) {
		shot, err := d.Screenshot(ctx)
		if err != nil {
			return nil, err
		}
		seen = append(seen, shot)
		return &Page{Layouts: []Layout{{Text: fake.Current()}}}, nil
	})
	c, err := NewCached(inner, 8, quiet)
	require.NoError(t, err)
	ctx := context.Background()

	home, err := c.Inspect(ctx, dev)
	require.NoError(t, err)
	require.NoError(t, fake.Tap(ctx, 540, 550))
	next, err := c.Inspect(ctx, dev)
	require.NoError(t, err)

	require.Equal(t, "home", home.Layouts[0].Text)
	require.Equal(t, "next", next.Layouts[0].Text)
	require.Equal(t, 0, c.Hits)
	require.Len(t, seen, 2)
	require.NotEqual(t, seen[0], seen[1])

	want, err := fake.Screenshot(ctx)
	require.NoError(t, err)
	require.Equal(t, want, seen[1], "inner inspector classifies the keyed screenshot")
}
