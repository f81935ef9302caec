package explore

import (
	"bytes"
	"context"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"settingscout/internal/device"
	"settingscout/internal/inspector"
)

// twinDumps makes screen "b" dump exactly like screen "a".
type twinDumps struct {
	*device.Fake
}

func (d twinDumps) DumpTree(ctx context.Context) (string, error) {
	s, err := d.Fake.DumpTree(ctx)
	return strings.ReplaceAll(s, "b#2", "a#2"), err
}

func shotOf(t *testing.T, name string) []byte {
	t.Helper()
	shot, err := device.NewFake(name, &device.FakeScreen{Name: name}).Screenshot(context.Background())
	require.NoError(t, err)
	return shot
}

func TestCachedInspectionKeepsIdenticalTreesApart(t *testing.T) {
	pages := []struct {
		shot []byte
		page *inspector.Page
	}{
		{shotOf(t, "privacy"), &inspector.Page{Layouts: []inspector.Layout{{Text: "Ads"}, {Text: "Location"}}}},
		{shotOf(t, "a"), &inspector.Page{Switches: []inspector.Switch{{Text: "Personalized ads", CurrentState: "on", RecommendedState: "off"}}}},
		{shotOf(t, "b"), &inspector.Page{Switches: []inspector.Switch{{Text: "Precise location", CurrentState: "on", RecommendedState: "off"}}}},
	}
	byShot := inspector.Func(func(ctx context.Context, d device.Driver) (*inspector.Page, error) {
		shot, err := d.Screenshot(ctx)
		if err != nil {
			return nil, err
		}
		for _, p := range pages {
			if bytes.Equal(p.shot, shot) {
				return p.page, nil
			}
		}
		return &inspector.Page{}, nil
	})
	fake := device.NewFake("privacy",
		&device.FakeScreen{Name: "privacy", Rows: []device.FakeRow{row(0, "Ads", "a"), row(1, "Location", "b")}},
		&device.FakeScreen{Name: "a"},
		&device.FakeScreen{Name: "b"},
	)
	dev := twinDumps{fake}
	cached, err := inspector.NewCached(byShot, 64, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	e := NewEngine(dev, cached, nil, DefaultOptions(), NoWait, log.New(io.Discard, "", 0))

	out := e.Explore(context.Background(), NewPath())
	require.True(t, out.Success)

	recs := e.Store.Switches()
	require.Len(t, recs, 2)
	require.Equal(t, []string{"Ads", "Personalized ads"}, texts(recs[0].Path))
	require.Equal(t, []string{"Location", "Precise location"}, texts(recs[1].Path))
	require.Equal(t, 0, cached.Hits)
}
