package inspector

import (
	"context"
	"errors"

	"settingscout/internal/device"
)

// ErrNoClassification is returned when the inspector could not classify the
// current screen. The traversal treats it as fatal for the current frame.
var ErrNoClassification = errors.New("inspector: no classification")

// Switch is a toggle reported on a screen.
type Switch struct {
	Text             string `json:"text"`
	CurrentState     string `json:"current_state"`
	RecommendedState string `json:"recommended_state"`
	Analysis         string `json:"analysis"`
}

// Layout is a navigable row leading to another screen.
type Layout struct {
	Text string `json:"text"`
}

// Personalization groups ad/content personalization entries, reported
// separately from general privacy switches.
type Personalization struct {
	Switches []Switch `json:"switches"`
	Layouts  []Layout `json:"layouts"`
}

// Page is the classification of one screen snapshot.
type Page struct {
	IsPopup         bool            `json:"isPopup"`
	Switches        []Switch        `json:"switches"`
	Personalization Personalization `json:"personalization"`
	Layouts         []Layout        `json:"layouts"`
}

// Inspector classifies whatever the device currently shows.
type Inspector interface {
	Inspect(ctx context.Context, d device.Driver) (*Page, error)
}

// Func adapts a plain function to Inspector.
type Func func(ctx context.Context, d device.Driver) (*Page, error)

func (f Func) Inspect(ctx context.Context, d device.Driver) (*Page, error) {
	return f(ctx, d)
}
