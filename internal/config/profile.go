package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"settingscout/internal/explore"
)

// LoadProfile overlays the YAML file at path onto base. Keys that are absent
// keep their base value; unknown keys are rejected. Durations use Go syntax
// ("500ms", "2s").
func LoadProfile(path string, base explore.Options) (explore.Options, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("config: read profile: %w", err)
	}
	return ParseProfile(raw, base)
}

func ParseProfile(raw []byte, base explore.Options) (explore.Options, error) {
	opts := base
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil {
		if errors.Is(err, io.EOF) {
			return base, nil
		}
		return base, fmt.Errorf("config: parse profile: %w", err)
	}
	if err := validate(opts); err != nil {
		return base, err
	}
	return opts, nil
}

func validate(o explore.Options) error {
	switch {
	case o.LocateAttempts < 1:
		return fmt.Errorf("config: locate_attempts must be at least 1")
	case o.TapRetries < 1:
		return fmt.Errorf("config: tap_retries must be at least 1")
	case o.ExploreScrolls < 0:
		return fmt.Errorf("config: explore_scrolls must not be negative")
	case o.PopupDismissY <= 0 || o.PopupDismissY >= 1:
		return fmt.Errorf("config: popup_dismiss_y must be within (0,1)")
	}
	return nil
}
