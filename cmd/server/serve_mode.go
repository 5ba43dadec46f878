package main

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidServeMode = errors.New("invalid serve mode")

// ServeMode selects which tiers one server process mounts.
type ServeMode string

const (
	ServeModeMonolith ServeMode = "monolith"
	ServeModeWeb      ServeMode = "web"
	ServeModeAPI      ServeMode = "api"
)

type serveModeTiers struct {
	web bool
	api bool
}

var serveModes = map[ServeMode]serveModeTiers{
	ServeModeMonolith: {web: true, api: true},
	ServeModeWeb:      {web: true},
	ServeModeAPI:      {api: true},
}

// ParseServeMode accepts a mode name in any case; blank selects the monolith.
func ParseServeMode(rawInput string) (ServeMode, error) {
	normalized := ServeMode(strings.ToLower(strings.TrimSpace(rawInput)))
	if normalized == "" {
		return ServeModeMonolith, nil
	}
	if _, known := serveModes[normalized]; !known {
		return "", fmt.Errorf("%w: %q", ErrInvalidServeMode, rawInput)
	}
	return normalized, nil
}

// ServesWeb reports whether the mode mounts the public site and the admin panel.
func (mode ServeMode) ServesWeb() bool {
	return serveModes[mode].web
}

// ServesAPI reports whether the mode mounts the inquiry API.
func (mode ServeMode) ServesAPI() bool {
	return serveModes[mode].api
}

// CallsLocalAPI reports whether the admin panel reaches the inquiry API inside the same process.
func (mode ServeMode) CallsLocalAPI() bool {
	return mode.ServesWeb() && mode.ServesAPI()
}
