package domain

import (
	"fmt"
	"strings"
)

type Platform string

const (
	PlatformYouTube Platform = "youtube"
	PlatformTwitch  Platform = "twitch"
	PlatformX       Platform = "x"
	PlatformOther   Platform = "other"
)

type platformInfo struct {
	label      string
	updateText string
}

var platforms = map[Platform]platformInfo{
	PlatformYouTube: {label: "YouTube", updateText: "New video uploaded by %s"},
	PlatformTwitch:  {label: "Twitch", updateText: "%s just went live"},
	PlatformX:       {label: "X", updateText: "New post from %s"},
	PlatformOther:   {label: "Other", updateText: "New activity from %s"},
}

var platformAliases = map[string]Platform{
	"youtube": PlatformYouTube,
	"yt":      PlatformYouTube,
	"twitch":  PlatformTwitch,
	"x":       PlatformX,
	"twitter": PlatformX,
	"other":   PlatformOther,
}

func ParsePlatform(raw string) (Platform, error) {
	platform, ok := platformAliases[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, raw)
	}
	return platform, nil
}

// Normalize maps values that are not in the lookup table to PlatformOther.
func (p Platform) Normalize() Platform {
	if _, ok := platforms[p]; ok {
		return p
	}
	return PlatformOther
}

func (p Platform) Label() string {
	return platforms[p.Normalize()].label
}

// UpdateText is the simulated update line for an account on this platform.
func (p Platform) UpdateText(handleOrURL string) string {
	return fmt.Sprintf(platforms[p.Normalize()].updateText, handleOrURL)
}

func Platforms() []Platform {
	return []Platform{PlatformYouTube, PlatformTwitch, PlatformX, PlatformOther}
}
