package platform

import (
	"errors"
	"strings"
)

// Platform identifies a supported external social platform.
type Platform string

const (
	Instagram  Platform = "instagram"
	TikTok     Platform = "tiktok"
	YouTube    Platform = "youtube"
	Spotify    Platform = "spotify"
	SoundCloud Platform = "soundcloud"
	Facebook   Platform = "facebook"
	Twitter    Platform = "twitter"
)

// Category groups platforms by the shape of the metrics they expose.
type Category string

const (
	CategoryFollower   Category = "follower"
	CategorySubscriber Category = "subscriber"
	CategoryListener   Category = "listener"
)

var ErrUnsupported = errors.New("unsupported_platform")

var all = []Platform{
	Instagram,
	TikTok,
	YouTube,
	Spotify,
	SoundCloud,
	Facebook,
	Twitter,
}

// All returns every supported platform in fixed order.
func All() []Platform {
	out := make([]Platform, len(all))
	copy(out, all)
	return out
}

// Parse validates a raw platform identifier.
func Parse(raw string) (Platform, error) {
	value := Platform(strings.ToLower(strings.TrimSpace(raw)))
	for _, p := range all {
		if p == value {
			return p, nil
		}
	}
	return "", ErrUnsupported
}

// Category returns the metric shape of the platform.
func (p Platform) Category() Category {
	switch p {
	case YouTube:
		return CategorySubscriber
	case Spotify, SoundCloud:
		return CategoryListener
	default:
		return CategoryFollower
	}
}

func (p Platform) String() string {
	return string(p)
}

// NormalizeUsername trims whitespace and a single leading @.
func NormalizeUsername(raw string) string {
	username := strings.TrimSpace(raw)
	username = strings.TrimPrefix(username, "@")
	return strings.TrimSpace(username)
}
