package engine

import (
	"fmt"
	"time"
)

// Freshness state tags, exposed to intermediate caches through the
// X-Playing-State header.
const (
	StatePlaying = "playing"
	StatePaused  = "paused"
)

// Freshness carries the cache directives derived from a snapshot, for
// consumption by any intermediate HTTP cache.
type Freshness struct {
	MaxAge               time.Duration
	StaleWhileRevalidate time.Duration
	State                string
}

// FreshnessFor derives cache metadata from a snapshot. Playing state
// goes stale quickly; idle state can be served an order of magnitude
// longer.
func FreshnessFor(snapshot PlaybackSnapshot) Freshness {
	if snapshot.IsPlaying {
		return Freshness{
			MaxAge:               5 * time.Second,
			StaleWhileRevalidate: 10 * time.Second,
			State:                StatePlaying,
		}
	}
	return Freshness{
		MaxAge:               60 * time.Second,
		StaleWhileRevalidate: 120 * time.Second,
		State:                StatePaused,
	}
}

// CacheControl renders the Cache-Control header value.
func (f Freshness) CacheControl() string {
	return fmt.Sprintf("s-maxage=%d, stale-while-revalidate=%d",
		int(f.MaxAge.Seconds()), int(f.StaleWhileRevalidate.Seconds()))
}
