package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/pjw57/nowspinning/internal/telemetry"
	"github.com/pjw57/nowspinning/pkg/spotify"
)

// UpstreamClient performs the two outbound calls against the upstream
// service. Implementations do not cache and do not retry; both
// policies live in the engine.
type UpstreamClient interface {
	// RefreshAccessToken exchanges the stored refresh token for a
	// short-lived access token.
	RefreshAccessToken(ctx context.Context) (*spotify.AccessToken, error)

	// CurrentlyPlaying reads the playback state. A nil result with a
	// nil error means nothing is playing.
	CurrentlyPlaying(ctx context.Context, accessToken string) (*spotify.CurrentlyPlaying, error)
}

// NewUpstream adapts a spotify.Client to the UpstreamClient interface.
func NewUpstream(client *spotify.Client) UpstreamClient {
	return &upstream{client: client}
}

type upstream struct {
	client *spotify.Client
}

func (u *upstream) RefreshAccessToken(ctx context.Context) (*spotify.AccessToken, error) {
	return u.client.Auth().RefreshAccessToken(ctx)
}

func (u *upstream) CurrentlyPlaying(ctx context.Context, accessToken string) (*spotify.CurrentlyPlaying, error) {
	return u.client.Player().CurrentlyPlaying(ctx, accessToken)
}

// Options configures an Engine.
type Options struct {
	Upstream   UpstreamClient         // Required: performs the outbound calls
	Logger     zerolog.Logger         // Base logger; the engine attaches its component field
	Metrics    telemetry.Collector    // Optional: defaults to a noop collector
	Policy     *Policy                // Optional: defaults to NewPolicy()
	Intervals  Intervals              // Optional: zero fields replaced by defaults
	Resource   string                 // Logical identity of the tracked account
	OnSnapshot func(PlaybackSnapshot) // Optional: invoked after every successful fetch
	Now        func() time.Time       // Optional: clock override for tests
}

// Engine owns the snapshot cache, the request coalescer and the
// upstream call chain for one tracked resource. It is constructed once
// per process and shared by reference: many readers, one writer
// discipline per key.
type Engine struct {
	upstream   UpstreamClient
	cache      *snapshotCache
	policy     *Policy
	intervals  Intervals
	logger     zerolog.Logger
	metrics    telemetry.Collector
	resource   string
	onSnapshot func(PlaybackSnapshot)
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) bool

	group singleflight.Group

	mu          sync.Mutex
	lastPlaying bool
}

const outcomeSuccess = "success"

// New creates an Engine from the given options.
func New(opts Options) (*Engine, error) {
	if opts.Upstream == nil {
		return nil, fmt.Errorf("engine: upstream client is required")
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.Noop()
	}
	policy := opts.Policy
	if policy == nil {
		policy = NewPolicy()
	}
	resource := opts.Resource
	if resource == "" {
		resource = "default"
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Engine{
		upstream:   opts.Upstream,
		cache:      newSnapshotCache(now),
		policy:     policy,
		intervals:  opts.Intervals.withDefaults(),
		logger:     opts.Logger.With().Str("component", "engine").Logger(),
		metrics:    metrics,
		resource:   resource,
		onSnapshot: opts.OnSnapshot,
		now:        now,
		sleep:      sleep,
	}, nil
}

// LastPlaying returns the playing flag of the last successful fetch.
func (e *Engine) LastPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastPlaying
}

// cacheKey derives the cache key from the resource identity and a
// playing flag. Keying reads by the last observed flag means a stale
// "playing" entry is never consulted again once playback has stopped,
// and vice versa.
func (e *Engine) cacheKey(playing bool) string {
	return fmt.Sprintf("%s|playing=%t", e.resource, playing)
}

// Snapshot returns the current playback snapshot, serving from the
// cache while the entry is fresh and triggering a single coalesced
// fetch otherwise.
func (e *Engine) Snapshot(ctx context.Context) (PlaybackSnapshot, error) {
	key := e.cacheKey(e.LastPlaying())
	if snapshot, ok := e.cache.Get(key); ok {
		e.metrics.IncCacheLookup(true)
		return snapshot, nil
	}
	e.metrics.IncCacheLookup(false)
	return e.fetch(ctx)
}

// fetch starts, or joins, the single in-flight fetch for the resource.
// All callers that arrive while the fetch is in flight observe the
// same settled value.
func (e *Engine) fetch(ctx context.Context) (PlaybackSnapshot, error) {
	ch := e.group.DoChan(e.resource, func() (interface{}, error) {
		// The producer runs detached from the triggering caller: one
		// caller's cancellation must not fail a result other waiters
		// share, and a fetch completing after shutdown still writes
		// the cache for subsequent readers.
		snapshot, err := e.fetchUpstream(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		return snapshot, nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			e.metrics.IncCoalescedWait()
		}
		if res.Err != nil {
			return PlaybackSnapshot{}, res.Err
		}
		return res.Val.(PlaybackSnapshot), nil
	case <-ctx.Done():
		return PlaybackSnapshot{}, ctx.Err()
	}
}

// fetchUpstream runs one full fetch cycle and records its outcome.
func (e *Engine) fetchUpstream(ctx context.Context) (PlaybackSnapshot, error) {
	started := e.now()

	snapshot, rec := e.runCycle(ctx)
	if rec != nil {
		e.metrics.ObserveFetch(rec.Classification.String(), e.now().Sub(started))
		e.logger.Error().
			Err(rec.Err).
			Stringer("classification", rec.Classification).
			Int("attempt", rec.Attempt).
			Msg("Fetch cycle failed")
		return PlaybackSnapshot{}, rec
	}

	e.metrics.ObserveFetch(outcomeSuccess, e.now().Sub(started))
	e.logger.Debug().
		Bool("is_playing", snapshot.IsPlaying).
		Stringer("content_type", snapshot.ContentType).
		Msg("Fetch cycle succeeded")
	return snapshot, nil
}

// runCycle performs credential refresh followed by the playback read.
// When the read fails with an auth error the cycle refreshes once more
// and repeats the read: the short-lived token died between the two
// calls, and retrying with the same credential can never succeed.
func (e *Engine) runCycle(ctx context.Context) (PlaybackSnapshot, *FailureRecord) {
	token, rec := e.refreshCredential(ctx)
	if rec != nil {
		return PlaybackSnapshot{}, rec
	}

	raw, rec := e.readPlayback(ctx, token.AccessToken)
	if rec != nil && rec.Classification == AuthError {
		e.logger.Warn().Msg("Access token rejected right after refresh, forcing a second refresh")
		token, rec = e.refreshCredential(ctx)
		if rec != nil {
			return PlaybackSnapshot{}, rec
		}
		raw, rec = e.readPlayback(ctx, token.AccessToken)
	}
	if rec != nil {
		return PlaybackSnapshot{}, rec
	}

	snapshot := NormalizeSnapshot(raw)
	e.store(snapshot)
	return snapshot, nil
}

// refreshCredential exchanges the stored refresh token for an access
// token within the retry budget for the token call type.
func (e *Engine) refreshCredential(ctx context.Context) (*spotify.AccessToken, *FailureRecord) {
	var token *spotify.AccessToken
	rec := e.withRetry(ctx, string(spotify.CallTokenRefresh), func(ctx context.Context) error {
		refreshed, err := e.upstream.RefreshAccessToken(ctx)
		if err != nil {
			return err
		}
		token = refreshed
		return nil
	})
	if rec != nil {
		return nil, rec
	}
	return token, nil
}

// readPlayback reads the playback state within the retry budget for
// the playback call type. A nil snapshot with a nil record means the
// upstream reported nothing playing.
func (e *Engine) readPlayback(ctx context.Context, accessToken string) (*spotify.CurrentlyPlaying, *FailureRecord) {
	var raw *spotify.CurrentlyPlaying
	rec := e.withRetry(ctx, string(spotify.CallCurrentlyPlaying), func(ctx context.Context) error {
		playing, err := e.upstream.CurrentlyPlaying(ctx, accessToken)
		if err != nil {
			return err
		}
		raw = playing
		return nil
	})
	if rec != nil {
		return nil, rec
	}
	return raw, nil
}

// withRetry drives one call type through the bounded retry loop,
// classifying each failure and honoring upstream rate limit hints.
// Attempt counts live on the stack here, so the two call types never
// share a budget.
func (e *Engine) withRetry(ctx context.Context, call string, fn func(context.Context) error) *FailureRecord {
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			e.metrics.IncUpstreamCall(call, outcomeSuccess)
			return nil
		}

		classification := Classify(err)
		hint := RetryAfterHint(err, classification)

		if !e.policy.ShouldRetry(classification, attempt) {
			e.metrics.IncUpstreamCall(call, classification.String())
			return &FailureRecord{
				Classification: classification,
				RetryAfter:     hint,
				Attempt:        attempt,
				Err:            err,
			}
		}

		delay := e.policy.Delay(attempt, hint)
		e.logger.Debug().
			Str("call", call).
			Int("attempt", attempt).
			Stringer("classification", classification).
			Dur("delay", delay).
			Err(err).
			Msg("Retrying upstream call")
		e.metrics.IncUpstreamRetry(call, classification.String())

		if !e.sleep(ctx, delay) {
			e.metrics.IncUpstreamCall(call, classification.String())
			return &FailureRecord{
				Classification: classification,
				RetryAfter:     hint,
				Attempt:        attempt,
				Err:            ctx.Err(),
			}
		}
	}
}

// store records a successful snapshot: the cache write, the playing
// flag used for key derivation, the playback gauge and the optional
// snapshot hook.
func (e *Engine) store(snapshot PlaybackSnapshot) {
	e.mu.Lock()
	e.lastPlaying = snapshot.IsPlaying
	e.mu.Unlock()

	e.cache.Put(e.cacheKey(snapshot.IsPlaying), snapshot)
	e.metrics.SetPlaying(snapshot.IsPlaying)
	if e.onSnapshot != nil {
		e.onSnapshot(snapshot)
	}
}
