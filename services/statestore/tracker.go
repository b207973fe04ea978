package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sort"
)

type trackerState struct {
	ProcessedUrls []string `json:"processed_urls"`
}

// Tracker remembers which quiz urls have already been through the
// pipeline so reruns skip them.
type Tracker struct {
	store Store
	urls  map[string]bool
}

// NewTracker loads the processed set from the store. A missing or
// corrupt document starts the tracker off empty.
func NewTracker(ctx context.Context, store Store) *Tracker {
	tracker := &Tracker{store: store, urls: map[string]bool{}}

	data, err := store.Load(ctx)
	if errors.Is(err, os.ErrNotExist) {
		return tracker
	}
	if err != nil {
		slog.WarnContext(ctx, "failed to load url tracking state, starting empty", "err", err)
		return tracker
	}

	var state trackerState
	err = json.Unmarshal(data, &state)
	if err != nil {
		slog.WarnContext(ctx, "url tracking state is corrupt, starting empty", "err", err)
		return tracker
	}

	for _, url := range state.ProcessedUrls {
		tracker.urls[url] = true
	}
	slog.InfoContext(ctx, "loaded url tracking state", "count", len(tracker.urls))
	return tracker
}

func (t *Tracker) IsProcessed(url string) bool {
	return t.urls[url]
}

func (t *Tracker) Count() int {
	return len(t.urls)
}

// MarkProcessed records the url and persists the whole set right away.
func (t *Tracker) MarkProcessed(ctx context.Context, url string) error {
	t.urls[url] = true

	state := trackerState{ProcessedUrls: make([]string, 0, len(t.urls))}
	for u := range t.urls {
		state.ProcessedUrls = append(state.ProcessedUrls, u)
	}
	sort.Strings(state.ProcessedUrls)

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return t.store.Save(ctx, data)
}
