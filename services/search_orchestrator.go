package services

import (
	"context"
	"log"
	"sync"

	"bizmap-server/mapview"
	"bizmap-server/models"
)

// SearchState is where the orchestrator sits in the request lifecycle.
type SearchState int

const (
	SearchIdle SearchState = iota
	SearchLoading
	SearchSettled
)

// User-visible messages. Backend and decode failures fold into the same
// generic text; only validation gets its own wording.
const (
	MsgMissingFields = "Please fill in both business type and location"
	MsgSearchFailed  = "Search failed. Please try again."
)

// SearchSnapshot is a point-in-time read of orchestrator state for the
// presentation layer.
type SearchSnapshot struct {
	State    SearchState
	Analysis *models.CompetitorAnalysis
	ErrorMsg string
}

// SearchOrchestrator owns the submit -> backend -> render lifecycle. Exactly
// one logical current analysis exists at a time; a new submission abandons
// (does not cancel) any outstanding request and the last response to settle
// wins, overwriting state regardless of request order.
type SearchOrchestrator struct {
	mu      sync.Mutex
	client  AnalysisClient
	markers *mapview.MarkerManager

	state    SearchState
	current  *models.CompetitorAnalysis
	errorMsg string
	submits  uint64
}

func NewSearchOrchestrator(client AnalysisClient, markers *mapview.MarkerManager) *SearchOrchestrator {
	return &SearchOrchestrator{
		client:  client,
		markers: markers,
		state:   SearchIdle,
	}
}

// Submit runs one search to completion. Validation failures settle
// synchronously without touching the backend; the prior analysis and its
// markers stay in place under the error message. Callers drive concurrent
// submissions by calling Submit from separate goroutines; no fencing is
// applied between them.
func (o *SearchOrchestrator) Submit(ctx context.Context, query models.LocationQuery) {
	if err := query.Validate(); err != nil {
		o.mu.Lock()
		o.state = SearchSettled
		o.errorMsg = MsgMissingFields
		o.mu.Unlock()
		return
	}
	query.Normalize()

	o.mu.Lock()
	o.state = SearchLoading
	o.errorMsg = ""
	o.submits++
	seq := o.submits
	o.mu.Unlock()

	analysis, err := o.client.SearchCompetitors(ctx, query)

	o.mu.Lock()
	defer o.mu.Unlock()

	if err != nil {
		log.Printf("Search %d failed: %v", seq, err)
		o.state = SearchSettled
		o.current = nil
		o.errorMsg = MsgSearchFailed
		if o.markers != nil {
			o.markers.Render(nil)
		}
		return
	}

	o.state = SearchSettled
	o.current = analysis
	o.errorMsg = ""
	if o.markers != nil {
		o.markers.Render([]models.CompetitorAnalysis{*analysis})
	}
}

// Snapshot returns the current state for rendering.
func (o *SearchOrchestrator) Snapshot() SearchSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return SearchSnapshot{
		State:    o.state,
		Analysis: o.current,
		ErrorMsg: o.errorMsg,
	}
}

// Reset clears the settled analysis or error and returns to idle.
func (o *SearchOrchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = SearchIdle
	o.current = nil
	o.errorMsg = ""
	if o.markers != nil {
		o.markers.Render(nil)
	}
}
