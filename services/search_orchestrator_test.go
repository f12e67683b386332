package services

import (
	"context"
	"fmt"
	"testing"

	"bizmap-server/mapview"
	"bizmap-server/models"
)

type stubAnalysisClient struct {
	analysis *models.CompetitorAnalysis
	err      error
	calls    int
	lastQ    models.LocationQuery
}

func (c *stubAnalysisClient) SearchCompetitors(ctx context.Context, query models.LocationQuery) (*models.CompetitorAnalysis, error) {
	c.calls++
	c.lastQ = query
	if c.err != nil {
		return nil, c.err
	}
	return c.analysis, nil
}

type stubMap struct{ fitCalls int }

func (m *stubMap) FitBounds(b mapview.Bounds) { m.fitCalls++ }

type stubMarker struct{ attachedTo mapview.Map }

func (mk *stubMarker) SetMap(m mapview.Map) { mk.attachedTo = m }
func (mk *stubMarker) OnClick(fn func())    {}

type stubInfoWindow struct{}

func (w *stubInfoWindow) Open(m mapview.Map, anchor mapview.Marker) {}

type stubBounds struct{}

func (b *stubBounds) Extend(p models.Coordinates) {}

type stubProvider struct {
	markers []*stubMarker
}

func (p *stubProvider) NewMap(containerID string, center models.Coordinates, zoom int, opts mapview.MapOptions) mapview.Map {
	return &stubMap{}
}

func (p *stubProvider) NewMarker(m mapview.Map, position models.Coordinates, icon mapview.MarkerIcon, title string) mapview.Marker {
	marker := &stubMarker{attachedTo: m}
	p.markers = append(p.markers, marker)
	return marker
}

func (p *stubProvider) NewInfoWindow(content string) mapview.InfoWindow { return &stubInfoWindow{} }
func (p *stubProvider) NewBounds() mapview.Bounds                       { return &stubBounds{} }

func attachedMarkerCount(p *stubProvider) int {
	n := 0
	for _, marker := range p.markers {
		if marker.attachedTo != nil {
			n++
		}
	}
	return n
}

func cafeAnalysis(competitorCount int, saturation float64) *models.CompetitorAnalysis {
	competitors := make([]models.Competitor, competitorCount)
	for i := range competitors {
		competitors[i] = models.Competitor{
			Name: fmt.Sprintf("Cafe %d", i),
			Lat:  28.63 + float64(i)*0.001,
			Lng:  77.21,
		}
	}
	return &models.CompetitorAnalysis{
		Location:          "Connaught Place, Delhi",
		BusinessType:      "cafe",
		CenterCoordinates: models.Coordinates{Lat: 28.6304, Lng: 77.2177},
		Competitors:       competitors,
		CompetitorCount:   competitorCount,
		SaturationScore:   saturation,
	}
}

func TestSubmitSuccessSettlesAndRendersMarkers(t *testing.T) {
	client := &stubAnalysisClient{analysis: cafeAnalysis(12, 45)}
	provider := &stubProvider{}
	markers := mapview.NewMarkerManager(provider)
	markers.AttachMap(&stubMap{})

	o := NewSearchOrchestrator(client, markers)
	o.Submit(context.Background(), models.LocationQuery{
		BusinessType: "cafe",
		Location:     "Connaught Place, Delhi",
		RadiusMeters: 5000,
	})

	snap := o.Snapshot()
	if snap.State != SearchSettled {
		t.Fatalf("state = %v, want settled", snap.State)
	}
	if snap.ErrorMsg != "" {
		t.Fatalf("unexpected error message %q", snap.ErrorMsg)
	}
	if snap.Analysis == nil || snap.Analysis.CompetitorCount != 12 {
		t.Fatalf("analysis not stored")
	}
	if snap.Analysis.SaturationScore != 45 {
		t.Errorf("saturation = %v, want 45", snap.Analysis.SaturationScore)
	}
	if markers.MarkerCount() != 13 {
		t.Errorf("rendered %d markers, want 13 (1 center + 12 competitors)", markers.MarkerCount())
	}
}

func TestSubmitMissingFieldsSettlesWithoutBackendCall(t *testing.T) {
	client := &stubAnalysisClient{analysis: cafeAnalysis(3, 20)}
	o := NewSearchOrchestrator(client, nil)

	o.Submit(context.Background(), models.LocationQuery{BusinessType: "", Location: "Delhi"})

	snap := o.Snapshot()
	if snap.State != SearchSettled {
		t.Fatalf("state = %v, want settled", snap.State)
	}
	if snap.ErrorMsg != MsgMissingFields {
		t.Errorf("error = %q, want %q", snap.ErrorMsg, MsgMissingFields)
	}
	if client.calls != 0 {
		t.Errorf("backend called %d times, want 0", client.calls)
	}
}

func TestSubmitValidationFailureKeepsPriorAnalysisAndMarkers(t *testing.T) {
	client := &stubAnalysisClient{analysis: cafeAnalysis(12, 45)}
	provider := &stubProvider{}
	markers := mapview.NewMarkerManager(provider)
	markers.AttachMap(&stubMap{})

	o := NewSearchOrchestrator(client, markers)
	o.Submit(context.Background(), models.LocationQuery{BusinessType: "cafe", Location: "Delhi", RadiusMeters: 5000})

	o.Submit(context.Background(), models.LocationQuery{BusinessType: "", Location: "Delhi"})

	snap := o.Snapshot()
	if snap.State != SearchSettled {
		t.Fatalf("state = %v, want settled", snap.State)
	}
	if snap.ErrorMsg != MsgMissingFields {
		t.Errorf("error = %q, want %q", snap.ErrorMsg, MsgMissingFields)
	}
	if snap.Analysis == nil || snap.Analysis.CompetitorCount != 12 {
		t.Fatalf("validation failure wiped the prior analysis")
	}
	if markers.MarkerCount() != 13 {
		t.Errorf("tracked markers = %d, want the prior 13", markers.MarkerCount())
	}
	if got := attachedMarkerCount(provider); got != 13 {
		t.Errorf("attached markers = %d, want the prior 13", got)
	}
	if client.calls != 1 {
		t.Errorf("backend called %d times, want only the setup search", client.calls)
	}
}

func TestSubmitFailureClearsPriorAnalysisAndMarkers(t *testing.T) {
	client := &stubAnalysisClient{analysis: cafeAnalysis(4, 30)}
	provider := &stubProvider{}
	markers := mapview.NewMarkerManager(provider)
	markers.AttachMap(&stubMap{})

	o := NewSearchOrchestrator(client, markers)
	query := models.LocationQuery{BusinessType: "cafe", Location: "Delhi", RadiusMeters: 5000}
	o.Submit(context.Background(), query)

	if o.Snapshot().Analysis == nil {
		t.Fatal("setup search should have succeeded")
	}

	client.err = fmt.Errorf("backend returned status 500")
	o.Submit(context.Background(), query)

	snap := o.Snapshot()
	if snap.State != SearchSettled {
		t.Fatalf("state = %v, want settled", snap.State)
	}
	if snap.ErrorMsg != MsgSearchFailed {
		t.Errorf("error = %q, want %q", snap.ErrorMsg, MsgSearchFailed)
	}
	if snap.Analysis != nil {
		t.Errorf("failed search kept stale analysis")
	}
	if got := attachedMarkerCount(provider); got != 0 {
		t.Errorf("%d markers still attached after failure", got)
	}
}

func TestSubmitNormalizesRadius(t *testing.T) {
	client := &stubAnalysisClient{analysis: cafeAnalysis(0, 20)}
	o := NewSearchOrchestrator(client, nil)

	o.Submit(context.Background(), models.LocationQuery{
		BusinessType: "gym",
		Location:     "Pune",
		RadiusMeters: 3333,
	})

	if client.lastQ.RadiusMeters != models.DefaultRadiusMeters {
		t.Errorf("radius sent = %d, want default %d", client.lastQ.RadiusMeters, models.DefaultRadiusMeters)
	}
}

func TestResubmissionLastResponseWins(t *testing.T) {
	client := &stubAnalysisClient{analysis: cafeAnalysis(2, 20)}
	o := NewSearchOrchestrator(client, nil)
	query := models.LocationQuery{BusinessType: "cafe", Location: "Delhi", RadiusMeters: 5000}

	o.Submit(context.Background(), query)

	client.analysis = cafeAnalysis(7, 80)
	o.Submit(context.Background(), query)

	snap := o.Snapshot()
	if snap.Analysis == nil || snap.Analysis.CompetitorCount != 7 {
		t.Fatalf("latest response did not win")
	}
}
