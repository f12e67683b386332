package mapview

import (
	"fmt"

	"bizmap-server/models"
)

// CenterPalette is the fixed cycle of colors assigned to analysis center
// markers. Index i gets CenterPalette[i mod 4], so up to four simultaneous
// analyses keep stable colors and a fifth reuses the first.
var CenterPalette = [4]string{"#4285F4", "#EA4335", "#FBBC05", "#34A853"}

// CompetitorColor is the neutral styling for competitor markers; only center
// markers are color-coded per analysis.
const CompetitorColor = "#9AA0A6"

const (
	centerMarkerScale     = 14
	competitorMarkerScale = 8
)

// MarkerManager owns every marker and info-window currently drawn on one map
// instance. The map itself is supplied externally via AttachMap and may not
// exist yet when Render is first called.
type MarkerManager struct {
	provider Provider
	mapInst  Map
	markers  []Marker
	windows  []InfoWindow
}

func NewMarkerManager(provider Provider) *MarkerManager {
	return &MarkerManager{provider: provider}
}

// AttachMap binds the manager to a live map. Markers rendered before this
// point were dropped, not queued; the caller re-renders once attached.
func (mm *MarkerManager) AttachMap(m Map) {
	mm.mapInst = m
}

// Clear detaches every tracked marker from the map and forgets all handles.
// Calling it on an empty set is a no-op.
func (mm *MarkerManager) Clear() {
	for _, marker := range mm.markers {
		marker.SetMap(nil)
	}
	mm.markers = nil
	mm.windows = nil
}

// Render replaces the current marker set with one built from the given
// analyses: a colored, letter-labeled center marker per analysis, a gray
// marker with a click-opened info window per competitor, and a viewport
// fitted around all of them. With no map attached it silently does nothing.
func (mm *MarkerManager) Render(analyses []models.CompetitorAnalysis) {
	if mm.provider == nil || mm.mapInst == nil {
		return
	}

	mm.Clear()

	bounds := mm.provider.NewBounds()
	for i, analysis := range analyses {
		color := CenterPalette[i%len(CenterPalette)]

		center := mm.provider.NewMarker(mm.mapInst, analysis.CenterCoordinates, MarkerIcon{
			Color: color,
			Scale: centerMarkerScale,
			Label: string(rune('A' + i%26)),
		}, fmt.Sprintf("%s (%s)", analysis.Location, analysis.BusinessType))
		mm.markers = append(mm.markers, center)
		bounds.Extend(analysis.CenterCoordinates)

		for _, comp := range analysis.Competitors {
			pos := models.Coordinates{Lat: comp.Lat, Lng: comp.Lng}
			marker := mm.provider.NewMarker(mm.mapInst, pos, MarkerIcon{
				Color: CompetitorColor,
				Scale: competitorMarkerScale,
			}, comp.Name)

			window := mm.provider.NewInfoWindow(competitorInfoContent(comp))
			anchor := marker
			marker.OnClick(func() {
				window.Open(mm.mapInst, anchor)
			})

			mm.markers = append(mm.markers, marker)
			mm.windows = append(mm.windows, window)
			bounds.Extend(pos)
		}
	}

	if len(analyses) > 0 {
		mm.mapInst.FitBounds(bounds)
	}
}

// MarkerCount reports how many markers are currently tracked.
func (mm *MarkerManager) MarkerCount() int {
	return len(mm.markers)
}

func competitorInfoContent(c models.Competitor) string {
	content := fmt.Sprintf("<div><strong>%s</strong><br/>%s", c.Name, c.Address)
	if c.Rating != nil {
		content += fmt.Sprintf("<br/>Rating: %.1f", *c.Rating)
	}
	return content + "</div>"
}
