package mapview

import "bizmap-server/models"

// Provider abstracts the mapping SDK (Google Maps in production). Tests and
// headless environments supply their own implementation.
type Provider interface {
	NewMap(containerID string, center models.Coordinates, zoom int, opts MapOptions) Map
	NewMarker(m Map, position models.Coordinates, icon MarkerIcon, title string) Marker
	NewInfoWindow(content string) InfoWindow
	NewBounds() Bounds
}

// Map is one live map instance. The manager never owns it.
type Map interface {
	FitBounds(b Bounds)
}

// Marker is an opaque handle to one rendered overlay. Passing a nil Map to
// SetMap detaches the marker.
type Marker interface {
	SetMap(m Map)
	OnClick(fn func())
}

// InfoWindow is a popup anchored to a marker.
type InfoWindow interface {
	Open(m Map, anchor Marker)
}

// Bounds is a growable geographic rectangle used to fit the viewport.
type Bounds interface {
	Extend(p models.Coordinates)
}

// MapOptions carries the style options forwarded to map creation.
type MapOptions struct {
	DisableDefaultUI bool
	Styles           string
}

// MarkerIcon describes how a marker is drawn.
type MarkerIcon struct {
	Color string
	Scale float64
	Label string
}
