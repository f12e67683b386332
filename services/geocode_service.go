package services

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"bizmap-server/models"
)

const geocodeCacheTTL = 24 * time.Hour

// Fallback coordinates for well-known cities, used when the geocoding API is
// unreachable or returns nothing. Neighborhood entries come before their city
// so the more specific match wins.
var fallbackCityCoords = []struct {
	Name   string
	Coords models.Coordinates
}{
	{"connaught place", models.Coordinates{Lat: 28.6304, Lng: 77.2177}},
	{"bandra", models.Coordinates{Lat: 19.0596, Lng: 72.8295}},
	{"delhi", models.Coordinates{Lat: 28.6139, Lng: 77.2090}},
	{"mumbai", models.Coordinates{Lat: 19.0760, Lng: 72.8777}},
	{"pune", models.Coordinates{Lat: 18.5204, Lng: 73.8567}},
	{"bangalore", models.Coordinates{Lat: 12.9716, Lng: 77.5946}},
	{"chennai", models.Coordinates{Lat: 13.0827, Lng: 80.2707}},
	{"kolkata", models.Coordinates{Lat: 22.5726, Lng: 88.3639}},
	{"hyderabad", models.Coordinates{Lat: 17.3850, Lng: 78.4867}},
	{"london", models.Coordinates{Lat: 51.5074, Lng: -0.1278}},
	{"new york", models.Coordinates{Lat: 40.7128, Lng: -74.0060}},
	{"paris", models.Coordinates{Lat: 48.8566, Lng: 2.3522}},
}

var defaultCoords = models.Coordinates{Lat: 19.0760, Lng: 72.8777} // Mumbai

// GeocodeService resolves free-text locations to coordinates via the Google
// Geocoding API, with a Redis cache in front and a known-city table behind.
type GeocodeService struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	redisClient *redis.Client
}

func NewGeocodeService(apiKey string, redisClient *redis.Client) *GeocodeService {
	return &GeocodeService{
		apiKey:      apiKey,
		baseURL:     "https://maps.googleapis.com/maps/api/geocode/json",
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		redisClient: redisClient,
	}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location models.Coordinates `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode never fails outright: cache, then API, then the fallback table,
// then Mumbai as the last resort.
func (s *GeocodeService) Geocode(ctx context.Context, location string) models.Coordinates {
	cacheKey := "geocode:" + strings.ToLower(strings.TrimSpace(location))

	if s.redisClient != nil {
		cached, err := s.redisClient.Get(ctx, cacheKey).Result()
		if err == nil {
			var coords models.Coordinates
			if err := json.Unmarshal([]byte(cached), &coords); err == nil {
				return coords
			}
		}
	}

	if coords, ok := s.geocodeRemote(ctx, location); ok {
		if s.redisClient != nil {
			if data, err := json.Marshal(coords); err == nil {
				s.redisClient.Set(ctx, cacheKey, data, geocodeCacheTTL)
			}
		}
		return coords
	}

	lower := strings.ToLower(location)
	for _, city := range fallbackCityCoords {
		if strings.Contains(lower, city.Name) {
			log.Printf("Using fallback coordinates for %q", location)
			return city.Coords
		}
	}

	log.Printf("Using default coordinates (Mumbai) for %q", location)
	return defaultCoords
}

func (s *GeocodeService) geocodeRemote(ctx context.Context, location string) (models.Coordinates, bool) {
	params := url.Values{}
	params.Set("address", location)
	params.Set("key", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return models.Coordinates{}, false
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Printf("Geocoding API error: %v", err)
		return models.Coordinates{}, false
	}
	defer resp.Body.Close()

	var data geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		log.Printf("Failed to decode geocoding response: %v", err)
		return models.Coordinates{}, false
	}
	if data.Status != "OK" || len(data.Results) == 0 {
		log.Printf("Geocoding failed for %q: %s", location, data.Status)
		return models.Coordinates{}, false
	}
	return data.Results[0].Geometry.Location, true
}
