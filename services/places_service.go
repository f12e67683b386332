package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"bizmap-server/models"
)

const placesFieldMask = "places.displayName,places.formattedAddress,places.location,places.rating,places.priceLevel,places.userRatingCount,places.id"

// Business types mapped onto Places API included types. Unknown inputs fall
// back to restaurant, matching the original service.
var placeTypeMapping = map[string][]string{
	"restaurant": {"restaurant"},
	"cafe":       {"cafe"},
	"coffee":     {"cafe"},
	"salon":      {"beauty_salon"},
	"gym":        {"gym"},
	"fitness":    {"gym"},
	"store":      {"store"},
	"shop":       {"store"},
	"retail":     {"store"},
}

var priceLevelValues = map[string]int{
	"PRICE_LEVEL_INEXPENSIVE":    1,
	"PRICE_LEVEL_MODERATE":       2,
	"PRICE_LEVEL_EXPENSIVE":      3,
	"PRICE_LEVEL_VERY_EXPENSIVE": 4,
}

// PlacesService finds nearby competitors through the Places API (New).
type PlacesService struct {
	apiKey     string
	searchURL  string
	httpClient *http.Client
}

func NewPlacesService(apiKey string) *PlacesService {
	return &PlacesService{
		apiKey:     apiKey,
		searchURL:  "https://places.googleapis.com/v1/places:searchNearby",
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type placesSearchRequest struct {
	IncludedTypes       []string `json:"includedTypes"`
	MaxResultCount      int      `json:"maxResultCount"`
	LocationRestriction struct {
		Circle struct {
			Center struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"center"`
			Radius float64 `json:"radius"`
		} `json:"circle"`
	} `json:"locationRestriction"`
}

type placesSearchResponse struct {
	Places []struct {
		ID          string `json:"id"`
		DisplayName struct {
			Text string `json:"text"`
		} `json:"displayName"`
		FormattedAddress string `json:"formattedAddress"`
		Location         struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"location"`
		Rating          *float64 `json:"rating,omitempty"`
		PriceLevel      string   `json:"priceLevel,omitempty"`
		UserRatingCount *int     `json:"userRatingCount,omitempty"`
	} `json:"places"`
}

// SearchNearby returns competitors around the center in the order the API
// reported them. An empty result is not an error.
func (s *PlacesService) SearchNearby(ctx context.Context, center models.Coordinates, businessType string, radiusMeters int) ([]models.Competitor, error) {
	includedTypes, ok := placeTypeMapping[strings.ToLower(businessType)]
	if !ok {
		includedTypes = placeTypeMapping["restaurant"]
	}

	var reqBody placesSearchRequest
	reqBody.IncludedTypes = includedTypes
	reqBody.MaxResultCount = 20
	reqBody.LocationRestriction.Circle.Center.Latitude = center.Lat
	reqBody.LocationRestriction.Circle.Center.Longitude = center.Lng
	reqBody.LocationRestriction.Circle.Radius = float64(radiusMeters)

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.searchURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", s.apiKey)
	req.Header.Set("X-Goog-FieldMask", placesFieldMask)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("places request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("places API returned status %d", resp.StatusCode)
	}

	var result placesSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding places response: %w", err)
	}

	competitors := make([]models.Competitor, 0, len(result.Places))
	for _, place := range result.Places {
		comp := models.Competitor{
			Name:             place.DisplayName.Text,
			Address:          place.FormattedAddress,
			Lat:              place.Location.Latitude,
			Lng:              place.Location.Longitude,
			Rating:           place.Rating,
			UserRatingsTotal: place.UserRatingCount,
			PlaceID:          place.ID,
		}
		if comp.Name == "" {
			comp.Name = "Unknown"
		}
		if level, ok := priceLevelValues[place.PriceLevel]; ok {
			comp.PriceLevel = &level
		}
		competitors = append(competitors, comp)
	}

	log.Printf("Found %d competitors for %q within %dm", len(competitors), businessType, radiusMeters)
	return competitors, nil
}
