package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"bizmap-server/middleware"
	"bizmap-server/models"
	"bizmap-server/utils/errors"
)

// Analyzer is the slice of AnalysisService the handlers need; tests plug in
// a stub.
type Analyzer interface {
	Analyze(ctx context.Context, query models.LocationQuery) (*models.CompetitorAnalysis, error)
	Compare(ctx context.Context, queries []models.LocationQuery) (*models.LocationComparison, error)
	GetSearch(ctx context.Context, searchID string) (*models.CompetitorAnalysis, error)
	RecentSearches(ctx context.Context) ([]models.CompetitorAnalysis, error)
	RecentComparisons(ctx context.Context) ([]models.LocationComparison, error)
	NearbyCompetitors(ctx context.Context, center models.Coordinates, radiusMeters float64) ([]models.Competitor, error)
}

type AnalysisHandler struct {
	service Analyzer
}

type comparisonRequest struct {
	Locations []models.LocationQuery `json:"locations"`
}

type NearbyCompetitorsResponse struct {
	Competitors []models.Competitor `json:"competitors"`
	Count       int                 `json:"count"`
	Lat         float64             `json:"lat"`
	Lng         float64             `json:"lng"`
	Radius      float64             `json:"radius"`
}

func NewAnalysisHandler(service Analyzer) *AnalysisHandler {
	return &AnalysisHandler{service: service}
}

func (h *AnalysisHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "location-intelligence-advanced",
	})
}

func (h *AnalysisHandler) SearchCompetitors(w http.ResponseWriter, r *http.Request) {
	var query models.LocationQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	if err := query.Validate(); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	analysis, err := h.service.Analyze(r.Context(), query)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(analysis)
}

func (h *AnalysisHandler) CompareLocations(w http.ResponseWriter, r *http.Request) {
	var req comparisonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	if len(req.Locations) < 2 || len(req.Locations) > 4 {
		middleware.WriteError(w, errors.NewAPIError("INVALID_INPUT", "Please provide 2-4 locations for comparison", http.StatusBadRequest))
		return
	}

	comparison, err := h.service.Compare(r.Context(), req.Locations)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(comparison)
}

func (h *AnalysisHandler) GetSearch(w http.ResponseWriter, r *http.Request) {
	searchID := mux.Vars(r)["search_id"]
	if searchID == "" {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	analysis, err := h.service.GetSearch(r.Context(), searchID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(analysis)
}

func (h *AnalysisHandler) RecentSearches(w http.ResponseWriter, r *http.Request) {
	searches, err := h.service.RecentSearches(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if searches == nil {
		searches = []models.CompetitorAnalysis{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(searches)
}

func (h *AnalysisHandler) RecentComparisons(w http.ResponseWriter, r *http.Request) {
	comparisons, err := h.service.RecentComparisons(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if comparisons == nil {
		comparisons = []models.LocationComparison{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(comparisons)
}

func (h *AnalysisHandler) NearbyCompetitors(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	lng, err := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	radius, err := strconv.ParseFloat(r.URL.Query().Get("radius"), 64)
	if err != nil || radius <= 0 {
		radius = models.DefaultRadiusMeters
	}

	competitors, err := h.service.NearbyCompetitors(r.Context(), models.Coordinates{Lat: lat, Lng: lng}, radius)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	response := NearbyCompetitorsResponse{
		Competitors: competitors,
		Count:       len(competitors),
		Lat:         lat,
		Lng:         lng,
		Radius:      radius,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
