package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"bizmap-server/models"
)

// AnalysisClient is the backend analysis service as seen from the client
// core. The HTTP implementation below talks to the real service; tests
// substitute their own.
type AnalysisClient interface {
	SearchCompetitors(ctx context.Context, query models.LocationQuery) (*models.CompetitorAnalysis, error)
}

const searchCompetitorsPath = "/api/search-competitors-advanced"

// HTTPAnalysisClient calls the analysis service over HTTP. No retries, no
// auth headers; a failed request is terminal for that submission.
type HTTPAnalysisClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPAnalysisClient(baseURL string, httpClient *http.Client) *HTTPAnalysisClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPAnalysisClient{baseURL: baseURL, httpClient: httpClient}
}

// SearchCompetitors posts the query and decodes the analysis. Any non-2xx
// status is a failure; the backend's reported detail text is surfaced when
// the error body decodes, otherwise a bare status error is returned.
func (c *HTTPAnalysisClient) SearchCompetitors(ctx context.Context, query models.LocationQuery) (*models.CompetitorAnalysis, error) {
	body, err := json.Marshal(map[string]any{
		"business_type": query.BusinessType,
		"location":      query.Location,
		"radius":        query.RadiusMeters,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+searchCompetitorsPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Detail string `json:"detail"`
		}
		raw, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(raw, &errBody) == nil && errBody.Detail != "" {
			return nil, fmt.Errorf("%s", errBody.Detail)
		}
		return nil, fmt.Errorf("analysis request failed with status %d", resp.StatusCode)
	}

	var analysis models.CompetitorAnalysis
	if err := json.NewDecoder(resp.Body).Decode(&analysis); err != nil {
		return nil, fmt.Errorf("decoding analysis response: %w", err)
	}
	return &analysis, nil
}
