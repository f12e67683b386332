package services

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bizmap-server/models"
)

func TestSampleDemographicsDeterministic(t *testing.T) {
	center := models.Coordinates{Lat: 28.6304, Lng: 77.2177}

	first := sampleDemographics(center, 5000)
	second := sampleDemographics(center, 5000)

	if *first.MedianHouseholdIncome != *second.MedianHouseholdIncome {
		t.Errorf("median income differs between runs: %v vs %v",
			*first.MedianHouseholdIncome, *second.MedianHouseholdIncome)
	}
	if *first.AirQualityIndex != *second.AirQualityIndex {
		t.Errorf("AQI differs between runs")
	}
	if *first.ZipCode != *second.ZipCode {
		t.Errorf("zip code differs between runs")
	}
}

func TestClassifyLocation(t *testing.T) {
	cases := []struct {
		name   string
		center models.Coordinates
		want   string
	}{
		{"london", models.Coordinates{Lat: 51.5074, Lng: -0.1278}, "global"},
		{"delhi", models.Coordinates{Lat: 28.6139, Lng: 77.209}, "metro"},
		{"open ocean", models.Coordinates{Lat: 0, Lng: 0}, "suburban"},
	}
	for _, tc := range cases {
		if got := classifyLocation(tc.center); got != tc.want {
			t.Errorf("%s: classified as %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestEstimatePopulationFallbackScalesWithProximity(t *testing.T) {
	mumbai := estimatePopulationFallback(models.Coordinates{Lat: 19.1, Lng: 72.9}, 5000)
	remote := estimatePopulationFallback(models.Coordinates{Lat: 0, Lng: 0}, 5000)

	if mumbai <= remote {
		t.Errorf("population near Mumbai (%d) should exceed remote estimate (%d)", mumbai, remote)
	}
	if remote <= 0 {
		t.Errorf("remote estimate should still be positive, got %d", remote)
	}
}

func TestAqiDisplayLevel(t *testing.T) {
	cases := []struct {
		aqi  int
		want string
	}{
		{30, "Good"},
		{50, "Good"},
		{51, "Moderate"},
		{100, "Moderate"},
		{120, "Unhealthy for Sensitive Groups"},
		{180, "Unhealthy"},
	}
	for _, tc := range cases {
		if got := aqiDisplayLevel(tc.aqi); got != tc.want {
			t.Errorf("aqiDisplayLevel(%d) = %q, want %q", tc.aqi, got, tc.want)
		}
	}
}

func TestSafeFloatHandlesCensusSentinels(t *testing.T) {
	null := "null"
	dash := "-"
	empty := "  "
	valid := "42.5"

	for _, v := range []*string{nil, &null, &dash, &empty} {
		if got := safeFloat(v); got != nil {
			t.Errorf("safeFloat(%v) = %v, want nil", v, *got)
		}
	}
	if got := safeFloat(&valid); got == nil || *got != 42.5 {
		t.Errorf("safeFloat(%q) = %v, want 42.5", valid, got)
	}
}

func TestSpendingCategoriesAllocateDisposableIncome(t *testing.T) {
	categories := spendingCategories(60000)

	total := 0.0
	for _, amount := range categories {
		total += amount
	}
	if math.Abs(total-60000*0.72) > 1 {
		t.Errorf("categories total %v, want ~%v", total, 60000*0.72)
	}
	if categories["housing"] <= categories["entertainment"] {
		t.Errorf("housing share should dominate entertainment")
	}
}

func TestLookupPrefersCensusData(t *testing.T) {
	aqiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"indexes": []map[string]any{{"code": "uaqi", "aqi": 42, "category": "GOOD"}},
		})
	}))
	defer aqiServer.Close()

	fccServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{{"state_fips": "06", "county_fips": "075"}},
		})
	}))
	defer fccServer.Close()

	geocodeServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status": "OK",
			"results": []map[string]any{{
				"address_components": []map[string]any{
					{"long_name": "94103", "types": []string{"postal_code"}},
				},
			}},
		})
	}))
	defer geocodeServer.Close()

	censusServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		values := []string{
			"800000",  // population
			"120000",  // median income
			"38.5",    // median age
			"300000",  // bachelor's degrees
			"600000",  // education universe
			"30",      // commute
			"70000",   // per capita
			"1000000", // home value
			"2000",    // rent
			"80000",   // below poverty
			"20000",   // unemployed
			"500000",  // labor force
		}
		for i := 0; i < 16; i++ {
			values = append(values, "10000")
		}
		json.NewEncoder(w).Encode([][]string{acsVariables, values})
	}))
	defer censusServer.Close()

	s := &DemographicsService{
		apiKey:     "test-key",
		httpClient: &http.Client{Timeout: time.Second},
		aqiURL:     aqiServer.URL,
		fccAreaURL: fccServer.URL,
		censusURL:  censusServer.URL,
		geocodeURL: geocodeServer.URL,
	}

	demo := s.Lookup(context.Background(), models.Coordinates{Lat: 37.77, Lng: -122.42}, 5000)

	if demo.EstimatedPopulation == nil || *demo.EstimatedPopulation != 800000 {
		t.Errorf("population = %v, want 800000", demo.EstimatedPopulation)
	}
	if demo.MedianHouseholdIncome == nil || *demo.MedianHouseholdIncome != 120000 {
		t.Errorf("median income = %v, want 120000", demo.MedianHouseholdIncome)
	}
	if demo.EducationBachelorPlus == nil || *demo.EducationBachelorPlus != 50.0 {
		t.Errorf("education = %v, want 50", demo.EducationBachelorPlus)
	}
	if demo.PovertyRate == nil || *demo.PovertyRate != 10.0 {
		t.Errorf("poverty = %v, want 10", demo.PovertyRate)
	}
	if demo.UnemploymentRate == nil || *demo.UnemploymentRate != 4.0 {
		t.Errorf("unemployment = %v, want 4", demo.UnemploymentRate)
	}
	if demo.ZipCode == nil || *demo.ZipCode != "94103" {
		t.Errorf("zip = %v, want 94103", demo.ZipCode)
	}
	if demo.AirQualityIndex == nil || *demo.AirQualityIndex != 42 {
		t.Errorf("AQI = %v, want 42", demo.AirQualityIndex)
	}
	if demo.AirQualityLevel == nil || *demo.AirQualityLevel != "Good" {
		t.Errorf("AQI level = %v, want Good", demo.AirQualityLevel)
	}
	if demo.RentBurdenPercentage == nil || *demo.RentBurdenPercentage != 20.0 {
		t.Errorf("rent burden = %v, want 20", demo.RentBurdenPercentage)
	}
	if demo.FootTrafficMultiplier == nil || *demo.FootTrafficMultiplier != 1.9 {
		t.Errorf("foot traffic multiplier = %v, want 1.9", demo.FootTrafficMultiplier)
	}
	bracket, ok := demo.HouseholdIncomeDistribution["under_10k"]
	if !ok || bracket.Count != 10000 {
		t.Errorf("income bracket under_10k = %+v", bracket)
	}
}
