package models

import (
	"fmt"
	"time"
)

// Coordinates is a lat/lng pair as exchanged with the frontend and the
// mapping provider.
type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// Allowed search radii in meters. Anything else is clamped to the default.
var AllowedRadii = []int{1000, 2000, 5000, 10000}

const DefaultRadiusMeters = 5000

// LocationQuery is one search submission: a business type, a free-text
// location and a radius in meters.
type LocationQuery struct {
	BusinessType string `json:"business_type"`
	Location     string `json:"location"`
	RadiusMeters int    `json:"radius"`
}

// Validate checks the required fields before a request is issued.
func (q LocationQuery) Validate() error {
	if q.BusinessType == "" || q.Location == "" {
		return fmt.Errorf("business_type and location are required")
	}
	return nil
}

// Normalize clamps the radius to the allowed set, falling back to the default.
func (q *LocationQuery) Normalize() {
	for _, r := range AllowedRadii {
		if q.RadiusMeters == r {
			return
		}
	}
	q.RadiusMeters = DefaultRadiusMeters
}

// Competitor is one nearby business returned by the places lookup.
type Competitor struct {
	Name             string   `json:"name" bson:"name"`
	Address          string   `json:"address" bson:"address"`
	Lat              float64  `json:"lat" bson:"lat"`
	Lng              float64  `json:"lng" bson:"lng"`
	Rating           *float64 `json:"rating,omitempty" bson:"rating,omitempty"`
	PriceLevel       *int     `json:"price_level,omitempty" bson:"price_level,omitempty"`
	UserRatingsTotal *int     `json:"user_ratings_total,omitempty" bson:"user_ratings_total,omitempty"`
	PlaceID          string   `json:"place_id,omitempty" bson:"place_id,omitempty"`
}

// IncomeBracket is one slice of the household income distribution.
type IncomeBracket struct {
	Count      int     `json:"count,omitempty" bson:"count,omitempty"`
	Percentage float64 `json:"percentage" bson:"percentage"`
}

// Demographics is a sparse bag of area statistics. A nil field means the
// upstream source had nothing for it; callers skip rendering absent values.
type Demographics struct {
	PopulationDensity     *float64 `json:"population_density,omitempty" bson:"population_density,omitempty"`
	EstimatedPopulation   *int     `json:"estimated_population,omitempty" bson:"estimated_population,omitempty"`
	UrbanRuralIndex       *float64 `json:"urban_rural_index,omitempty" bson:"urban_rural_index,omitempty"`
	EconomicActivityScore *float64 `json:"economic_activity_score,omitempty" bson:"economic_activity_score,omitempty"`
	AirQualityIndex       *int     `json:"air_quality_index,omitempty" bson:"air_quality_index,omitempty"`
	AirQualityLevel       *string  `json:"air_quality_level,omitempty" bson:"air_quality_level,omitempty"`

	ZipCode               *string  `json:"zip_code,omitempty" bson:"zip_code,omitempty"`
	MedianHouseholdIncome *float64 `json:"median_household_income,omitempty" bson:"median_household_income,omitempty"`
	PerCapitaIncome       *float64 `json:"per_capita_income,omitempty" bson:"per_capita_income,omitempty"`
	MedianAge             *float64 `json:"median_age,omitempty" bson:"median_age,omitempty"`
	EducationBachelorPlus *float64 `json:"education_bachelor_plus,omitempty" bson:"education_bachelor_plus,omitempty"`
	AverageSpendingRetail *float64 `json:"average_spending_retail,omitempty" bson:"average_spending_retail,omitempty"`
	ConsumerSpendingIndex *float64 `json:"consumer_spending_index,omitempty" bson:"consumer_spending_index,omitempty"`
	FootTrafficMultiplier *float64 `json:"foot_traffic_multiplier,omitempty" bson:"foot_traffic_multiplier,omitempty"`

	HouseholdIncomeDistribution map[string]IncomeBracket `json:"household_income_distribution,omitempty" bson:"household_income_distribution,omitempty"`
	PovertyRate                 *float64                 `json:"poverty_rate,omitempty" bson:"poverty_rate,omitempty"`
	UnemploymentRate            *float64                 `json:"unemployment_rate,omitempty" bson:"unemployment_rate,omitempty"`
	AverageHomeValue            *float64                 `json:"average_home_value,omitempty" bson:"average_home_value,omitempty"`
	RentBurdenPercentage        *float64                 `json:"rent_burden_percentage,omitempty" bson:"rent_burden_percentage,omitempty"`
	CommuteTimeMinutes          *float64                 `json:"commute_time_minutes,omitempty" bson:"commute_time_minutes,omitempty"`
	SpendingCategories          map[string]float64       `json:"spending_categories,omitempty" bson:"spending_categories,omitempty"`
}

// RentalEstimate is a rough commercial rent projection for the area.
type RentalEstimate struct {
	EstimatedRentPerSqft *float64 `json:"estimated_rent_per_sqft,omitempty" bson:"estimated_rent_per_sqft,omitempty"`
	RentalIndex          *string  `json:"rental_index,omitempty" bson:"rental_index,omitempty"`
	MarketTier           *string  `json:"market_tier,omitempty" bson:"market_tier,omitempty"`
}

// BreakEvenAnalysis holds the projected financials for the queried business.
// BreakEvenMonths is nil when the model never breaks even.
type BreakEvenAnalysis struct {
	EstimatedMonthlyRevenue *float64 `json:"estimated_monthly_revenue,omitempty" bson:"estimated_monthly_revenue,omitempty"`
	MonthlyCosts            *float64 `json:"monthly_costs,omitempty" bson:"monthly_costs,omitempty"`
	BreakEvenMonths         *float64 `json:"break_even_months,omitempty" bson:"break_even_months,omitempty"`
	ROIPercentage           *float64 `json:"roi_percentage,omitempty" bson:"roi_percentage,omitempty"`
	ProfitProjectionYear1   *float64 `json:"profit_projection_year1,omitempty" bson:"profit_projection_year1,omitempty"`
}

// CompetitorAnalysis is the full result of one location query. Competitors
// keep the order the places lookup returned them in.
type CompetitorAnalysis struct {
	SearchID          string            `json:"search_id,omitempty" bson:"search_id"`
	Location          string            `json:"location" bson:"location"`
	BusinessType      string            `json:"business_type" bson:"business_type"`
	CenterCoordinates Coordinates       `json:"center_coordinates" bson:"center_coordinates"`
	Competitors       []Competitor      `json:"competitors" bson:"competitors"`
	CompetitorCount   int               `json:"competitor_count" bson:"competitor_count"`
	SaturationScore   float64           `json:"saturation_score" bson:"saturation_score"`
	FootTrafficScore  *float64          `json:"foot_traffic_score,omitempty" bson:"foot_traffic_score,omitempty"`
	Demographics      Demographics      `json:"demographics" bson:"demographics"`
	RentalEstimates   RentalEstimate    `json:"rental_estimates" bson:"rental_estimates"`
	BreakEvenAnalysis BreakEvenAnalysis `json:"break_even_analysis" bson:"break_even_analysis"`
	RadiusMeters      int               `json:"radius" bson:"radius"`
	AnalysisDate      time.Time         `json:"analysis_date,omitempty" bson:"analysis_date"`
}

// ComparisonSummary names the winning location per criterion.
type ComparisonSummary struct {
	BestForLowCompetition *string `json:"best_for_low_competition" bson:"best_for_low_competition"`
	BestForROI            *string `json:"best_for_roi" bson:"best_for_roi"`
	BestForFootTraffic    *string `json:"best_for_foot_traffic" bson:"best_for_foot_traffic"`
	BestForDemographics   *string `json:"best_for_demographics" bson:"best_for_demographics"`
}

// LocationComparison is a side-by-side analysis of 2-4 candidate locations.
type LocationComparison struct {
	ComparisonID   string               `json:"comparison_id" bson:"comparison_id"`
	Locations      []CompetitorAnalysis `json:"locations" bson:"locations"`
	Summary        ComparisonSummary    `json:"summary" bson:"summary"`
	ComparisonDate time.Time            `json:"comparison_date" bson:"comparison_date"`
}
