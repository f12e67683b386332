package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bizmap-server/models"
	"bizmap-server/utils/errors"
)

const competitorGeoKey = "competitors:geo"

// AnalysisService runs the full location analysis pipeline and persists the
// results: geocode, competitor search, demographics, rental and break-even
// modeling, scoring, then storage in Mongo plus a Redis geo mirror of every
// competitor seen.
type AnalysisService struct {
	geocode      *GeocodeService
	places       *PlacesService
	demographics *DemographicsService

	searches    *mongo.Collection
	comparisons *mongo.Collection
	redisClient *redis.Client
}

func NewAnalysisService(db *mongo.Database, redisClient *redis.Client, geocode *GeocodeService, places *PlacesService, demographics *DemographicsService) *AnalysisService {
	searches := db.Collection("searches")
	comparisons := db.Collection("comparisons")

	// Geospatial index for center-point queries over past searches.
	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "center_location", Value: "2dsphere"}},
	}
	if _, err := searches.Indexes().CreateOne(context.Background(), indexModel); err != nil {
		log.Printf("Failed to create 2dsphere index on searches: %v", err)
	}

	return &AnalysisService{
		geocode:      geocode,
		places:       places,
		demographics: demographics,
		searches:     searches,
		comparisons:  comparisons,
		redisClient:  redisClient,
	}
}

// Analyze produces one CompetitorAnalysis for the query. Upstream data gaps
// degrade to sparse fields rather than failing the whole analysis; only a
// places-lookup error is fatal.
func (s *AnalysisService) Analyze(ctx context.Context, query models.LocationQuery) (*models.CompetitorAnalysis, error) {
	if err := query.Validate(); err != nil {
		return nil, errors.Wrap(err, "INVALID_INPUT", "business_type and location are required", 400)
	}
	query.Normalize()

	center := s.geocode.Geocode(ctx, query.Location)

	competitors, err := s.places.SearchNearby(ctx, center, query.BusinessType, query.RadiusMeters)
	if err != nil {
		log.Printf("Competitor search failed for %q: %v", query.Location, err)
		return nil, errors.Wrap(err, "UPSTREAM_ERROR", "competitor search failed", 502)
	}

	demographics := s.demographics.Lookup(ctx, center, query.RadiusMeters)
	rental := EstimateRentalCosts(query.BusinessType)
	breakEven := CalculateBreakEven(query.BusinessType, len(competitors), demographics, rental)
	saturation := SaturationScore(len(competitors), query.RadiusMeters)
	footTraffic := FootTrafficScore(competitors, demographics)

	analysis := &models.CompetitorAnalysis{
		SearchID:          uuid.NewString(),
		Location:          query.Location,
		BusinessType:      query.BusinessType,
		CenterCoordinates: center,
		Competitors:       competitors,
		CompetitorCount:   len(competitors),
		SaturationScore:   saturation,
		FootTrafficScore:  &footTraffic,
		Demographics:      demographics,
		RentalEstimates:   rental,
		BreakEvenAnalysis: breakEven,
		RadiusMeters:      query.RadiusMeters,
		AnalysisDate:      time.Now(),
	}

	s.storeSearch(ctx, analysis)
	s.mirrorCompetitors(ctx, analysis)

	return analysis, nil
}

// Compare analyzes 2-4 candidate locations and summarizes which wins on each
// criterion.
func (s *AnalysisService) Compare(ctx context.Context, queries []models.LocationQuery) (*models.LocationComparison, error) {
	if len(queries) < 2 || len(queries) > 4 {
		return nil, errors.NewAPIError("INVALID_INPUT", "Please provide 2-4 locations for comparison", 400)
	}

	results := make([]models.CompetitorAnalysis, 0, len(queries))
	for _, query := range queries {
		analysis, err := s.Analyze(ctx, query)
		if err != nil {
			return nil, err
		}
		results = append(results, *analysis)
	}

	comparison := &models.LocationComparison{
		ComparisonID:   uuid.NewString(),
		Locations:      results,
		Summary:        SummarizeComparison(results),
		ComparisonDate: time.Now(),
	}

	if _, err := s.comparisons.InsertOne(ctx, comparison); err != nil {
		log.Printf("Failed to store comparison %s: %v", comparison.ComparisonID, err)
	}

	return comparison, nil
}

// GetSearch retrieves one stored analysis by its search id.
func (s *AnalysisService) GetSearch(ctx context.Context, searchID string) (*models.CompetitorAnalysis, error) {
	var analysis models.CompetitorAnalysis
	err := s.searches.FindOne(ctx, bson.M{"search_id": searchID}).Decode(&analysis)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.ErrNotFound
		}
		return nil, err
	}
	return &analysis, nil
}

// RecentSearches returns the latest 50 stored analyses, newest first.
func (s *AnalysisService) RecentSearches(ctx context.Context) ([]models.CompetitorAnalysis, error) {
	opts := options.Find().SetSort(bson.D{{Key: "analysis_date", Value: -1}}).SetLimit(50)
	cursor, err := s.searches.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []models.CompetitorAnalysis
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// RecentComparisons returns the latest 20 stored comparisons, newest first.
func (s *AnalysisService) RecentComparisons(ctx context.Context) ([]models.LocationComparison, error) {
	opts := options.Find().SetSort(bson.D{{Key: "comparison_date", Value: -1}}).SetLimit(20)
	cursor, err := s.comparisons.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []models.LocationComparison
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// NearbyCompetitors queries the Redis geo mirror for competitors seen in any
// past analysis around a point. Radius is in meters.
func (s *AnalysisService) NearbyCompetitors(ctx context.Context, center models.Coordinates, radiusMeters float64) ([]models.Competitor, error) {
	if s.redisClient == nil {
		return nil, nil
	}

	geoResults, err := s.redisClient.GeoRadius(ctx, competitorGeoKey, center.Lng, center.Lat, &redis.GeoRadiusQuery{
		Radius:    radiusMeters / 1000,
		Unit:      "km",
		WithCoord: true,
		WithDist:  true,
		Sort:      "ASC",
		Count:     50,
	}).Result()
	if err != nil {
		log.Printf("Redis GeoRadius error: %v", err)
		return nil, err
	}

	var competitors []models.Competitor
	for _, geoResult := range geoResults {
		data, err := s.redisClient.HGet(ctx, "competitor:"+geoResult.Name, "data").Result()
		if err != nil {
			log.Printf("Redis HGet error for competitor %s: %v", geoResult.Name, err)
			continue
		}
		var comp models.Competitor
		if err := json.Unmarshal([]byte(data), &comp); err != nil {
			log.Printf("Failed to unmarshal competitor %s: %v", geoResult.Name, err)
			continue
		}
		competitors = append(competitors, comp)
	}
	return competitors, nil
}

func (s *AnalysisService) storeSearch(ctx context.Context, analysis *models.CompetitorAnalysis) {
	doc := bson.M{
		"search_id":     analysis.SearchID,
		"business_type": analysis.BusinessType,
		"location":      analysis.Location,
		"center_coordinates": bson.M{
			"lat": analysis.CenterCoordinates.Lat,
			"lng": analysis.CenterCoordinates.Lng,
		},
		"center_location": bson.M{
			"type":        "Point",
			"coordinates": []float64{analysis.CenterCoordinates.Lng, analysis.CenterCoordinates.Lat},
		},
		"radius":              analysis.RadiusMeters,
		"competitors":         analysis.Competitors,
		"competitor_count":    analysis.CompetitorCount,
		"saturation_score":    analysis.SaturationScore,
		"demographics":        analysis.Demographics,
		"rental_estimates":    analysis.RentalEstimates,
		"break_even_analysis": analysis.BreakEvenAnalysis,
		"foot_traffic_score":  analysis.FootTrafficScore,
		"analysis_date":       analysis.AnalysisDate,
	}
	if _, err := s.searches.InsertOne(ctx, doc); err != nil {
		log.Printf("Failed to store search %s: %v", analysis.SearchID, err)
	}
}

func (s *AnalysisService) mirrorCompetitors(ctx context.Context, analysis *models.CompetitorAnalysis) {
	if s.redisClient == nil {
		return
	}
	for _, comp := range analysis.Competitors {
		if comp.PlaceID == "" {
			continue
		}
		data, err := json.Marshal(comp)
		if err != nil {
			continue
		}
		if err := s.redisClient.HSet(ctx, "competitor:"+comp.PlaceID, "data", data).Err(); err != nil {
			log.Printf("Failed to cache competitor %s: %v", comp.Name, err)
			continue
		}
		if err := s.redisClient.GeoAdd(ctx, competitorGeoKey, &redis.GeoLocation{
			Name:      comp.PlaceID,
			Longitude: comp.Lng,
			Latitude:  comp.Lat,
		}).Err(); err != nil {
			log.Printf("Failed to geo-index competitor %s: %v", comp.Name, err)
		}
	}
}

// Scoring and financial modeling.

// SaturationScore maps competitor density (per km²) onto a 0-100 score.
func SaturationScore(competitorCount, radiusMeters int) float64 {
	area := areaForRadius(radiusMeters)
	if area <= 0 {
		return 0
	}
	density := float64(competitorCount) / area

	switch {
	case density < 0.5:
		return 20
	case density < 1:
		return 40
	case density < 2:
		return 60
	case density < 3:
		return 80
	default:
		return 100
	}
}

// FootTrafficScore estimates area attractiveness from competitor ratings
// (60%) and population density (40%).
func FootTrafficScore(competitors []models.Competitor, demographics models.Demographics) float64 {
	if len(competitors) == 0 {
		return 30.0
	}

	avgRating := 3.5
	var sum float64
	var rated int
	for _, comp := range competitors {
		if comp.Rating != nil {
			sum += *comp.Rating
			rated++
		}
	}
	if rated > 0 {
		avgRating = sum / float64(rated)
	}

	density := 1000.0
	if demographics.PopulationDensity != nil {
		density = *demographics.PopulationDensity
	}
	densityFactor := math.Min(density/5000, 1.0)

	score := (avgRating/5.0)*0.6 + densityFactor*0.4
	return round1(score * 100)
}

type revenueModel struct {
	RevenuePerSqft  float64
	OperatingMargin float64
	AvgSpaceSqft    float64
}

var revenueModels = map[string]revenueModel{
	"restaurant": {25, 0.15, 2000},
	"cafe":       {30, 0.20, 1000},
	"salon":      {35, 0.25, 800},
	"gym":        {8, 0.30, 5000},
	"retail":     {20, 0.18, 1500},
}

var defaultRevenueModel = revenueModel{20, 0.20, 1500}

type rentalTier struct {
	Retail float64
	Tier   string
}

var defaultRentalTier = rentalTier{Retail: 12, Tier: "Tier 3"}

var rentalBusinessMultipliers = map[string]float64{
	"restaurant": 1.3,
	"cafe":       1.1,
	"salon":      1.0,
	"gym":        0.8,
	"retail":     1.2,
	"store":      1.0,
}

// EstimateRentalCosts produces a rough per-sqft rent figure for the business
// type against a default market tier.
func EstimateRentalCosts(businessType string) models.RentalEstimate {
	multiplier, ok := rentalBusinessMultipliers[normalizeBusinessType(businessType)]
	if !ok {
		multiplier = 1.0
	}
	rate := round2(defaultRentalTier.Retail * multiplier)
	index := fmt.Sprintf("$%.2f/sqft/month", rate)
	tier := defaultRentalTier.Tier

	return models.RentalEstimate{
		EstimatedRentPerSqft: &rate,
		RentalIndex:          &index,
		MarketTier:           &tier,
	}
}

// CalculateBreakEven models monthly revenue and costs for the business type,
// adjusted for competition and the area's demographics. BreakEvenMonths is
// nil when the model never turns a profit.
func CalculateBreakEven(businessType string, competitorCount int, demographics models.Demographics, rental models.RentalEstimate) models.BreakEvenAnalysis {
	model, ok := revenueModels[normalizeBusinessType(businessType)]
	if !ok {
		model = defaultRevenueModel
	}

	competitionFactor := math.Max(0.5, 1-float64(competitorCount)*0.05)

	spendingFactor := 1.0
	if demographics.ConsumerSpendingIndex != nil {
		spendingFactor = *demographics.ConsumerSpendingIndex / 100
	} else if demographics.EconomicActivityScore != nil {
		spendingFactor = *demographics.EconomicActivityScore / 100
	}

	footTrafficMult := 1.0
	if demographics.FootTrafficMultiplier != nil {
		footTrafficMult = *demographics.FootTrafficMultiplier
	}

	incomeFactor := 1.0
	if demographics.MedianHouseholdIncome != nil {
		incomeFactor = math.Min(*demographics.MedianHouseholdIncome/50000, 2.0)
	}

	educationFactor := 1.0
	if demographics.EducationBachelorPlus != nil {
		educationFactor = 1 + *demographics.EducationBachelorPlus/100*0.3
	}

	demographicMultiplier := spendingFactor * footTrafficMult * incomeFactor * educationFactor
	adjustedRevenuePerSqft := model.RevenuePerSqft * competitionFactor * demographicMultiplier

	rentPerSqft := 10.0
	if rental.EstimatedRentPerSqft != nil {
		rentPerSqft = *rental.EstimatedRentPerSqft
	}

	monthlyRevenue := adjustedRevenuePerSqft * model.AvgSpaceSqft
	monthlyRent := rentPerSqft * model.AvgSpaceSqft
	monthlyOperating := monthlyRevenue * (1 - model.OperatingMargin)
	monthlyCosts := monthlyRent + monthlyOperating
	monthlyProfit := monthlyRevenue - monthlyCosts

	initialInvestment := monthlyCosts * 6
	annualProfit := monthlyProfit * 12

	result := models.BreakEvenAnalysis{
		EstimatedMonthlyRevenue: ptr(round2(monthlyRevenue)),
		MonthlyCosts:            ptr(round2(monthlyCosts)),
		ProfitProjectionYear1:   ptr(round2(annualProfit)),
	}

	if monthlyProfit > 0 {
		result.BreakEvenMonths = ptr(round1(initialInvestment / monthlyProfit))
	}
	if initialInvestment > 0 {
		result.ROIPercentage = ptr(round1(annualProfit / initialInvestment * 100))
	}

	return result
}

// SummarizeComparison names the winning location per criterion: lowest
// saturation, highest ROI, highest foot traffic, largest population. Ties
// go to the last listed location.
func SummarizeComparison(results []models.CompetitorAnalysis) models.ComparisonSummary {
	var summary models.ComparisonSummary
	if len(results) == 0 {
		return summary
	}

	minSaturation := math.Inf(1)
	maxROI, maxTraffic := 0.0, 0.0
	maxPopulation := 0
	for _, r := range results {
		minSaturation = math.Min(minSaturation, r.SaturationScore)
		if roi := floatOrZero(r.BreakEvenAnalysis.ROIPercentage); roi > maxROI {
			maxROI = roi
		}
		if traffic := floatOrZero(r.FootTrafficScore); traffic > maxTraffic {
			maxTraffic = traffic
		}
		if pop := intOrZero(r.Demographics.EstimatedPopulation); pop > maxPopulation {
			maxPopulation = pop
		}
	}

	for _, r := range results {
		location := r.Location
		if r.SaturationScore == minSaturation {
			summary.BestForLowCompetition = ptr(location)
		}
		if maxROI > 0 && floatOrZero(r.BreakEvenAnalysis.ROIPercentage) == maxROI {
			summary.BestForROI = ptr(location)
		}
		if floatOrZero(r.FootTrafficScore) == maxTraffic {
			summary.BestForFootTraffic = ptr(location)
		}
		if maxPopulation > 0 && intOrZero(r.Demographics.EstimatedPopulation) == maxPopulation {
			summary.BestForDemographics = ptr(location)
		}
	}

	return summary
}

func normalizeBusinessType(businessType string) string {
	return strings.ToLower(strings.TrimSpace(businessType))
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
