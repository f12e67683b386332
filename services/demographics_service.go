package services

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bizmap-server/models"
)

// ACS 5-year estimate variables fetched per county. The tail of the list is
// the 16-bracket household income distribution (B19001_002E..017E).
var acsVariables = []string{
	"B01003_001E", // total population
	"B19013_001E", // median household income
	"B01002_001E", // median age
	"B15003_022E", // bachelor's degrees
	"B15003_001E", // education universe
	"B08303_001E", // commute time
	"B19301_001E", // per capita income
	"B25077_001E", // median home value
	"B25064_001E", // median gross rent
	"B17001_002E", // below poverty
	"B23025_005E", // unemployed
	"B23025_002E", // labor force
	"B19001_002E", "B19001_003E", "B19001_004E", "B19001_005E",
	"B19001_006E", "B19001_007E", "B19001_008E", "B19001_009E",
	"B19001_010E", "B19001_011E", "B19001_012E", "B19001_013E",
	"B19001_014E", "B19001_015E", "B19001_016E", "B19001_017E",
}

var incomeBracketLabels = []string{
	"under_10k", "10k_15k", "15k_20k", "20k_25k", "25k_30k",
	"30k_35k", "35k_40k", "40k_45k", "45k_50k", "50k_60k",
	"60k_75k", "75k_100k", "100k_125k", "125k_150k", "150k_200k", "200k_plus",
}

var aqiCategoryLevels = map[string]string{
	"EXCELLENT":                       "Excellent",
	"GOOD":                            "Good",
	"MODERATE":                        "Moderate",
	"UNHEALTHY_FOR_SENSITIVE_GROUPS":  "Unhealthy for Sensitive Groups",
	"UNHEALTHY":                       "Unhealthy",
	"VERY_UNHEALTHY":                  "Very Unhealthy",
	"HAZARDOUS":                       "Hazardous",
}

// Rough densities (people per km²) around major cities, used when every
// upstream population source is unavailable.
var cityDensities = []struct {
	Lat, Lng, Density float64
}{
	{28.6, 77.2, 11000},  // Delhi
	{19.1, 72.9, 20700},  // Mumbai
	{12.9, 77.6, 4100},   // Bangalore
	{22.6, 88.4, 24000},  // Kolkata
	{13.1, 80.3, 26000},  // Chennai
	{51.5, -0.1, 5600},   // London
	{40.7, -74.0, 10900}, // New York
	{35.7, 139.7, 6200},  // Tokyo
}

// DemographicsService assembles the area statistics for an analysis:
// Google AQI, then US Census data when the point resolves to a US county,
// otherwise a deterministic location-seeded sample so the panels stay
// populated for international queries.
type DemographicsService struct {
	apiKey     string
	httpClient *http.Client

	aqiURL     string
	fccAreaURL string
	censusURL  string
	geocodeURL string
}

func NewDemographicsService(apiKey string) *DemographicsService {
	return &DemographicsService{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		aqiURL:     "https://airquality.googleapis.com/v1/currentConditions:lookup",
		fccAreaURL: "https://geo.fcc.gov/api/census/area",
		censusURL:  "https://api.census.gov/data/2022/acs/acs5",
		geocodeURL: "https://maps.googleapis.com/maps/api/geocode/json",
	}
}

// Lookup never fails; missing sources just leave fields nil or fall through
// to the sample generator.
func (s *DemographicsService) Lookup(ctx context.Context, center models.Coordinates, radiusMeters int) models.Demographics {
	aqiValue, aqiLevel := s.airQuality(ctx, center)

	if census := s.censusLookup(ctx, center); census != nil {
		demo := s.fromCensus(census, radiusMeters)
		demo.AirQualityIndex = aqiValue
		demo.AirQualityLevel = aqiLevel
		return demo
	}

	demo := sampleDemographics(center, radiusMeters)
	if aqiValue != nil {
		demo.AirQualityIndex = aqiValue
		demo.AirQualityLevel = aqiLevel
	}
	return demo
}

// Air quality.

type aqiResponse struct {
	Indexes []struct {
		Code     string `json:"code"`
		AQI      int    `json:"aqi"`
		Category string `json:"category"`
	} `json:"indexes"`
}

func (s *DemographicsService) airQuality(ctx context.Context, center models.Coordinates) (*int, *string) {
	payload, err := json.Marshal(map[string]any{
		"location": map[string]float64{
			"latitude":  center.Lat,
			"longitude": center.Lng,
		},
	})
	if err != nil {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.aqiURL+"?key="+url.QueryEscape(s.apiKey), bytes.NewReader(payload))
	if err != nil {
		return nil, nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Printf("AQI API error: %v", err)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	var data aqiResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		log.Printf("Failed to decode AQI response: %v", err)
		return nil, nil
	}

	for _, index := range data.Indexes {
		if index.Code != "uaqi" {
			continue
		}
		aqi := index.AQI
		level, ok := aqiCategoryLevels[index.Category]
		if !ok {
			level = index.Category
		}
		return &aqi, &level
	}
	return nil, nil
}

// US census.

type censusData struct {
	ZipCode          string
	Population       *int
	MedianIncome     *float64
	PerCapitaIncome  *float64
	MedianAge        *float64
	EducationPct     float64
	CommuteTime      *float64
	HomeValue        *float64
	MedianRent       *float64
	PovertyRate      float64
	UnemploymentRate float64
	IncomeBrackets   map[string]models.IncomeBracket
}

type fccAreaResponse struct {
	Results []struct {
		StateFIPS  string `json:"state_fips"`
		CountyFIPS string `json:"county_fips"`
	} `json:"results"`
}

func (s *DemographicsService) censusLookup(ctx context.Context, center models.Coordinates) *censusData {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(center.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(center.Lng, 'f', -1, 64))
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.fccAreaURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Printf("FCC area lookup error: %v", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var area fccAreaResponse
	if err := json.NewDecoder(resp.Body).Decode(&area); err != nil || len(area.Results) == 0 {
		return nil
	}
	stateFIPS := area.Results[0].StateFIPS
	countyFIPS := area.Results[0].CountyFIPS
	if stateFIPS == "" || countyFIPS == "" {
		return nil
	}

	zipCode := s.reverseGeocodeZip(ctx, center)

	acsParams := url.Values{}
	acsParams.Set("get", strings.Join(acsVariables, ","))
	acsParams.Set("for", "county:"+countyFIPS)
	acsParams.Set("in", "state:"+stateFIPS)

	acsReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.censusURL+"?"+acsParams.Encode(), nil)
	if err != nil {
		return nil
	}
	acsResp, err := s.httpClient.Do(acsReq)
	if err != nil {
		log.Printf("Census ACS error: %v", err)
		return nil
	}
	defer acsResp.Body.Close()

	if acsResp.StatusCode != http.StatusOK {
		return nil
	}

	// Census returns a header row followed by data rows, all strings.
	var rows [][]*string
	if err := json.NewDecoder(acsResp.Body).Decode(&rows); err != nil || len(rows) < 2 {
		return nil
	}
	row := rows[1]
	if len(row) < len(acsVariables) {
		return nil
	}

	data := &censusData{
		ZipCode:         zipCode,
		Population:      safeInt(row[0]),
		MedianIncome:    safeFloat(row[1]),
		MedianAge:       safeFloat(row[2]),
		CommuteTime:     safeFloat(row[5]),
		PerCapitaIncome: safeFloat(row[6]),
		HomeValue:       safeFloat(row[7]),
		MedianRent:      safeFloat(row[8]),
	}

	bachelor := intOrZero(safeInt(row[3]))
	eduUniverse := intOrZero(safeInt(row[4]))
	if eduUniverse > 0 {
		data.EducationPct = float64(bachelor) / float64(eduUniverse) * 100
	}

	population := intOrZero(data.Population)
	poverty := intOrZero(safeInt(row[9]))
	if population > 0 {
		data.PovertyRate = float64(poverty) / float64(population) * 100
	}

	unemployed := intOrZero(safeInt(row[10]))
	laborForce := intOrZero(safeInt(row[11]))
	if laborForce > 0 {
		data.UnemploymentRate = float64(unemployed) / float64(laborForce) * 100
	}

	data.IncomeBrackets = make(map[string]models.IncomeBracket, len(incomeBracketLabels))
	for i, label := range incomeBracketLabels {
		count := intOrZero(safeInt(row[12+i]))
		pct := 0.0
		if population > 0 {
			pct = math.Round(float64(count)/float64(population)*1000) / 10
		}
		data.IncomeBrackets[label] = models.IncomeBracket{Count: count, Percentage: pct}
	}

	return data
}

func (s *DemographicsService) reverseGeocodeZip(ctx context.Context, center models.Coordinates) string {
	params := url.Values{}
	params.Set("latlng", strconv.FormatFloat(center.Lat, 'f', -1, 64)+","+strconv.FormatFloat(center.Lng, 'f', -1, 64))
	params.Set("key", s.apiKey)
	params.Set("result_type", "postal_code")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.geocodeURL+"?"+params.Encode(), nil)
	if err != nil {
		return ""
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Printf("ZIP lookup error: %v", err)
		return ""
	}
	defer resp.Body.Close()

	var data struct {
		Status  string `json:"status"`
		Results []struct {
			AddressComponents []struct {
				LongName string   `json:"long_name"`
				Types    []string `json:"types"`
			} `json:"address_components"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return ""
	}
	if data.Status != "OK" || len(data.Results) == 0 {
		return ""
	}
	for _, component := range data.Results[0].AddressComponents {
		for _, t := range component.Types {
			if t == "postal_code" {
				return component.LongName
			}
		}
	}
	return ""
}

func (s *DemographicsService) fromCensus(census *censusData, radiusMeters int) models.Demographics {
	demo := models.Demographics{
		EstimatedPopulation:         census.Population,
		MedianHouseholdIncome:       census.MedianIncome,
		PerCapitaIncome:             census.PerCapitaIncome,
		MedianAge:                   census.MedianAge,
		AverageHomeValue:            census.HomeValue,
		CommuteTimeMinutes:          census.CommuteTime,
		HouseholdIncomeDistribution: census.IncomeBrackets,
	}
	if census.ZipCode != "" {
		demo.ZipCode = &census.ZipCode
	}
	demo.EducationBachelorPlus = ptr(round1(census.EducationPct))
	demo.PovertyRate = ptr(round1(census.PovertyRate))
	demo.UnemploymentRate = ptr(round1(census.UnemploymentRate))

	areaKm2 := areaForRadius(radiusMeters)
	if census.Population != nil && areaKm2 > 0 {
		density := float64(*census.Population) / areaKm2
		demo.PopulationDensity = ptr(round2(density))
		demo.UrbanRuralIndex = ptr(math.Min(density/1000, 1.0))
	}

	income := 50000.0
	if census.MedianIncome != nil {
		income = *census.MedianIncome
	}
	economicScore := math.Min(((income/50000)*0.6+(census.EducationPct/50)*0.4)*100, 100)
	demo.EconomicActivityScore = ptr(round1(economicScore))

	if census.MedianIncome != nil {
		demo.SpendingCategories = spendingCategories(*census.MedianIncome)
		demo.AverageSpendingRetail = ptr(round2(demo.SpendingCategories["retail_shopping"] / 12))
		demo.ConsumerSpendingIndex = ptr(round1(*census.MedianIncome / 60000 * 100))
	}

	demo.FootTrafficMultiplier = ptr(round2(footTrafficMultiplier(census)))

	if census.MedianRent != nil && census.MedianIncome != nil && *census.MedianIncome > 0 {
		burden := *census.MedianRent * 12 / *census.MedianIncome * 100
		demo.RentBurdenPercentage = ptr(round1(burden))
	}

	return demo
}

// Spending shares from the BLS Consumer Expenditure Survey, applied to the
// ~72% of income that households spend annually.
func spendingCategories(medianIncome float64) map[string]float64 {
	annual := medianIncome * 0.72
	return map[string]float64{
		"housing":         round2(annual * 0.33),
		"food":            round2(annual * 0.13),
		"transportation":  round2(annual * 0.16),
		"healthcare":      round2(annual * 0.08),
		"entertainment":   round2(annual * 0.05),
		"retail_shopping": round2(annual * 0.12),
		"other":           round2(annual * 0.13),
	}
}

func footTrafficMultiplier(census *censusData) float64 {
	mult := 1.0
	if census.MedianIncome != nil {
		switch income := *census.MedianIncome; {
		case income > 80000:
			mult += 0.4
		case income > 60000:
			mult += 0.25
		case income < 35000:
			mult -= 0.2
		}
	}
	switch {
	case census.EducationPct > 50:
		mult += 0.3
	case census.EducationPct > 30:
		mult += 0.15
	}
	if census.MedianAge != nil && *census.MedianAge >= 25 && *census.MedianAge <= 45 {
		mult += 0.25
	}
	if census.UnemploymentRate > 0 && census.UnemploymentRate < 5 {
		mult += 0.1
	}
	return mult
}

// Fallbacks.

// sampleDemographics produces deterministic, location-seeded figures so
// non-US queries still render complete panels. The same coordinates always
// yield the same sample.
func sampleDemographics(center models.Coordinates, radiusMeters int) models.Demographics {
	rng := rand.New(rand.NewSource(int64((center.Lat + center.Lng) * 1000)))

	locationType := classifyLocation(center)

	var baseIncome float64
	var aqi, educationPct int
	switch locationType {
	case "global":
		baseIncome = float64(65000 + rng.Intn(30001))
		aqi = 25 + rng.Intn(41)
		educationPct = 45 + rng.Intn(31)
	case "metro":
		baseIncome = float64(45000 + rng.Intn(30001))
		aqi = 80 + rng.Intn(71)
		educationPct = 35 + rng.Intn(26)
	default:
		baseIncome = float64(35000 + rng.Intn(20001))
		aqi = 40 + rng.Intn(51)
		educationPct = 25 + rng.Intn(21)
	}

	population := estimatePopulationFallback(center, radiusMeters)
	areaKm2 := areaForRadius(radiusMeters)
	density := 0.0
	if areaKm2 > 0 {
		density = float64(population) / areaKm2
	}

	zipCode := strconv.Itoa(10000 + rng.Intn(90000))
	perCapita := baseIncome * (0.6 + rng.Float64()*0.2)
	medianAge := float64(28 + rng.Intn(15))
	aqiLevel := aqiDisplayLevel(aqi)

	demo := models.Demographics{
		PopulationDensity:     ptr(round2(density)),
		EstimatedPopulation:   ptr(population),
		UrbanRuralIndex:       ptr(math.Min(density/1000, 1.0)),
		EconomicActivityScore: ptr(50.0),
		AirQualityIndex:       ptr(aqi),
		AirQualityLevel:       &aqiLevel,
		ZipCode:               &zipCode,
		MedianHouseholdIncome: ptr(baseIncome),
		PerCapitaIncome:       ptr(round2(perCapita)),
		MedianAge:             ptr(medianAge),
		EducationBachelorPlus: ptr(float64(educationPct)),
		PovertyRate:           ptr(float64(8 + rng.Intn(11))),
		UnemploymentRate:      ptr(float64(3 + rng.Intn(6))),
		AverageHomeValue:      ptr(float64(200000 + rng.Intn(600001))),
		RentBurdenPercentage:  ptr(float64(25 + rng.Intn(21))),
		CommuteTimeMinutes:    ptr(float64(18 + rng.Intn(18))),
		FootTrafficMultiplier: ptr(round2(0.8 + rng.Float64()*0.6)),
	}

	demo.SpendingCategories = spendingCategories(baseIncome)
	demo.AverageSpendingRetail = ptr(round2(baseIncome * 0.12 / 12))
	demo.ConsumerSpendingIndex = ptr(round1(baseIncome / 60000 * 100))
	demo.HouseholdIncomeDistribution = map[string]models.IncomeBracket{
		"under_50k": {Percentage: float64(20 + rng.Intn(21))},
		"50k_100k":  {Percentage: float64(35 + rng.Intn(16))},
		"100k_plus": {Percentage: float64(15 + rng.Intn(16))},
	}

	return demo
}

func classifyLocation(center models.Coordinates) string {
	globals := []models.Coordinates{{Lat: 51.5, Lng: -0.1}, {Lat: 40.7, Lng: -74.0}}
	metros := []models.Coordinates{{Lat: 19.1, Lng: 72.9}, {Lat: 28.6, Lng: 77.2}, {Lat: 12.9, Lng: 77.6}}

	for _, g := range globals {
		if math.Abs(center.Lat-g.Lat)+math.Abs(center.Lng-g.Lng) < 0.5 {
			return "global"
		}
	}
	for _, m := range metros {
		if math.Abs(center.Lat-m.Lat)+math.Abs(center.Lng-m.Lng) < 0.5 {
			return "metro"
		}
	}
	return "suburban"
}

func estimatePopulationFallback(center models.Coordinates, radiusMeters int) int {
	minDistance := math.Inf(1)
	closestDensity := 2000.0 // suburban default

	for _, city := range cityDensities {
		distance := math.Sqrt(math.Pow(center.Lat-city.Lat, 2) + math.Pow(center.Lng-city.Lng, 2))
		if distance < minDistance {
			minDistance = distance
			factor := math.Max(0.1, 1-distance*50)
			closestDensity = city.Density * factor
		}
	}

	return int(closestDensity * areaForRadius(radiusMeters))
}

func aqiDisplayLevel(aqi int) string {
	switch {
	case aqi <= 50:
		return "Good"
	case aqi <= 100:
		return "Moderate"
	case aqi <= 150:
		return "Unhealthy for Sensitive Groups"
	default:
		return "Unhealthy"
	}
}

func areaForRadius(radiusMeters int) float64 {
	r := float64(radiusMeters) / 1000
	return r * r * math.Pi
}

func safeFloat(v *string) *float64 {
	if v == nil {
		return nil
	}
	trimmed := strings.ToLower(strings.TrimSpace(*v))
	if trimmed == "" || trimmed == "null" || trimmed == "-" || trimmed == "none" {
		return nil
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil
	}
	return &f
}

func safeInt(v *string) *int {
	f := safeFloat(v)
	if f == nil {
		return nil
	}
	i := int(*f)
	return &i
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func ptr[T any](v T) *T {
	return &v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
