package metrics

import "testing"

func TestSaturationBandPartition(t *testing.T) {
	cases := []struct {
		score float64
		label string
		color string
	}{
		{0, "Low", ColorGreen},
		{30, "Low", ColorGreen},
		{30.1, "Medium", ColorYellow},
		{45, "Medium", ColorYellow},
		{60, "Medium", ColorYellow},
		{60.1, "High", ColorRed},
		{100, "High", ColorRed},
	}

	for _, tc := range cases {
		band := SaturationBand(tc.score)
		if band.Label != tc.label {
			t.Errorf("SaturationBand(%v).Label = %q, want %q", tc.score, band.Label, tc.label)
		}
		if band.Color != tc.color {
			t.Errorf("SaturationBand(%v).Color = %q, want %q", tc.score, band.Color, tc.color)
		}
	}
}

func TestSaturationBandNoGaps(t *testing.T) {
	// Every score in the domain must land in exactly one band.
	for s := 0.0; s <= 100; s += 0.5 {
		band := SaturationBand(s)
		switch band.Label {
		case "Low":
			if s > 30 {
				t.Fatalf("score %v misclassified as Low", s)
			}
		case "Medium":
			if s <= 30 || s > 60 {
				t.Fatalf("score %v misclassified as Medium", s)
			}
		case "High":
			if s <= 60 {
				t.Fatalf("score %v misclassified as High", s)
			}
		default:
			t.Fatalf("unknown band %q for score %v", band.Label, s)
		}
	}
}

func TestAirQualityBandThresholds(t *testing.T) {
	cases := []struct {
		aqi   float64
		color string
	}{
		{0, ColorGreen},
		{50, ColorGreen},
		{51, ColorYellow},
		{100, ColorYellow},
		{101, ColorOrange},
		{150, ColorOrange},
		{151, ColorRed},
		{200, ColorRed},
		{201, ColorPurple},
		{300, ColorPurple},
		{301, ColorDarkRed},
		{500, ColorDarkRed},
	}

	for _, tc := range cases {
		if got := AirQualityBand(tc.aqi); got != tc.color {
			t.Errorf("AirQualityBand(%v) = %q, want %q", tc.aqi, got, tc.color)
		}
	}
}

func TestAirQualityBandMonotonic(t *testing.T) {
	severity := map[string]int{
		ColorGreen:   0,
		ColorYellow:  1,
		ColorOrange:  2,
		ColorRed:     3,
		ColorPurple:  4,
		ColorDarkRed: 5,
	}

	prev := -1
	for aqi := 0.0; aqi <= 400; aqi++ {
		rank, ok := severity[AirQualityBand(aqi)]
		if !ok {
			t.Fatalf("unknown band for aqi %v", aqi)
		}
		if rank < prev {
			t.Fatalf("severity decreased at aqi %v", aqi)
		}
		prev = rank
	}
}

func TestProfitabilitySignal(t *testing.T) {
	if got := ProfitabilitySignal(20.1); got != ColorGreen {
		t.Errorf("ProfitabilitySignal(20.1) = %q, want green", got)
	}
	if got := ProfitabilitySignal(20); got != ColorYellow {
		t.Errorf("ProfitabilitySignal(20) = %q, want yellow", got)
	}
	if got := ProfitabilitySignal(-5); got != ColorYellow {
		t.Errorf("ProfitabilitySignal(-5) = %q, want yellow", got)
	}
}

func TestRiskSignal(t *testing.T) {
	// Unemployment under 5% is healthy.
	if got := RiskSignal(4.2, 5, true); got != ColorGreen {
		t.Errorf("unemployment 4.2 = %q, want green", got)
	}
	if got := RiskSignal(7.5, 5, true); got != ColorRed {
		t.Errorf("unemployment 7.5 = %q, want red", got)
	}
	// Poverty under 15% is healthy.
	if got := RiskSignal(12, 15, true); got != ColorGreen {
		t.Errorf("poverty 12 = %q, want green", got)
	}
	// Higher-is-better direction.
	if got := RiskSignal(80, 50, false); got != ColorGreen {
		t.Errorf("higher-is-better 80 vs 50 = %q, want green", got)
	}
	if got := RiskSignal(40, 50, false); got != ColorRed {
		t.Errorf("higher-is-better 40 vs 50 = %q, want red", got)
	}
}
