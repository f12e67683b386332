package metrics

// Color tokens handed to the presentation layer. The UI maps these to its
// own styling; this package never deals in CSS.
const (
	ColorGreen   = "green"
	ColorYellow  = "yellow"
	ColorOrange  = "orange"
	ColorRed     = "red"
	ColorPurple  = "purple"
	ColorDarkRed = "dark-red"
)

// Band is a qualitative range a continuous score falls into.
type Band struct {
	Label string
	Color string
}

// SaturationBand classifies a 0-100 market saturation score.
// Boundaries are inclusive on the low side of each band.
func SaturationBand(score float64) Band {
	switch {
	case score <= 30:
		return Band{Label: "Low", Color: ColorGreen}
	case score <= 60:
		return Band{Label: "Medium", Color: ColorYellow}
	default:
		return Band{Label: "High", Color: ColorRed}
	}
}

// AirQualityBand maps an AQI reading onto the standard severity colors.
// Each threshold is the inclusive upper bound of its band.
func AirQualityBand(aqi float64) string {
	switch {
	case aqi <= 50:
		return ColorGreen
	case aqi <= 100:
		return ColorYellow
	case aqi <= 150:
		return ColorOrange
	case aqi <= 200:
		return ColorRed
	case aqi <= 300:
		return ColorPurple
	default:
		return ColorDarkRed
	}
}

// ProfitabilitySignal colors a projected ROI percentage. Anything at or
// below 20% is shown as a caution rather than a loss.
func ProfitabilitySignal(roiPercentage float64) string {
	if roiPercentage > 20 {
		return ColorGreen
	}
	return ColorYellow
}

// RiskSignal colors a metric against a call-site-supplied threshold.
// With lowerIsBetter, values under the threshold are healthy (unemployment
// under 5%, poverty under 15%); otherwise values over the threshold are
// healthy. Rent burden uses lowerIsBetter with a 30% threshold.
func RiskSignal(value, threshold float64, lowerIsBetter bool) string {
	if lowerIsBetter {
		if value < threshold {
			return ColorGreen
		}
		return ColorRed
	}
	if value > threshold {
		return ColorGreen
	}
	return ColorRed
}
