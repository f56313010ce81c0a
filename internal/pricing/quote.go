package pricing

import (
	"strings"

	"github.com/machtek/trainsched/internal/model"
)

// Quotation math is pure and computed once at intake. Scheduling never looks
// at it. All amounts are in cents.

const (
	dayRate       int64 = 120_000 // per training day
	travelBase    int64 = 35_000  // fixed travel/lodging floor per trip
	perBandCost   int64 = 25_000  // added per distance band from the shop
	perDiemPerDay int64 = 8_500   // technician per-diem while on site
)

// distanceBand buckets destination states by distance from the Cincinnati
// shop. Unknown states price at the far band.
var distanceBand = map[string]int64{
	"OH": 0, "IN": 0, "KY": 0, "WV": 0, "MI": 1, "IL": 1, "TN": 1, "PA": 1,
	"VA": 1, "NC": 1, "GA": 1, "WI": 1, "MO": 1, "NY": 2, "NJ": 2, "MD": 2,
	"DE": 2, "CT": 2, "MA": 2, "SC": 2, "AL": 2, "MS": 2, "AR": 2, "IA": 2,
	"MN": 2, "KS": 2, "OK": 2, "LA": 2, "FL": 2, "NH": 3, "VT": 3, "ME": 3,
	"RI": 3, "ND": 3, "SD": 3, "NE": 3, "TX": 3, "CO": 3, "NM": 3, "WY": 3,
	"MT": 3, "AZ": 4, "UT": 4, "ID": 4, "NV": 4, "CA": 4, "OR": 4, "WA": 4,
	"AK": 5, "HI": 5,
}

const farBand int64 = 5

// ComputeQuotation prices a training of trainingDays days at the client site
// in the given state. Deterministic; same inputs always produce the same
// quotation.
func ComputeQuotation(state string, trainingDays int) model.Quotation {
	if trainingDays < 0 {
		trainingDays = 0
	}

	band, ok := distanceBand[strings.ToUpper(strings.TrimSpace(state))]
	if !ok {
		band = farBand
	}

	training := dayRate * int64(trainingDays)
	travel := travelBase + band*perBandCost + perDiemPerDay*int64(trainingDays)

	return model.Quotation{
		TrainingPrice: training,
		TravelCost:    travel,
		TotalPrice:    training + travel,
	}
}
