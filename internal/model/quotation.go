package model

// Quotation is the price breakdown computed once at intake. All amounts are
// in cents. Scheduling never reads it.
type Quotation struct {
	TrainingPrice int64 `json:"training_price"`
	TravelCost    int64 `json:"travel_cost"`
	TotalPrice    int64 `json:"total_price"`
}
