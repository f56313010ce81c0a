package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeQuotation_Breakdown(t *testing.T) {
	q := ComputeQuotation("OH", 3)

	assert.Equal(t, int64(360_000), q.TrainingPrice)
	// Band 0: base plus per-diem only.
	assert.Equal(t, int64(35_000+3*8_500), q.TravelCost)
	assert.Equal(t, q.TrainingPrice+q.TravelCost, q.TotalPrice)
}

func TestComputeQuotation_FartherStatesCostMore(t *testing.T) {
	near := ComputeQuotation("OH", 2)
	mid := ComputeQuotation("NY", 2)
	far := ComputeQuotation("CA", 2)

	assert.Less(t, near.TravelCost, mid.TravelCost)
	assert.Less(t, mid.TravelCost, far.TravelCost)
	// Training fee does not depend on distance.
	assert.Equal(t, near.TrainingPrice, far.TrainingPrice)
}

func TestComputeQuotation_UnknownStatePricesAtFarBand(t *testing.T) {
	unknown := ComputeQuotation("ZZ", 2)
	alaska := ComputeQuotation("AK", 2)

	assert.Equal(t, alaska.TravelCost, unknown.TravelCost)
}

func TestComputeQuotation_Deterministic(t *testing.T) {
	assert.Equal(t, ComputeQuotation("TX", 4), ComputeQuotation("TX", 4))
}

func TestComputeQuotation_ZeroDays(t *testing.T) {
	q := ComputeQuotation("OH", 0)

	assert.Zero(t, q.TrainingPrice)
	assert.Equal(t, int64(35_000), q.TravelCost)
}
