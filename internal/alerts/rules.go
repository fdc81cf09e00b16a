package alerts

import "github.com/go-playground/validator/v10"

// Rules configures the scan thresholds. Zero-valued optional thresholds
// disable their rule.
type Rules struct {
	// StalePendingHours flags returns and sales invoices left pending
	// longer than this many hours.
	StalePendingHours int `json:"stalePendingHours" validate:"omitempty,gte=1"`
	// DailyReturnVolumeMax flags a day with more returns than this.
	DailyReturnVolumeMax int `json:"dailyReturnVolumeMax" validate:"gte=0"`
	// ProductReturnedQtyMax flags a product whose returned quantity
	// exceeds this.
	ProductReturnedQtyMax float64 `json:"productReturnedQtyMax" validate:"gte=0"`
	// ExpenseSpikeFactor flags a month whose expense total exceeds this
	// multiple of the historical monthly average.
	ExpenseSpikeFactor float64 `json:"expenseSpikeFactor" validate:"omitempty,gte=1"`
}

// DefaultRules returns the thresholds used when no configuration is supplied.
func DefaultRules() Rules {
	return Rules{
		StalePendingHours:     48,
		DailyReturnVolumeMax:  10,
		ProductReturnedQtyMax: 20,
		ExpenseSpikeFactor:    1.5,
	}
}

var validate = validator.New()

// Validate checks the rule thresholds.
func (r Rules) Validate() error {
	return validate.Struct(r)
}
