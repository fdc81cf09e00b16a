package ledger

import "time"

// Direction marks whether an entry is money in or money out.
type Direction string

const (
	// DirectionIncome is money flowing into the business.
	DirectionIncome Direction = "income"
	// DirectionExpense is money flowing out of the business.
	DirectionExpense Direction = "expense"
)

// Category is the fixed ledger category set. Business categories on source
// records map onto this enum; anything unmapped lands in CategoryOther.
type Category string

const (
	CategorySales     Category = "sales"
	CategoryPurchases Category = "purchases"
	CategoryRent      Category = "rent"
	CategoryUtilities Category = "utilities"
	CategoryPayroll   Category = "payroll"
	CategoryReturns   Category = "returns"
	CategoryChecks    Category = "checks"
	CategoryDebt      Category = "debt_collection"
	CategoryOther     Category = "other"
)

// Key is the collection key holding the cash-flow ledger.
const Key = "cash_flow_transactions"

// Entry is one posting in the append-only cash-flow ledger. The
// (ReferenceID, ReferenceType) pair is the idempotency key: at most one entry
// may carry a given pair at any time. Entries are removed by reversal, never
// edited in place.
type Entry struct {
	ID            string    `json:"id"`
	Date          time.Time `json:"date"`
	Direction     Direction `json:"direction"`
	Category      Category  `json:"category"`
	Subcategory   string    `json:"subcategory,omitempty"`
	Amount        float64   `json:"amount"`
	Description   string    `json:"description"`
	ReferenceID   string    `json:"referenceId"`
	ReferenceType string    `json:"referenceType"`
	Channel       string    `json:"channel,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// RefKey builds the idempotency key for a reference pair.
func RefKey(referenceID, referenceType string) string {
	return referenceType + ":" + referenceID
}
