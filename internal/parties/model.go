package parties

// Collection keys in the key-value store.
const (
	KeyCustomers = "customers"
	KeySuppliers = "suppliers"
	KeyEmployees = "employees"
)

// OwnerType names the collection an owner link points into.
type OwnerType string

const (
	OwnerCustomer OwnerType = "customer"
	OwnerSupplier OwnerType = "supplier"
	OwnerEmployee OwnerType = "employee"
)

// Customer is a buying party. The rollup fields (TotalDebt, OrderCount,
// TotalReturns, HasInstallments) are derived caches regenerated from source
// records; they are never treated as authoritative.
type Customer struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Phone           string  `json:"phone,omitempty"`
	TotalDebt       float64 `json:"totalDebt"`
	OrderCount      int     `json:"orderCount"`
	TotalReturns    float64 `json:"totalReturns"`
	HasInstallments bool    `json:"hasInstallments"`
}

// Supplier is a selling party. TotalPurchases is a derived cache.
type Supplier struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Phone          string  `json:"phone,omitempty"`
	TotalPurchases float64 `json:"totalPurchases"`
}

// Employee is a payroll subject. TotalPaidSalaries and LastPaidMonth are
// derived caches maintained by payroll posting and regenerated on demand.
type Employee struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	BaseSalary        float64 `json:"baseSalary"`
	TotalPaidSalaries float64 `json:"totalPaidSalaries"`
	LastPaidMonth     string  `json:"lastPaidMonth,omitempty"`
}
