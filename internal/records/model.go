package records

import "time"

// Kind enumerates the source record collections feeding the ledger.
type Kind string

const (
	// KindExpense covers operating expenses.
	KindExpense Kind = "expense"
	// KindPayroll covers monthly payroll records.
	KindPayroll Kind = "payroll"
	// KindReturn covers customer merchandise returns.
	KindReturn Kind = "return"
	// KindCheck covers incoming and outgoing checks.
	KindCheck Kind = "check"
	// KindInstallment covers customer installment payments.
	KindInstallment Kind = "installment"
	// KindSalesInvoice covers sales invoices.
	KindSalesInvoice Kind = "sales_invoice"
	// KindPurchaseInvoice covers supplier purchase invoices.
	KindPurchaseInvoice Kind = "purchase_invoice"
)

// Kinds lists every source kind in a stable order.
func Kinds() []Kind {
	return []Kind{
		KindExpense,
		KindPayroll,
		KindReturn,
		KindCheck,
		KindInstallment,
		KindSalesInvoice,
		KindPurchaseInvoice,
	}
}

// Valid reports whether k names a known source kind.
func (k Kind) Valid() bool {
	switch k {
	case KindExpense, KindPayroll, KindReturn, KindCheck, KindInstallment,
		KindSalesInvoice, KindPurchaseInvoice:
		return true
	}
	return false
}

// Status values shared across the record kinds. Each kind only uses a subset.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusPaid      = "paid"
	StatusProcessed = "processed"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
	StatusCleared   = "cleared"
	StatusBounced   = "bounced"
)

// Collection keys in the key-value store.
const (
	KeyExpenses         = "expenses"
	KeyPayrollRecords   = "payroll_records"
	KeyReturns          = "returns"
	KeyChecks           = "checks"
	KeyInstallments     = "installments"
	KeySalesInvoices    = "sales_invoices"
	KeyPurchaseInvoices = "purchase_invoices"
)

// CheckDirection distinguishes money flowing in from money flowing out.
type CheckDirection string

const (
	// CheckIncoming is a check received from a customer.
	CheckIncoming CheckDirection = "incoming"
	// CheckOutgoing is a check written to a supplier or employee.
	CheckOutgoing CheckDirection = "outgoing"
)

// Expense is an operating expense entered by the shop owner.
type Expense struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	Channel     string    `json:"channel"`
	Status      string    `json:"status"`
	Date        time.Time `json:"date"`
}

// PayrollRecord is one employee's payroll for one month.
type PayrollRecord struct {
	ID           string    `json:"id"`
	EmployeeID   string    `json:"employeeId"`
	EmployeeName string    `json:"employeeName"`
	Month        string    `json:"month"`
	GrossSalary  float64   `json:"grossSalary"`
	Deductions   float64   `json:"deductions"`
	NetSalary    float64   `json:"netSalary"`
	Status       string    `json:"status"`
	Date         time.Time `json:"date"`
}

// ReturnLine is one returned product within a Return.
type ReturnLine struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

// Return is a customer merchandise return against an original sales invoice.
type Return struct {
	ID           string       `json:"id"`
	InvoiceID    string       `json:"invoiceId"`
	CustomerID   string       `json:"customerId"`
	CustomerName string       `json:"customerName"`
	Lines        []ReturnLine `json:"lines"`
	Total        float64      `json:"total"`
	Status       string       `json:"status"`
	Date         time.Time    `json:"date"`
}

// Check is a post-dated check held for or against an owner entity.
type Check struct {
	ID        string         `json:"id"`
	Number    string         `json:"number"`
	OwnerID   string         `json:"ownerId"`
	OwnerType string         `json:"ownerType"`
	OwnerName string         `json:"ownerName"`
	Direction CheckDirection `json:"direction"`
	Amount    float64        `json:"amount"`
	Status    string         `json:"status"`
	DueDate   time.Time      `json:"dueDate"`
	Date      time.Time      `json:"date"`
}

// Installment is a scheduled customer payment against an invoice.
type Installment struct {
	ID           string    `json:"id"`
	CustomerID   string    `json:"customerId"`
	CustomerName string    `json:"customerName"`
	InvoiceID    string    `json:"invoiceId"`
	Amount       float64   `json:"amount"`
	Status       string    `json:"status"`
	DueDate      time.Time `json:"dueDate"`
	PaidAt       time.Time `json:"paidAt,omitempty"`
}

// SalesInvoice is a customer sale.
type SalesInvoice struct {
	ID           string    `json:"id"`
	CustomerID   string    `json:"customerId"`
	CustomerName string    `json:"customerName"`
	Total        float64   `json:"total"`
	Channel      string    `json:"channel"`
	Status       string    `json:"status"`
	Date         time.Time `json:"date"`
}

// PurchaseInvoice is a supplier purchase.
type PurchaseInvoice struct {
	ID           string    `json:"id"`
	SupplierID   string    `json:"supplierId"`
	SupplierName string    `json:"supplierName"`
	Total        float64   `json:"total"`
	Status       string    `json:"status"`
	Date         time.Time `json:"date"`
}

// RealizedStatus returns the status that makes a record of the given kind a
// completed financial event. Payroll historically used "processed" for the
// same state, accepted by Realized below.
func RealizedStatus(kind Kind) string {
	switch kind {
	case KindReturn:
		return StatusProcessed
	case KindCheck:
		return StatusCleared
	default:
		return StatusPaid
	}
}

// Realized reports whether status counts as financially realized for kind.
func Realized(kind Kind, status string) bool {
	if status == RealizedStatus(kind) {
		return true
	}
	// Legacy payroll rows carry "processed" instead of "paid".
	return kind == KindPayroll && status == StatusProcessed
}
