package integration

import (
	"math"
	"strings"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
)

// expenseCategories maps business expense categories onto the fixed ledger
// category enum. The first deployments of the system ran with Arabic category
// labels, so both spellings stay mapped. Unmapped labels land in "other".
var expenseCategories = map[string]ledger.Category{
	"rent":          ledger.CategoryRent,
	"shop rent":     ledger.CategoryRent,
	"إيجار":         ledger.CategoryRent,
	"إيجار المحل":   ledger.CategoryRent,
	"utilities":     ledger.CategoryUtilities,
	"electricity":   ledger.CategoryUtilities,
	"water":         ledger.CategoryUtilities,
	"كهرباء":        ledger.CategoryUtilities,
	"مياه":          ledger.CategoryUtilities,
	"فواتير":        ledger.CategoryUtilities,
	"salaries":      ledger.CategoryPayroll,
	"payroll":       ledger.CategoryPayroll,
	"رواتب":         ledger.CategoryPayroll,
	"مرتبات":        ledger.CategoryPayroll,
	"purchases":     ledger.CategoryPurchases,
	"inventory":     ledger.CategoryPurchases,
	"مشتريات":       ledger.CategoryPurchases,
	"بضاعة":         ledger.CategoryPurchases,
}

// MapExpenseCategory resolves a business category label to a ledger category.
func MapExpenseCategory(label string) ledger.Category {
	if category, ok := expenseCategories[strings.TrimSpace(label)]; ok {
		return category
	}
	if category, ok := expenseCategories[strings.ToLower(strings.TrimSpace(label))]; ok {
		return category
	}
	return ledger.CategoryOther
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func monetary(qty, unitPrice float64) float64 {
	return round2(qty * unitPrice)
}
