package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for transaction dates.
const DateLayout = "2006-01-02"

// TransactionType distinguishes money in from money out.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// Valid reports whether t is a known type.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// Category classifies a transaction. Each category belongs to exactly one type.
type Category string

const (
	CategorySalary      Category = "SALARY"
	CategoryFreelance   Category = "FREELANCE"
	CategoryInvestment  Category = "INVESTMENT"
	CategoryGift        Category = "GIFT"
	CategoryOtherIncome Category = "OTHER_INCOME"

	CategoryRent          Category = "RENT"
	CategoryUtilities     Category = "UTILITIES"
	CategoryGroceries     Category = "GROCERIES"
	CategoryTransport     Category = "TRANSPORT"
	CategoryHealthcare    Category = "HEALTHCARE"
	CategoryEntertainment Category = "ENTERTAINMENT"
	CategoryEducation     Category = "EDUCATION"
	CategoryShopping      Category = "SHOPPING"
	CategoryRestaurant    Category = "RESTAURANT"
	CategoryTravel        Category = "TRAVEL"
	CategoryInsurance     Category = "INSURANCE"
	CategoryOtherExpense  Category = "OTHER_EXPENSE"
)

var categoryTypes = map[Category]TransactionType{
	CategorySalary:      TransactionTypeIncome,
	CategoryFreelance:   TransactionTypeIncome,
	CategoryInvestment:  TransactionTypeIncome,
	CategoryGift:        TransactionTypeIncome,
	CategoryOtherIncome: TransactionTypeIncome,

	CategoryRent:          TransactionTypeExpense,
	CategoryUtilities:     TransactionTypeExpense,
	CategoryGroceries:     TransactionTypeExpense,
	CategoryTransport:     TransactionTypeExpense,
	CategoryHealthcare:    TransactionTypeExpense,
	CategoryEntertainment: TransactionTypeExpense,
	CategoryEducation:     TransactionTypeExpense,
	CategoryShopping:      TransactionTypeExpense,
	CategoryRestaurant:    TransactionTypeExpense,
	CategoryTravel:        TransactionTypeExpense,
	CategoryInsurance:     TransactionTypeExpense,
	CategoryOtherExpense:  TransactionTypeExpense,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := categoryTypes[c]
	return ok
}

// Type returns the transaction type the category belongs to.
func (c Category) Type() TransactionType {
	return categoryTypes[c]
}

// Amount bounds. MaxAmount is the largest value a NUMERIC(19,2) column holds.
var (
	MinAmount = decimal.New(1, -2)
	MaxAmount = decimal.RequireFromString("99999999999999999.99")
)

const (
	maxAmountIntegerDigits = 17
	// maxAmountScale bounds the exponent of accepted input. Trailing zeros up to
	// this scale are tolerated, anything finer is rejected before rounding.
	maxAmountScale = 20
)

// Transaction is a single ledger record. UserID is fixed at creation.
type Transaction struct {
	ID          int64
	UserID      int64
	Type        TransactionType
	Category    Category
	Amount      decimal.Decimal
	Date        time.Time
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TransactionFields are the owner-editable parts of a transaction.
type TransactionFields struct {
	Type        TransactionType
	Category    Category
	Amount      decimal.Decimal
	Date        time.Time
	Description *string
}

// Validate returns a field -> message map of violations, or nil when valid.
func (f TransactionFields) Validate() map[string]string {
	errs := map[string]string{}
	switch {
	case f.Type == "":
		errs["type"] = "Type is required"
	case !f.Type.Valid():
		errs["type"] = "Type must be one of INCOME, EXPENSE"
	}
	switch {
	case f.Category == "":
		errs["category"] = "Category is required"
	case !f.Category.Valid():
		errs["category"] = "Category is not recognized"
	case f.Type.Valid() && f.Category.Type() != f.Type:
		errs["category"] = "Category does not match transaction type " + string(f.Type)
	}
	if msg := validateAmount(f.Amount); msg != "" {
		errs["amount"] = msg
	}
	if f.Date.IsZero() {
		errs["date"] = "Date is required"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// validateAmount rejects out-of-range magnitudes from the coefficient and
// exponent alone. Comparisons and rounding rescale the coefficient, so they only
// run once the value is known to be small.
func validateAmount(amount decimal.Decimal) string {
	if amount.Sign() <= 0 {
		return "Amount must be greater than 0"
	}
	exp := int(amount.Exponent())
	if amount.NumDigits()+exp > maxAmountIntegerDigits {
		return "Amount exceeds the maximum of " + MaxAmount.String()
	}
	if exp < -maxAmountScale {
		return "Amount must have at most 2 decimal places"
	}
	switch {
	case amount.LessThan(MinAmount):
		return "Amount must be greater than 0"
	case amount.GreaterThan(MaxAmount):
		return "Amount exceeds the maximum of " + MaxAmount.String()
	case !amount.Equal(amount.Round(2)):
		return "Amount must have at most 2 decimal places"
	}
	return ""
}

// Apply overwrites the editable fields of t.
func (t *Transaction) Apply(f TransactionFields) {
	t.Type = f.Type
	t.Category = f.Category
	t.Amount = f.Amount
	t.Date = TruncateDate(f.Date)
	t.Description = f.Description
}

// TruncateDate drops the clock part, keeping the calendar date in UTC.
func TruncateDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
