package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 currency code.
type Currency string

const (
	UGX Currency = "UGX" // Ugandan Shilling (default)
	KES Currency = "KES" // Kenyan Shilling
	TZS Currency = "TZS" // Tanzanian Shilling
	RWF Currency = "RWF" // Rwandan Franc
	USD Currency = "USD" // US Dollar
	EUR Currency = "EUR" // Euro
)

// DefaultCurrency is used when a school has not configured one.
const DefaultCurrency = UGX

// Money is an immutable amount in a single currency. Operations return
// new values and refuse to mix currencies.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates Money with the given amount and currency.
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	return Money{amount: amount, currency: currency}, nil
}

// NewMoneyFromFloat creates Money from a float64 value.
func NewMoneyFromFloat(amount float64, currency Currency) (Money, error) {
	return NewMoney(decimal.NewFromFloat(amount), currency)
}

// NewMoneyFromString creates Money from a decimal string.
func NewMoneyFromString(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return NewMoney(d, currency)
}

// NewMoneyUGX creates Money in the default shilling currency.
func NewMoneyUGX(amount decimal.Decimal) Money {
	return Money{amount: amount, currency: UGX}
}

// NewMoneyUGXFromFloat creates UGX Money from a float64.
func NewMoneyUGXFromFloat(amount float64) Money {
	return Money{amount: decimal.NewFromFloat(amount), currency: UGX}
}

// NewMoneyUGXFromString creates UGX Money from a decimal string.
func NewMoneyUGXFromString(amount string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return Money{amount: d, currency: UGX}, nil
}

// Zero returns zero Money in the given currency.
func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// ZeroUGX returns zero Money in UGX.
func ZeroUGX() Money {
	return Zero(UGX)
}

func (m Money) Amount() decimal.Decimal { return m.amount }

func (m Money) Currency() Currency { return m.currency }

func (m Money) IsZero() bool { return m.amount.IsZero() }

func (m Money) IsPositive() bool { return m.amount.IsPositive() }

func (m Money) IsNegative() bool { return m.amount.IsNegative() }

// assertSameCurrency reports a descriptive error when two Money values
// cannot participate in the same arithmetic or comparison.
func (m Money) assertSameCurrency(verb string, other Money) error {
	if m.currency != other.currency {
		return fmt.Errorf("cannot %s money with different currencies: %s and %s", verb, m.currency, other.currency)
	}
	return nil
}

func (m Money) withAmount(amount decimal.Decimal) Money {
	return Money{amount: amount, currency: m.currency}
}

// Add returns the sum. Errors when the currencies differ.
func (m Money) Add(other Money) (Money, error) {
	if err := m.assertSameCurrency("add", other); err != nil {
		return Money{}, err
	}
	return m.withAmount(m.amount.Add(other.amount)), nil
}

// MustAdd adds and panics on a currency mismatch. For amounts already
// known to share a currency, like lines of a single invoice.
func (m Money) MustAdd(other Money) Money {
	result, err := m.Add(other)
	if err != nil {
		panic(err)
	}
	return result
}

// Subtract returns the difference. Errors when the currencies differ.
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.assertSameCurrency("subtract", other); err != nil {
		return Money{}, err
	}
	return m.withAmount(m.amount.Sub(other.amount)), nil
}

// MustSubtract subtracts and panics on a currency mismatch.
func (m Money) MustSubtract(other Money) Money {
	result, err := m.Subtract(other)
	if err != nil {
		panic(err)
	}
	return result
}

// Multiply scales the amount by factor.
func (m Money) Multiply(factor decimal.Decimal) Money {
	return m.withAmount(m.amount.Mul(factor))
}

// Negate flips the sign.
func (m Money) Negate() Money {
	return m.withAmount(m.amount.Neg())
}

// Round rounds to the given number of decimal places.
func (m Money) Round(places int32) Money {
	return m.withAmount(m.amount.Round(places))
}

// Min returns the smaller value. Errors when the currencies differ.
func (m Money) Min(other Money) (Money, error) {
	if err := m.assertSameCurrency("compare", other); err != nil {
		return Money{}, err
	}
	return m.withAmount(decimal.Min(m.amount, other.amount)), nil
}

// Equals reports whether amount and currency both match.
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

func (m Money) LessThan(other Money) (bool, error) {
	if err := m.assertSameCurrency("compare", other); err != nil {
		return false, err
	}
	return m.amount.LessThan(other.amount), nil
}

func (m Money) LessThanOrEqual(other Money) (bool, error) {
	if err := m.assertSameCurrency("compare", other); err != nil {
		return false, err
	}
	return m.amount.LessThanOrEqual(other.amount), nil
}

func (m Money) GreaterThan(other Money) (bool, error) {
	if err := m.assertSameCurrency("compare", other); err != nil {
		return false, err
	}
	return m.amount.GreaterThan(other.amount), nil
}

func (m Money) GreaterThanOrEqual(other Money) (bool, error) {
	if err := m.assertSameCurrency("compare", other); err != nil {
		return false, err
	}
	return m.amount.GreaterThanOrEqual(other.amount), nil
}

// String renders the amount to two decimal places with the currency code.
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(2), m.currency)
}

// StringFixed renders the bare amount with fixed decimal places.
func (m Money) StringFixed(places int32) string {
	return m.amount.StringFixed(places)
}

// Float64 returns the amount as a float64. May lose precision.
func (m Money) Float64() float64 {
	f, _ := m.amount.Float64()
	return f
}

type moneyJSON struct {
	Amount   string   `json:"amount"`
	Currency Currency `json:"currency"`
}

// MarshalJSON renders the amount as a string to keep exactness on the wire.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount.String(), Currency: m.currency})
}

// UnmarshalJSON assigns fields directly, so an empty currency in the
// payload is carried through; callers binding external input should
// validate the result.
func (m *Money) UnmarshalJSON(data []byte) error {
	var v moneyJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(v.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	m.amount = amount
	m.currency = v.Currency
	return nil
}

// Value stores the amount only; currency lives in a sibling column.
func (m Money) Value() (driver.Value, error) {
	return m.amount.String(), nil
}

// Scan reads the amount; currency defaults to DefaultCurrency when not
// already set on the receiver.
func (m *Money) Scan(value any) error {
	if value == nil {
		m.amount = decimal.Zero
		m.currency = DefaultCurrency
		return nil
	}

	var strVal string
	switch v := value.(type) {
	case string:
		strVal = v
	case []byte:
		strVal = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Money", value)
	}

	amount, err := decimal.NewFromString(strVal)
	if err != nil {
		return fmt.Errorf("invalid decimal value: %w", err)
	}
	m.amount = amount
	if m.currency == "" {
		m.currency = DefaultCurrency
	}
	return nil
}

// CalculatePercentage returns percent% of the amount, unrounded.
func (m Money) CalculatePercentage(percent decimal.Decimal) Money {
	return m.withAmount(m.amount.Mul(percent).Div(decimal.NewFromInt(100)))
}
