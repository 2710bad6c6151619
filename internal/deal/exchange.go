package deal

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// DefaultTokenDecimals applies when a token has not been picked yet.
	DefaultTokenDecimals = 18
	// MaxTokenDecimals is the largest value ERC-20 decimals() can return as a uint8.
	MaxTokenDecimals = 255
)

// NumberFormatError reports wizard text that is not a decimal number.
type NumberFormatError struct {
	Field string
	Value string
	Err   error
}

func (e *NumberFormatError) Error() string {
	return fmt.Sprintf("%s: invalid number %q: %v", e.Field, e.Value, e.Err)
}

func (e *NumberFormatError) Unwrap() error { return e.Err }

func parseAmount(field string, a Amount) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(strings.TrimSpace(string(a)))
	if err != nil {
		return decimal.Decimal{}, &NumberFormatError{Field: field, Value: string(a), Err: err}
	}
	return v, nil
}

// fixed parses a into a fixed-point value with the given number of decimals,
// truncating any extra precision the way token units do.
func fixed(field string, a Amount, decimals int32) (decimal.Decimal, error) {
	v, err := parseAmount(field, a)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return v.Truncate(decimals), nil
}

func mulFixed(a, b decimal.Decimal, decimals int32) decimal.Decimal {
	return a.Mul(b).Truncate(decimals)
}

// divFixed divides with truncation toward zero. b must be non-zero.
func divFixed(a, b decimal.Decimal, decimals int32) decimal.Decimal {
	q, _ := a.QuoRem(b, decimals)
	return q
}

func tokenDecimals(t *Token) int32 {
	if t == nil {
		return DefaultTokenDecimals
	}
	switch {
	case t.Decimals < 0:
		return 0
	case t.Decimals > MaxTokenDecimals:
		return MaxTokenDecimals
	}
	return int32(t.Decimals)
}

// rateState carries values computed by earlier guards to later ones.
type rateState struct {
	in                 ExchangeRates
	investmentDecimals int32
	dealDecimals       int32

	rate decimal.Decimal
}

type rateGuard struct {
	message string
	fails   func(s *rateState) (bool, error)
}

// rateGuards run in order and stop at the first failure. Later guards rely on
// the values earlier guards have proven present and positive.
var rateGuards = []rateGuard{
	{
		message: "Set how much you want to raise",
		fails: func(s *rateState) (bool, error) {
			return s.in.InvestmentTokenToRaise == "", nil
		},
	},
	{
		message: "Set an exchange rate",
		fails: func(s *rateState) (bool, error) {
			return s.in.ExchangeRates == "", nil
		},
	},
	{
		message: "The exchange rate has to be greater than zero",
		fails: func(s *rateState) (bool, error) {
			rate, err := fixed("exchangeRates", s.in.ExchangeRates, s.investmentDecimals)
			if err != nil {
				return false, err
			}
			s.rate = rate
			return !rate.IsPositive(), nil
		},
	},
	{
		message: "The deal total has to be greater than zero, please increase amount to raise or the exchange rate",
		fails: func(s *rateState) (bool, error) {
			raise, err := fixed("investmentTokenToRaise", s.in.InvestmentTokenToRaise, s.dealDecimals)
			if err != nil {
				return false, err
			}
			rate, err := fixed("exchangeRates", s.in.ExchangeRates, s.dealDecimals)
			if err != nil {
				return false, err
			}
			return !mulFixed(raise, rate, s.dealDecimals).IsPositive(), nil
		},
	},
	{
		message: "Deal token price has to be greater than zero, please decrease the exchange rate",
		fails: func(s *rateState) (bool, error) {
			perDeal := divFixed(decimal.NewFromInt(1), s.rate, s.investmentDecimals)
			return !perDeal.IsPositive(), nil
		},
	},
	{
		message: "Invalid minimum amount",
		fails: func(s *rateState) (bool, error) {
			return s.in.HasDealMinimum && s.in.MinimumAmount == "", nil
		},
	},
	{
		message: "The deal minimum has to be equal or less than the amount you would like to raise",
		fails: func(s *rateState) (bool, error) {
			if !s.in.HasDealMinimum {
				return false, nil
			}
			minimum, err := parseAmount("minimumAmount", s.in.MinimumAmount)
			if err != nil {
				return false, err
			}
			raise, err := parseAmount("investmentTokenToRaise", s.in.InvestmentTokenToRaise)
			if err != nil {
				return false, err
			}
			return minimum.GreaterThan(raise), nil
		},
	},
}

func checkExchangeRates(d Draft) (*FieldError, error) {
	var in ExchangeRates
	if d.ExchangeRates != nil {
		in = *d.ExchangeRates
	}
	if in.InvestmentTokenToRaise == "" && in.ExchangeRates == "" && !in.HasDealMinimum && in.MinimumAmount == "" {
		return Flag(), nil
	}

	s := &rateState{
		in:                 in,
		investmentDecimals: tokenDecimals(d.InvestmentToken),
		dealDecimals:       tokenDecimals(d.DealToken),
	}
	for _, g := range rateGuards {
		failed, err := g.fails(s)
		if err != nil {
			return nil, err
		}
		if failed {
			return Message(g.message), nil
		}
	}
	return nil, nil
}
