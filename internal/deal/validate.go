package deal

import (
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"aelin/internal/chains"
	"aelin/pkg/evm"
)

const (
	NameMaxLength   = 30
	SymbolMaxLength = 7

	maxRedemptionSeconds     = 30 * secondsPerDay
	minProdRedemptionSeconds = 30 * secondsPerMinute
	minRedemptionSeconds     = secondsPerMinute
	maxVestingSeconds        = 1825 * secondsPerDay
)

var maxSponsorFee = decimal.NewFromInt(15)

// Validate checks a wizard draft against the deal-creation rules for the given chain.
//
// Every step is checked independently; a step may read other steps' raw values but never
// their error state. The only error returned is a *NumberFormatError for exchange-rate
// text that is not a decimal number.
func Validate(d Draft, chainID chains.ID) (Result, error) {
	var res Result
	network := chains.Get(chainID)

	// Name and symbol share a slot; the symbol check runs last.
	res.set(StepDealAttributes, checkName(d.DealAttributes.Name))
	res.set(StepDealAttributes, checkSymbol(d.DealAttributes.Symbol))

	res.set(StepInvestmentToken, checkInvestmentToken(d.InvestmentToken))
	res.set(StepSponsorFee, checkSponsorFee(d.SponsorFee))
	res.set(StepHolderAddress, checkHolderAddress(d.HolderAddress))
	res.set(StepRedemptionDeadline, checkRedemptionDeadline(d.RedemptionDeadline, network.IsProd))
	res.set(StepDealToken, checkDealToken(d.DealToken, d.InvestmentToken, chainID))
	res.set(StepDealPrivacy, checkPrivacy(d))

	rates, err := checkExchangeRates(d)
	if err != nil {
		return Result{}, err
	}
	res.set(StepExchangeRates, rates)

	// Both vesting checks always run, so a failing period replaces a failing cliff.
	res.set(StepVestingSchedule, checkVestingCliff(d.VestingSchedule))
	res.set(StepVestingSchedule, checkVestingPeriod(d.VestingSchedule))

	return res, nil
}

func checkName(name string) *FieldError {
	if name == "" {
		return Flag()
	}
	if utf8.RuneCountInString(name) > NameMaxLength {
		return Message("No more than 30 chars")
	}
	return nil
}

func checkSymbol(symbol string) *FieldError {
	if symbol == "" {
		return Flag()
	}
	if utf8.RuneCountInString(symbol) > SymbolMaxLength {
		return Message("No more than 7 chars")
	}
	return nil
}

func checkInvestmentToken(t *Token) *FieldError {
	if t == nil {
		return Flag()
	}
	if !evm.IsAddress(t.Address) {
		return Message("Invalid Ethereum address")
	}
	return nil
}

func checkSponsorFee(fee decimal.Decimal) *FieldError {
	var out *FieldError
	if fee.IsNegative() {
		out = Flag()
	}
	if fee.GreaterThan(maxSponsorFee) {
		out = Message("Must be <= 15")
	}
	return out
}

func checkHolderAddress(addr string) *FieldError {
	if addr == "" {
		return Flag()
	}
	if !evm.IsAddress(addr) {
		return Message("Invalid ethereum address")
	}
	return nil
}

func checkRedemptionDeadline(deadline *Duration, isProd bool) *FieldError {
	if deadline.IsZero() {
		return Flag()
	}
	secs := deadline.Seconds()
	switch {
	case secs > maxRedemptionSeconds:
		return Message("Max redemption deadline is 30 days")
	case isProd && secs < minProdRedemptionSeconds:
		return Message("Min redemption deadline is 30 mins")
	case secs < minRedemptionSeconds:
		return Message("Min redemption deadline is 1 min")
	}
	return nil
}

func checkDealToken(dealToken, investmentToken *Token, chainID chains.ID) *FieldError {
	if dealToken == nil {
		return Flag()
	}
	if !evm.IsAddress(dealToken.Address) {
		return Message("Invalid ethereum address")
	}
	if investmentToken != nil && dealToken.Address == investmentToken.Address {
		return Message("The deal and investment token cannot be the same")
	}
	if !chains.AllowsPrecisionLoss(chainID) && investmentToken != nil && dealToken.Decimals < investmentToken.Decimals {
		return Message("The number of decimals in the deal token must be equal or higher to the number of decimals in the investment token")
	}
	return nil
}

func checkPrivacy(d Draft) *FieldError {
	switch {
	case d.DealPrivacy == "":
		return Flag()
	case d.DealPrivacy == PrivacyPrivate && len(d.Whitelist) == 0:
		return Message("Add addresses or change pool access to public")
	case d.DealPrivacy == PrivacyNFT && !d.HasNFTCollections():
		return Message("Add collections or change pool access to public")
	}
	return nil
}

func checkVestingCliff(v *VestingSchedule) *FieldError {
	if v != nil && v.VestingCliff.Seconds() > maxVestingSeconds {
		return Message("The vesting cliff max is 5 years or 1825 days")
	}
	return nil
}

func checkVestingPeriod(v *VestingSchedule) *FieldError {
	if v != nil && v.VestingPeriod.Seconds() > maxVestingSeconds {
		return Message("The vesting period max is 5 years or 1825 days")
	}
	return nil
}
