package deal

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Step identifies a page of the deal-creation wizard. Validation results are keyed by step.
type Step string

const (
	StepDealAttributes     Step = "dealAttributes"
	StepInvestmentToken    Step = "investmentToken"
	StepSponsorFee         Step = "sponsorFee"
	StepHolderAddress      Step = "holderAddress"
	StepRedemptionDeadline Step = "redemptionDeadline"
	StepDealToken          Step = "dealToken"
	StepDealPrivacy        Step = "dealPrivacy"
	StepExchangeRates      Step = "exchangeRates"
	StepVestingSchedule    Step = "vestingSchedule"
)

// Steps lists the wizard steps in display order.
var Steps = []Step{
	StepDealAttributes,
	StepInvestmentToken,
	StepSponsorFee,
	StepHolderAddress,
	StepRedemptionDeadline,
	StepDealToken,
	StepDealPrivacy,
	StepExchangeRates,
	StepVestingSchedule,
}

type Privacy string

const (
	PrivacyPublic  Privacy = "public"
	PrivacyPrivate Privacy = "private"
	PrivacyNFT     Privacy = "nft"
)

type NFTType string

const (
	NFTTypeERC721  NFTType = "erc721"
	NFTTypeERC1155 NFTType = "erc1155"
)

type Attributes struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

type Token struct {
	Name     string `json:"name,omitempty"`
	Symbol   string `json:"symbol,omitempty"`
	Address  string `json:"address"`
	Decimals int    `json:"decimals"`
}

// Duration is a wizard day/hour/minute triple. It has no calendar semantics.
type Duration struct {
	Days    int `json:"days,omitempty"`
	Hours   int `json:"hours,omitempty"`
	Minutes int `json:"minutes,omitempty"`
}

const (
	secondsPerMinute = 60
	secondsPerHour   = 60 * secondsPerMinute
	secondsPerDay    = 24 * secondsPerHour
)

var (
	maxSeconds = decimal.NewFromInt(math.MaxInt64)
	minSeconds = decimal.NewFromInt(math.MinInt64)
)

// Seconds converts the triple to a number of seconds. A nil duration is zero.
// Totals outside the int64 range saturate instead of wrapping.
func (d *Duration) Seconds() int64 {
	if d == nil {
		return 0
	}
	total := decimal.NewFromInt(int64(d.Days)).Mul(decimal.NewFromInt(secondsPerDay)).
		Add(decimal.NewFromInt(int64(d.Hours)).Mul(decimal.NewFromInt(secondsPerHour))).
		Add(decimal.NewFromInt(int64(d.Minutes)).Mul(decimal.NewFromInt(secondsPerMinute)))
	switch {
	case total.GreaterThan(maxSeconds):
		return math.MaxInt64
	case total.LessThan(minSeconds):
		return math.MinInt64
	}
	return total.IntPart()
}

// IsZero reports whether no component is set.
func (d *Duration) IsZero() bool {
	return d == nil || (d.Days == 0 && d.Hours == 0 && d.Minutes == 0)
}

type WhitelistEntry struct {
	Address string           `json:"address"`
	Amount  *decimal.Decimal `json:"amount,omitempty"`
	IsSaved bool             `json:"isSaved,omitempty"`
}

// NFTCollectionRule gates deal access on holding tokens of one collection.
type NFTCollectionRule struct {
	CollectionAddress string           `json:"collectionAddress"`
	TokenIDs          []string         `json:"tokenIds,omitempty"`
	MinimumAmount     *decimal.Decimal `json:"minimumAmount,omitempty"`
}

// Amount is decimal text as typed into the wizard. JSON numbers and strings are both
// accepted and kept verbatim so that parsing happens once, exactly, in the validator.
type Amount string

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	switch {
	case s == "null":
		*a = ""
	case strings.HasPrefix(s, `"`):
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*a = Amount(strings.TrimSpace(str))
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("amount must be a number or string: %w", err)
		}
		*a = Amount(n.String())
	}
	return nil
}

type ExchangeRates struct {
	InvestmentTokenToRaise Amount `json:"investmentTokenToRaise,omitempty"`
	ExchangeRates          Amount `json:"exchangeRates,omitempty"`
	HasDealMinimum         bool   `json:"hasDealMinimum,omitempty"`
	MinimumAmount          Amount `json:"minimumAmount,omitempty"`
}

type VestingSchedule struct {
	VestingCliff  *Duration `json:"vestingCliff,omitempty"`
	VestingPeriod *Duration `json:"vestingPeriod,omitempty"`
}

// Draft is the deal-creation wizard state.
//
// ERC721 and ERC1155 are checked for presence, not length: a nil slice means the
// collection type was never selected.
type Draft struct {
	DealAttributes     Attributes          `json:"dealAttributes"`
	InvestmentToken    *Token              `json:"investmentToken,omitempty"`
	RedemptionDeadline *Duration           `json:"redemptionDeadline,omitempty"`
	SponsorFee         decimal.Decimal     `json:"sponsorFee"`
	HolderAddress      string              `json:"holderAddress,omitempty"`
	DealToken          *Token              `json:"dealToken,omitempty"`
	ExchangeRates      *ExchangeRates      `json:"exchangeRates,omitempty"`
	VestingSchedule    *VestingSchedule    `json:"vestingSchedule,omitempty"`
	DealPrivacy        Privacy             `json:"dealPrivacy,omitempty"`
	Whitelist          []WhitelistEntry    `json:"whitelist,omitempty"`
	ERC721             []NFTCollectionRule `json:"erc721"`
	ERC1155            []NFTCollectionRule `json:"erc1155"`
}

// HasNFTCollections reports whether any NFT collection type was selected.
func (d Draft) HasNFTCollections() bool {
	return d.ERC721 != nil || d.ERC1155 != nil
}

type FieldErrorKind uint8

const (
	// KindFlag marks a field as required or invalid without a specific message.
	KindFlag FieldErrorKind = iota + 1
	KindMessage
)

// FieldError is either a bare flag (encoded as JSON true) or a message (encoded as a string).
type FieldError struct {
	Kind    FieldErrorKind
	Message string
}

func Flag() *FieldError { return &FieldError{Kind: KindFlag} }

func Message(msg string) *FieldError { return &FieldError{Kind: KindMessage, Message: msg} }

func (e FieldError) String() string {
	if e.Kind == KindMessage {
		return e.Message
	}
	return "required"
}

func (e FieldError) MarshalJSON() ([]byte, error) {
	if e.Kind == KindMessage {
		return json.Marshal(e.Message)
	}
	return []byte("true"), nil
}

func (e *FieldError) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "true" {
		*e = FieldError{Kind: KindFlag}
		return nil
	}
	var msg string
	if err := json.Unmarshal(b, &msg); err != nil {
		return fmt.Errorf("field error must be true or a string: %w", err)
	}
	*e = FieldError{Kind: KindMessage, Message: msg}
	return nil
}

// Result holds one optional error per wizard step. A nil slot means the step is valid.
type Result struct {
	DealAttributes     *FieldError `json:"dealAttributes,omitempty"`
	InvestmentToken    *FieldError `json:"investmentToken,omitempty"`
	SponsorFee         *FieldError `json:"sponsorFee,omitempty"`
	HolderAddress      *FieldError `json:"holderAddress,omitempty"`
	RedemptionDeadline *FieldError `json:"redemptionDeadline,omitempty"`
	DealToken          *FieldError `json:"dealToken,omitempty"`
	DealPrivacy        *FieldError `json:"dealPrivacy,omitempty"`
	ExchangeRates      *FieldError `json:"exchangeRates,omitempty"`
	VestingSchedule    *FieldError `json:"vestingSchedule,omitempty"`
}

func (r *Result) slot(step Step) **FieldError {
	switch step {
	case StepDealAttributes:
		return &r.DealAttributes
	case StepInvestmentToken:
		return &r.InvestmentToken
	case StepSponsorFee:
		return &r.SponsorFee
	case StepHolderAddress:
		return &r.HolderAddress
	case StepRedemptionDeadline:
		return &r.RedemptionDeadline
	case StepDealToken:
		return &r.DealToken
	case StepDealPrivacy:
		return &r.DealPrivacy
	case StepExchangeRates:
		return &r.ExchangeRates
	case StepVestingSchedule:
		return &r.VestingSchedule
	}
	return nil
}

// Get returns the error recorded for step, or nil.
func (r Result) Get(step Step) *FieldError {
	if p := r.slot(step); p != nil {
		return *p
	}
	return nil
}

// set overwrites the slot when e is non-nil; a nil e leaves any earlier error in place.
func (r *Result) set(step Step, e *FieldError) {
	if e == nil {
		return
	}
	if p := r.slot(step); p != nil {
		*p = e
	}
}

// Failed lists the steps that carry an error, in wizard order.
func (r Result) Failed() []Step {
	var out []Step
	for _, s := range Steps {
		if r.Get(s) != nil {
			out = append(out, s)
		}
	}
	return out
}

func (r Result) Valid() bool {
	return len(r.Failed()) == 0
}
