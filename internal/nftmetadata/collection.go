package nftmetadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"aelin/internal/chains"
)

// Source is a marketplace ranking the collector reads from. Its value is also
// the prefix of the snapshot and metadata file names.
type Source string

const (
	SourceOpenSeaMainnet Source = "open-sea-mainnet"
	SourceOpenSeaPolygon Source = "open-sea-polygon"
	SourceQuixotic       Source = "quixotic"
	SourceStratos        Source = "stratos"
)

// Sources lists every marketplace in collection order.
var Sources = []Source{SourceOpenSeaMainnet, SourceOpenSeaPolygon, SourceQuixotic, SourceStratos}

func (s Source) Network() chains.ID {
	switch s {
	case SourceOpenSeaMainnet:
		return chains.Mainnet
	case SourceOpenSeaPolygon:
		return chains.Polygon
	case SourceQuixotic:
		return chains.Optimism
	case SourceStratos:
		return chains.Arbitrum
	}
	return 0
}

// Limit caps how many ranked collections are enriched per run.
func (s Source) Limit() int {
	switch s {
	case SourceOpenSeaMainnet, SourceOpenSeaPolygon:
		return 100
	case SourceQuixotic, SourceStratos:
		return 50
	}
	return 0
}

func (s Source) InputFile() string  { return string(s) + "-response.json" }
func (s Source) OutputFile() string { return string(s) + "-metadata.json" }

// Collection is one entry of a metadata snapshot, as consumed by the NFT gating
// step of the deal wizard.
type Collection struct {
	ID            int       `json:"id"`
	Address       string    `json:"address"`
	Name          string    `json:"name"`
	Slug          *string   `json:"slug"`
	ImageURL      *string   `json:"imageUrl"`
	IsVerified    bool      `json:"isVerified"`
	NumOwners     int64     `json:"numOwners"`
	TotalSupply   int64     `json:"totalSupply"`
	ContractType  string    `json:"contractType"`
	FloorPrice    *float64  `json:"floorPrice"`
	TotalVolume   *float64  `json:"totalVolume"`
	PaymentSymbol string    `json:"paymentSymbol,omitempty"`
	Network       chains.ID `json:"network"`
	UpdatedAt     int64     `json:"updatedAt"`
}

type ethPrice struct {
	ETH decimal.Decimal `json:"eth"`
}

type unitAmount struct {
	Unit decimal.Decimal `json:"unit"`
}

type openSeaStats struct {
	FloorPrice  *ethPrice   `json:"floorPrice"`
	NumOwners   int64       `json:"numOwners"`
	TotalSupply int64       `json:"totalSupply"`
	TotalVolume *unitAmount `json:"totalVolume"`
	Volume      *unitAmount `json:"volume"`
}

// openSeaNode covers both ranking shapes: mainnet reports statsV2.totalVolume,
// polygon reports windowCollectionStats.volume.
type openSeaNode struct {
	IsVerified            bool          `json:"isVerified"`
	Logo                  *string       `json:"logo"`
	Name                  string        `json:"name"`
	Slug                  string        `json:"slug"`
	StatsV2               *openSeaStats `json:"statsV2"`
	WindowCollectionStats *openSeaStats `json:"windowCollectionStats"`
}

func (n openSeaNode) stats() openSeaStats {
	if n.StatsV2 != nil {
		return *n.StatsV2
	}
	if n.WindowCollectionStats != nil {
		return *n.WindowCollectionStats
	}
	return openSeaStats{}
}

func (s openSeaStats) volume() *unitAmount {
	if s.TotalVolume != nil {
		return s.TotalVolume
	}
	return s.Volume
}

type openSeaRanking struct {
	Data struct {
		Rankings struct {
			Edges []struct {
				Node openSeaNode `json:"node"`
			} `json:"edges"`
		} `json:"rankings"`
	} `json:"data"`
}

type marketplaceItem struct {
	Name     string           `json:"name"`
	Slug     *string          `json:"slug"`
	ImageURL *string          `json:"image_url"`
	Owners   int64            `json:"owners"`
	Supply   int64            `json:"supply"`
	Verified bool             `json:"verified"`
	Volume   decimal.Decimal  `json:"volume"`
	Floor    *decimal.Decimal `json:"floor"`
	Address  string           `json:"address"`
}

type marketplaceRanking struct {
	Results []marketplaceItem `json:"results"`
}

func readSnapshot(dir string, src Source, v any) error {
	path := filepath.Join(dir, src.InputFile())
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s ranking: %w", src, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func readOpenSeaRanking(dir string, src Source) ([]openSeaNode, error) {
	var r openSeaRanking
	if err := readSnapshot(dir, src, &r); err != nil {
		return nil, err
	}
	edges := r.Data.Rankings.Edges
	if len(edges) > src.Limit() {
		edges = edges[:src.Limit()]
	}
	out := make([]openSeaNode, len(edges))
	for i, e := range edges {
		out[i] = e.Node
	}
	return out, nil
}

func readMarketplaceRanking(dir string, src Source) ([]marketplaceItem, error) {
	var r marketplaceRanking
	if err := readSnapshot(dir, src, &r); err != nil {
		return nil, err
	}
	items := r.Results
	if len(items) > src.Limit() {
		items = items[:src.Limit()]
	}
	return items, nil
}

var gwei = decimal.New(1, 9)

// weiToETH converts marketplace prices, which are reported scaled by 1e9.
func weiToETH(wei decimal.Decimal) float64 {
	return wei.Div(gwei).InexactFloat64()
}

func floatPtr(d decimal.Decimal) *float64 {
	f := d.InexactFloat64()
	return &f
}
