package nftmetadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

const DefaultOpenSeaBaseURL = "https://api.opensea.io"

// PageFetcher loads a URL in a browser page and returns the text content of the
// first element matching selector.
type PageFetcher interface {
	Text(ctx context.Context, pageURL, selector string) (string, error)
}

type openSeaContract struct {
	Address    string `json:"address"`
	SchemaName string `json:"schema_name"`
}

type openSeaCollectionPage struct {
	Collection struct {
		PrimaryAssetContracts []openSeaContract `json:"primary_asset_contracts"`
	} `json:"collection"`
}

// openSeaContractFor reads the primary asset contract of a collection. The
// endpoint is only reachable through a browser, so the JSON is read back out of
// the rendered <pre> element. A collection without contracts yields an empty
// address and is dropped by the caller.
func openSeaContractFor(ctx context.Context, pages PageFetcher, baseURL, slug string) (openSeaContract, error) {
	pageURL := fmt.Sprintf("%s/api/v1/collection/%s?format=json", strings.TrimRight(baseURL, "/"), url.PathEscape(slug))
	text, err := pages.Text(ctx, pageURL, "pre")
	if err != nil {
		return openSeaContract{}, fmt.Errorf("load opensea collection %s: %w", slug, err)
	}

	var p openSeaCollectionPage
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return openSeaContract{}, fmt.Errorf("parse opensea collection %s: %w", slug, err)
	}
	if len(p.Collection.PrimaryAssetContracts) == 0 {
		return openSeaContract{}, nil
	}
	c := p.Collection.PrimaryAssetContracts[0]
	c.SchemaName = strings.ToLower(c.SchemaName)
	return c, nil
}

func openSeaCollection(index int, node openSeaNode, contract openSeaContract, src Source, now int64) Collection {
	stats := node.stats()
	slug := node.Slug
	c := Collection{
		ID:           index,
		Address:      contract.Address,
		Name:         node.Name,
		Slug:         &slug,
		ImageURL:     node.Logo,
		IsVerified:   node.IsVerified,
		NumOwners:    stats.NumOwners,
		TotalSupply:  stats.TotalSupply,
		ContractType: contract.SchemaName,
		Network:      src.Network(),
		UpdatedAt:    now,
	}
	if stats.FloorPrice != nil {
		c.FloorPrice = floatPtr(stats.FloorPrice.ETH)
	}
	if v := stats.volume(); v != nil {
		c.TotalVolume = floatPtr(v.Unit)
	}
	return c
}
