package nftmetadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultQuixoticBaseURL = "https://api.quixotic.io"
	DefaultStratosBaseURL  = "https://api.stratosnft.io"
)

// MarketplaceClient talks to the Quixotic-style collection API shared by
// Quixotic (optimism) and Stratos (arbitrum).
type MarketplaceClient struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewMarketplaceClient(baseURL, apiKey string) *MarketplaceClient {
	return &MarketplaceClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

type collectionDetail struct {
	ContractType string `json:"contract_type"`
}

// ContractType returns the collection's token standard normalized to the wizard's
// spelling: "ERC-721" becomes "erc721".
func (c *MarketplaceClient) ContractType(ctx context.Context, address string) (string, error) {
	endpoint := fmt.Sprintf("%s/api/v1/collection/%s/", c.BaseURL, url.PathEscape(address))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-KEY", c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("get collection %s: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("get collection %s: status %d: %s", address, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var d collectionDetail
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		return "", fmt.Errorf("decode collection %s: %w", address, err)
	}
	return strings.Replace(strings.ToLower(d.ContractType), "-", "", 1), nil
}

func marketplaceCollection(index int, item marketplaceItem, contractType string, src Source, now int64) Collection {
	c := Collection{
		ID:            index,
		Address:       item.Address,
		Name:          item.Name,
		Slug:          item.Slug,
		ImageURL:      item.ImageURL,
		IsVerified:    item.Verified,
		NumOwners:     item.Owners,
		TotalSupply:   item.Supply,
		ContractType:  contractType,
		PaymentSymbol: "ETH",
		Network:       src.Network(),
		UpdatedAt:     now,
	}
	volume := weiToETH(item.Volume)
	c.TotalVolume = &volume
	// A zero floor means the collection has no listings.
	if item.Floor != nil && !item.Floor.IsZero() {
		floor := weiToETH(*item.Floor)
		c.FloorPrice = &floor
	}
	return c
}
