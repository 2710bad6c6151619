package nftmetadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"aelin/internal/chains"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakePages struct {
	mu      sync.Mutex
	bySlug  map[string]string
	visited []string
}

func (f *fakePages) Text(_ context.Context, pageURL, selector string) (string, error) {
	if selector != "pre" {
		return "", fmt.Errorf("unexpected selector %q", selector)
	}
	f.mu.Lock()
	f.visited = append(f.visited, pageURL)
	f.mu.Unlock()
	for slug, body := range f.bySlug {
		if strings.Contains(pageURL, "/api/v1/collection/"+slug+"?format=json") {
			return body, nil
		}
	}
	return "", fmt.Errorf("no page for %s", pageURL)
}

type recordingSink struct {
	mu   sync.Mutex
	got  map[Source][]Collection
	fail error
}

func (s *recordingSink) Upsert(_ context.Context, src Source, items []Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	if s.got == nil {
		s.got = map[Source][]Collection{}
	}
	s.got[src] = items
	return nil
}

const openSeaMainnetRanking = `{"data":{"rankings":{"edges":[
  {"node":{"isVerified":true,"logo":"https://img/punks.png","name":"Punks","slug":"punks",
    "statsV2":{"floorPrice":{"eth":"65.5"},"numOwners":3500,"totalSupply":10000,"totalVolume":{"unit":"1000000.25"}}}},
  {"node":{"isVerified":false,"logo":null,"name":"Ghost","slug":"ghost",
    "statsV2":{"floorPrice":null,"numOwners":1,"totalSupply":1,"totalVolume":{"unit":"0"}}}}
]}}}`

const openSeaPolygonRanking = `{"data":{"rankings":{"edges":[
  {"node":{"isVerified":false,"logo":null,"name":"Poly","slug":"poly",
    "windowCollectionStats":{"floorPrice":{"eth":"0.01"},"numOwners":12,"totalSupply":20,"volume":{"unit":"3.5"}}}}
]}}}`

const quixoticRanking = `{"results":[
  {"name":"Opti","slug":"opti","image_url":"https://img/opti.png","owners":50,"supply":100,"verified":true,
   "volume":2500000000,"floor":1500000000,"address":"0x1111111111111111111111111111111111111111"},
  {"name":"NoFloor","slug":null,"image_url":"https://img/nf.png","owners":2,"supply":3,"verified":false,
   "volume":0,"floor":null,"address":"0x2222222222222222222222222222222222222222"}
]}`

const stratosRanking = `{"results":[
  {"name":"Arbi","slug":"arbi","image_url":"https://img/arbi.png","owners":7,"supply":8,"verified":false,
   "volume":1000000000,"floor":0,"address":"0x3333333333333333333333333333333333333333"}
]}`

func writeRankings(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[Source]string{
		SourceOpenSeaMainnet: openSeaMainnetRanking,
		SourceOpenSeaPolygon: openSeaPolygonRanking,
		SourceQuixotic:       quixoticRanking,
		SourceStratos:        stratosRanking,
	}
	for src, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, src.InputFile()), []byte(body), 0o644))
	}
	return dir
}

func marketplaceServer(t *testing.T, apiKey, contractType string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != apiKey || r.Header.Get("Accept") != "application/json" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if !strings.HasPrefix(r.URL.Path, "/api/v1/collection/0x") || !strings.HasSuffix(r.URL.Path, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"contract_type":%q}`, contractType)
	}))
}

func newTestCollector(t *testing.T, quixoticURL, stratosURL string, sink Sink) (*Collector, *fakePages, string) {
	t.Helper()
	pages := &fakePages{bySlug: map[string]string{
		"punks": `{"collection":{"primary_asset_contracts":[{"address":"0xb47e3cd837ddf8e4c57f05d70ab865de6e193bbb","schema_name":"CRYPTOPUNKS"}]}}`,
		"ghost": `{"collection":{"primary_asset_contracts":[]}}`,
		"poly":  `{"collection":{"primary_asset_contracts":[{"address":"0x4444444444444444444444444444444444444444","schema_name":"ERC1155"}]}}`,
	}}
	out := t.TempDir()
	c := NewCollector(Options{
		DataDir:          writeRankings(t),
		OutputDir:        out,
		Concurrency:      2,
		OpenSeaBaseURL:   "https://opensea.test",
		QuixoticBaseURL:  quixoticURL,
		StratosBaseURL:   stratosURL,
		QuixoticAPIToken: "q-key",
		StratosAPIToken:  "s-key",
	}, pages, sink, nil)
	c.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return c, pages, out
}

func readOutput(t *testing.T, dir string, src Source) []Collection {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(dir, src.OutputFile()))
	require.NoError(t, err)
	var items []Collection
	require.NoError(t, json.Unmarshal(raw, &items))
	return items
}

func ptr[T any](v T) *T { return &v }

func TestCollectorRun(t *testing.T) {
	quixotic := marketplaceServer(t, "q-key", "ERC-721")
	defer quixotic.Close()
	stratos := marketplaceServer(t, "s-key", "ERC-1155")
	defer stratos.Close()

	sink := &recordingSink{}
	c, pages, out := newTestCollector(t, quixotic.URL, stratos.URL, sink)

	counts, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[Source]int{
		SourceOpenSeaMainnet: 1,
		SourceOpenSeaPolygon: 1,
		SourceQuixotic:       2,
		SourceStratos:        1,
	}, counts)
	assert.Len(t, pages.visited, 3)

	mainnet := readOutput(t, out, SourceOpenSeaMainnet)
	assert.Equal(t, []Collection{{
		ID:           0,
		Address:      "0xb47e3cd837ddf8e4c57f05d70ab865de6e193bbb",
		Name:         "Punks",
		Slug:         ptr("punks"),
		ImageURL:     ptr("https://img/punks.png"),
		IsVerified:   true,
		NumOwners:    3500,
		TotalSupply:  10000,
		ContractType: "cryptopunks",
		FloorPrice:   ptr(65.5),
		TotalVolume:  ptr(1000000.25),
		Network:      chains.Mainnet,
		UpdatedAt:    1700000000000,
	}}, mainnet)

	polygon := readOutput(t, out, SourceOpenSeaPolygon)
	require.Len(t, polygon, 1)
	assert.Equal(t, chains.Polygon, polygon[0].Network)
	assert.Equal(t, "erc1155", polygon[0].ContractType)
	assert.Equal(t, ptr(3.5), polygon[0].TotalVolume)
	assert.Nil(t, polygon[0].ImageURL)

	quix := readOutput(t, out, SourceQuixotic)
	require.Len(t, quix, 2)
	assert.Equal(t, "erc721", quix[0].ContractType)
	assert.Equal(t, "ETH", quix[0].PaymentSymbol)
	assert.Equal(t, ptr(1.5), quix[0].FloorPrice)
	assert.Equal(t, ptr(2.5), quix[0].TotalVolume)
	assert.Equal(t, chains.Optimism, quix[0].Network)
	assert.Equal(t, 1, quix[1].ID)
	assert.Nil(t, quix[1].Slug)
	assert.Nil(t, quix[1].FloorPrice)
	assert.Equal(t, ptr(0.0), quix[1].TotalVolume)

	strat := readOutput(t, out, SourceStratos)
	require.Len(t, strat, 1)
	assert.Equal(t, "erc1155", strat[0].ContractType)
	assert.Nil(t, strat[0].FloorPrice, "zero floor is reported as no floor")
	assert.Equal(t, chains.Arbitrum, strat[0].Network)

	assert.Len(t, sink.got, 4)
	assert.Equal(t, quix, sink.got[SourceQuixotic])
}

func TestCollectorOutputIsIndented(t *testing.T) {
	quixotic := marketplaceServer(t, "q-key", "ERC-721")
	defer quixotic.Close()
	stratos := marketplaceServer(t, "s-key", "ERC-721")
	defer stratos.Close()

	c, _, out := newTestCollector(t, quixotic.URL, stratos.URL, nil)
	_, err := c.Run(context.Background())
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(out, SourceStratos.OutputFile()))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "[\n  {\n    \"id\": 0,"), string(raw))
}

func TestCollectorFailsWhenMarketplaceRejects(t *testing.T) {
	quixotic := marketplaceServer(t, "q-key", "ERC-721")
	defer quixotic.Close()
	stratos := marketplaceServer(t, "other-key", "ERC-721")
	defer stratos.Close()

	c, _, _ := newTestCollector(t, quixotic.URL, stratos.URL, nil)
	_, err := c.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stratos")
	assert.Contains(t, err.Error(), "status 401")
}

func TestCollectorFailsWhenSinkFails(t *testing.T) {
	quixotic := marketplaceServer(t, "q-key", "ERC-721")
	defer quixotic.Close()
	stratos := marketplaceServer(t, "s-key", "ERC-721")
	defer stratos.Close()

	c, _, _ := newTestCollector(t, quixotic.URL, stratos.URL, &recordingSink{fail: fmt.Errorf("db down")})
	_, err := c.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestCollectorMissingRanking(t *testing.T) {
	c := NewCollector(Options{DataDir: t.TempDir(), OutputDir: t.TempDir()}, &fakePages{}, nil, nil)
	_, err := c.collect(context.Background(), SourceQuixotic)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read quixotic ranking")
}

func TestRankingLimits(t *testing.T) {
	dir := t.TempDir()
	var items []string
	for i := 0; i < 60; i++ {
		items = append(items, fmt.Sprintf(`{"name":"c%d","address":"0x%040d","volume":0}`, i, i))
	}
	body := `{"results":[` + strings.Join(items, ",") + `]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, SourceStratos.InputFile()), []byte(body), 0o644))

	got, err := readMarketplaceRanking(dir, SourceStratos)
	require.NoError(t, err)
	assert.Len(t, got, 50)
	assert.Equal(t, "c49", got[49].Name)
}

func TestSourceFiles(t *testing.T) {
	tests := []struct {
		src     Source
		input   string
		output  string
		network chains.ID
		limit   int
	}{
		{SourceOpenSeaMainnet, "open-sea-mainnet-response.json", "open-sea-mainnet-metadata.json", chains.Mainnet, 100},
		{SourceOpenSeaPolygon, "open-sea-polygon-response.json", "open-sea-polygon-metadata.json", chains.Polygon, 100},
		{SourceQuixotic, "quixotic-response.json", "quixotic-metadata.json", chains.Optimism, 50},
		{SourceStratos, "stratos-response.json", "stratos-metadata.json", chains.Arbitrum, 50},
	}
	for _, tt := range tests {
		t.Run(string(tt.src), func(t *testing.T) {
			assert.Equal(t, tt.input, tt.src.InputFile())
			assert.Equal(t, tt.output, tt.src.OutputFile())
			assert.Equal(t, tt.network, tt.src.Network())
			assert.Equal(t, tt.limit, tt.src.Limit())
		})
	}
}
