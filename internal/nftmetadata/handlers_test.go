package nftmetadata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aelin/internal/chains"
)

type failingStore struct{}

func (failingStore) ListByNetwork(context.Context, chains.ID) ([]Collection, error) {
	return nil, errors.New("boom")
}

func writeSnapshot(t *testing.T, dir string, src Source, items []Collection) {
	t.Helper()
	raw, err := json.Marshal(items)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, src.OutputFile()), raw, 0o644))
}

func TestFileStoreListByNetwork(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, SourceOpenSeaMainnet, []Collection{
		{ID: 1, Address: "0xb", Name: "B", Network: chains.Mainnet},
		{ID: 0, Address: "0xa", Name: "A", Network: chains.Mainnet},
	})
	writeSnapshot(t, dir, SourceQuixotic, []Collection{
		{ID: 0, Address: "0xq", Name: "Q", Network: chains.Optimism, PaymentSymbol: "ETH"},
	})
	store := FileStore{Dir: dir}

	got, err := store.ListByNetwork(context.Background(), chains.Mainnet)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "0xa", got[0].Address)
	assert.Equal(t, "0xb", got[1].Address)

	got, err = store.ListByNetwork(context.Background(), chains.Arbitrum)
	require.NoError(t, err)
	assert.Empty(t, got, "missing snapshot is not an error")

	require.NoError(t, os.WriteFile(filepath.Join(dir, SourceOpenSeaPolygon.OutputFile()), []byte("{"), 0o644))
	_, err = store.ListByNetwork(context.Background(), chains.Polygon)
	require.Error(t, err)
}

func TestHandlersList(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, SourceQuixotic, []Collection{
		{ID: 0, Address: "0xq", Name: "Q", ContractType: "erc721", Network: chains.Optimism, PaymentSymbol: "ETH"},
	})
	h := Handlers{Store: FileStore{Dir: dir}}

	tests := []struct {
		name   string
		query  string
		store  Store
		status int
		items  int
	}{
		{name: "optimism", query: "?network=10", status: http.StatusOK, items: 1},
		{name: "empty network", query: "?network=1", status: http.StatusOK, items: 0},
		{name: "missing network", query: "", status: http.StatusBadRequest},
		{name: "bad network", query: "?network=abc", status: http.StatusBadRequest},
		{name: "store failure", query: "?network=10", store: failingStore{}, status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hh := h
			if tt.store != nil {
				hh.Store = tt.store
			}
			rr := httptest.NewRecorder()
			hh.List(rr, httptest.NewRequest(http.MethodGet, "/v1/nft-collections"+tt.query, nil))
			require.Equal(t, tt.status, rr.Code, rr.Body.String())
			if tt.status != http.StatusOK {
				assert.Contains(t, rr.Body.String(), `"error"`)
				return
			}
			var body struct {
				Items []Collection `json:"items"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.NotNil(t, body.Items)
			assert.Len(t, body.Items, tt.items)
		})
	}
}

type fixedStore []Collection

func (s fixedStore) ListByNetwork(context.Context, chains.ID) ([]Collection, error) {
	return s, nil
}

func TestFallbackStore(t *testing.T) {
	primary := fixedStore{{Address: "0xdb"}}
	secondary := fixedStore{{Address: "0xfile"}}

	got, err := FallbackStore{Primary: primary, Secondary: secondary}.ListByNetwork(context.Background(), chains.Mainnet)
	require.NoError(t, err)
	assert.Equal(t, "0xdb", got[0].Address)

	got, err = FallbackStore{Primary: fixedStore{}, Secondary: secondary}.ListByNetwork(context.Background(), chains.Mainnet)
	require.NoError(t, err)
	assert.Equal(t, "0xfile", got[0].Address)

	_, err = FallbackStore{Primary: failingStore{}, Secondary: secondary}.ListByNetwork(context.Background(), chains.Mainnet)
	require.Error(t, err)
}
