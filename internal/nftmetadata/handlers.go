package nftmetadata

import (
	"net/http"

	"go.uber.org/zap"

	"aelin/internal/api"
	"aelin/internal/chains"
)

type Handlers struct {
	Store Store
}

// List returns the known collections for ?network=<chain id>.
func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	network, err := chains.ParseID(r.URL.Query().Get("network"))
	if err != nil {
		api.WriteError(w, r, http.StatusBadRequest, "VALIDATION_FAILED", "missing or invalid network")
		return
	}

	items, err := h.Store.ListByNetwork(r.Context(), network)
	if err != nil {
		zap.L().Error("list nft collections", zap.Stringer("network", network), zap.Error(err))
		api.WriteError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if items == nil {
		items = []Collection{}
	}
	api.WriteJSON(w, r, http.StatusOK, map[string]any{"items": items})
}
