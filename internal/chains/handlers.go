package chains

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"aelin/internal/api"
)

// ListNetworks serves the registry so the frontend and server agree on production flags.
func ListNetworks(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, r, http.StatusOK, map[string]any{"items": All()})
}

// GetNetwork serves one registered network. Unlike Get it does not invent an entry
// for unknown ids, so a wallet on an unsupported chain gets a 404.
func GetNetwork(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(chi.URLParam(r, "chainId"))
	if err != nil {
		api.WriteError(w, r, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}
	n, ok := Lookup(id)
	if !ok {
		api.WriteError(w, r, http.StatusNotFound, "NOT_FOUND", "unsupported network")
		return
	}
	api.WriteJSON(w, r, http.StatusOK, n)
}
