package deal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"aelin/internal/api"
	"aelin/internal/chains"
	"aelin/internal/metrics"
	"aelin/pkg/db"
)

const maxDraftBytes = 1 << 20

type Handlers struct {
	Store Store
}

type ValidateResponse struct {
	Valid  bool   `json:"valid"`
	Errors Result `json:"errors"`
}

type InvalidResponse struct {
	Error  api.APIError `json:"error"`
	Errors Result       `json:"errors"`
}

// Validate runs the wizard rules without saving anything.
func (h Handlers) Validate(w http.ResponseWriter, r *http.Request) {
	d, chainID, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	res, ok := validate(w, r, d, chainID)
	if !ok {
		return
	}
	api.WriteJSON(w, r, http.StatusOK, ValidateResponse{Valid: res.Valid(), Errors: res})
}

// Create saves a draft for the authenticated sponsor. Invalid drafts are rejected with 422.
func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	sponsor := api.SponsorFromContext(r.Context())
	if sponsor == "" {
		api.WriteError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing wallet identity")
		return
	}

	d, chainID, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	res, ok := validate(w, r, d, chainID)
	if !ok {
		return
	}
	if !res.Valid() {
		api.WriteJSON(w, r, http.StatusUnprocessableEntity, InvalidResponse{
			Error:  api.APIError{Code: "DEAL_INVALID", Message: "deal draft has invalid fields"},
			Errors: res,
		})
		return
	}

	rec := &Record{
		Sponsor: sponsor,
		ChainID: chainID,
		Name:    d.DealAttributes.Name,
		Symbol:  d.DealAttributes.Symbol,
		Draft:   d,
	}
	if err := h.Store.Create(r.Context(), rec); err != nil {
		zap.L().Error("save deal draft", zap.String("sponsor", sponsor), zap.Error(err))
		api.WriteError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	metrics.DraftSaved()
	zap.L().Info("deal draft saved",
		zap.String("id", rec.ID),
		zap.String("sponsor", sponsor),
		zap.Stringer("chain_id", chainID),
	)

	api.WriteJSON(w, r, http.StatusCreated, rec)
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	sponsor := api.SponsorFromContext(r.Context())
	if sponsor == "" {
		api.WriteError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing wallet identity")
		return
	}

	items, err := h.Store.ListBySponsor(r.Context(), sponsor)
	if err != nil {
		zap.L().Error("list deal drafts", zap.String("sponsor", sponsor), zap.Error(err))
		api.WriteError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if items == nil {
		items = []Record{}
	}
	api.WriteJSON(w, r, http.StatusOK, map[string]any{"items": items})
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	sponsor := api.SponsorFromContext(r.Context())
	if sponsor == "" {
		api.WriteError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing wallet identity")
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		api.WriteError(w, r, http.StatusNotFound, "NOT_FOUND", "deal draft not found")
		return
	}

	rec, err := h.Store.GetByID(r.Context(), sponsor, id)
	if errors.Is(err, db.ErrNotFound) {
		api.WriteError(w, r, http.StatusNotFound, "NOT_FOUND", "deal draft not found")
		return
	}
	if err != nil {
		zap.L().Error("get deal draft", zap.String("id", id), zap.Error(err))
		api.WriteError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	api.WriteJSON(w, r, http.StatusOK, rec)
}

func (h Handlers) History(w http.ResponseWriter, r *http.Request) {
	sponsor := api.SponsorFromContext(r.Context())
	if sponsor == "" {
		api.WriteError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing wallet identity")
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		api.WriteError(w, r, http.StatusNotFound, "NOT_FOUND", "deal draft not found")
		return
	}

	entries, err := h.Store.History(r.Context(), sponsor, id)
	if errors.Is(err, db.ErrNotFound) {
		api.WriteError(w, r, http.StatusNotFound, "NOT_FOUND", "deal draft not found")
		return
	}
	if err != nil {
		zap.L().Error("deal draft history", zap.String("id", id), zap.Error(err))
		api.WriteError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	api.WriteJSON(w, r, http.StatusOK, map[string]any{"items": entries})
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (Draft, chains.ID, bool) {
	chainID, err := chains.ParseID(r.URL.Query().Get("chainId"))
	if err != nil {
		api.WriteError(w, r, http.StatusBadRequest, "VALIDATION_FAILED", "missing or invalid chainId")
		return Draft{}, 0, false
	}

	var d Draft
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDraftBytes)).Decode(&d); err != nil {
		api.WriteError(w, r, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return Draft{}, 0, false
	}
	if field := badDecimals(d); field != "" {
		api.WriteError(w, r, http.StatusBadRequest, "VALIDATION_FAILED", fmt.Sprintf("%s.decimals must be between 0 and %d", field, MaxTokenDecimals))
		return Draft{}, 0, false
	}
	return d, chainID, true
}

// badDecimals names the first token whose decimals an ERC-20 could not report.
func badDecimals(d Draft) string {
	for _, f := range []struct {
		name  string
		token *Token
	}{{"investmentToken", d.InvestmentToken}, {"dealToken", d.DealToken}} {
		if f.token != nil && (f.token.Decimals < 0 || f.token.Decimals > MaxTokenDecimals) {
			return f.name
		}
	}
	return ""
}

func validate(w http.ResponseWriter, r *http.Request, d Draft, chainID chains.ID) (Result, bool) {
	res, err := Validate(d, chainID)
	if err != nil {
		var nfe *NumberFormatError
		if errors.As(err, &nfe) {
			api.WriteError(w, r, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
			return Result{}, false
		}
		api.WriteError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error")
		return Result{}, false
	}

	failed := res.Failed()
	steps := make([]string, len(failed))
	for i, s := range failed {
		steps[i] = string(s)
	}
	metrics.ObserveValidation(len(failed) == 0, steps)
	return res, true
}
