package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"pallet-backend/internal/models"
	"pallet-backend/internal/services"
	"pallet-backend/pkg/utils"
)

type PalletSearcher interface {
	Search(ctx context.Context, req models.SearchRequest) (*models.SearchResult, error)
}

type PalletHistoryReader interface {
	GetPalletHistoryAndStockInfo(ctx context.Context, req models.SearchRequest) (*models.PalletHistoryResult, error)
	GetUserHistory(ctx context.Context, email string, limit int) ([]*models.HistoryEvent, error)
}

type PalletHandler struct {
	Search  PalletSearcher
	History PalletHistoryReader
}

func NewPalletHandler(search PalletSearcher, history PalletHistoryReader) *PalletHandler {
	return &PalletHandler{Search: search, History: history}
}

// searchRequest reads the identifier from the JSON body on POST, or from
// ?value=&type= on GET.
func searchRequest(r *http.Request) (models.SearchRequest, error) {
	var req models.SearchRequest
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, err
		}
		return req, nil
	}
	q := r.URL.Query()
	req.SearchValue = q.Get("value")
	req.SearchType = models.SearchType(q.Get("type"))
	return req, nil
}

// SearchPallet returns {success, data|error}. Not found is a 200 with
// success=false.
func (h *PalletHandler) SearchPallet(w http.ResponseWriter, r *http.Request) {
	req, err := searchRequest(r)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.Search.Search(r.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrSearchValueEmpty) {
			utils.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.Error(w, http.StatusInternalServerError, "Search failed")
		return
	}
	utils.JSON(w, http.StatusOK, res)
}

// DetectType classifies ?value= without touching the database
func (h *PalletHandler) DetectType(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, services.DetectSearchType(r.URL.Query().Get("value")))
}

func (h *PalletHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	req, err := searchRequest(r)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.History.GetPalletHistoryAndStockInfo(r.Context(), req)
	switch {
	case err == nil:
		utils.Success(w, res)
	case errors.Is(err, services.ErrSearchValueEmpty):
		utils.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrPalletNotFound):
		utils.Error(w, http.StatusNotFound, err.Error())
	default:
		utils.Error(w, http.StatusInternalServerError, "Failed to load pallet history")
	}
}

// GetUserHistory lists the signed-in operator's own history
func (h *PalletHandler) GetUserHistory(w http.ResponseWriter, r *http.Request) {
	email := sessionEmail(r)

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			utils.Error(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	events, err := h.History.GetUserHistory(r.Context(), email, limit)
	if err != nil {
		if errors.Is(err, services.ErrOperatorNotFound) || errors.Is(err, services.ErrInvalidSession) {
			utils.Error(w, http.StatusUnauthorized, err.Error())
			return
		}
		utils.Error(w, http.StatusInternalServerError, "Failed to load history")
		return
	}
	if events == nil {
		events = []*models.HistoryEvent{}
	}
	utils.Success(w, events)
}
