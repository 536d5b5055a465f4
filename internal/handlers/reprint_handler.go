package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"pallet-backend/internal/middleware"
	"pallet-backend/internal/models"
	"pallet-backend/internal/services"
	"pallet-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type LabelReprinter interface {
	Reprint(ctx context.Context, req models.ReprintRequest) (*models.ReprintResult, error)
	LabelPDF(ctx context.Context, pltNum string) ([]byte, error)
}

type ReprintHandler struct {
	Service LabelReprinter
}

func NewReprintHandler(s LabelReprinter) *ReprintHandler {
	return &ReprintHandler{Service: s}
}

func reprintError(w http.ResponseWriter, status int, msg string) {
	utils.JSON(w, status, models.ReprintResponse{Success: false, Error: msg})
}

// AutoReprint creates the replacement pallet and its label
func (h *ReprintHandler) AutoReprint(w http.ResponseWriter, r *http.Request) {
	var req models.ReprintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		reprintError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.OperatorClockNum == "" {
		if clock := middleware.GetClockNumberFromContext(r.Context()); clock > 0 {
			req.OperatorClockNum = strconv.Itoa(clock)
		}
	}

	result, err := h.Service.Reprint(r.Context(), req)
	switch {
	case err == nil:
		utils.JSON(w, http.StatusOK, models.ReprintResponse{Success: true, Data: result})
	case errors.Is(err, services.ErrMissingReprintData):
		reprintError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrProductNotFound):
		reprintError(w, http.StatusNotFound, err.Error())
	default:
		log.Printf("[Reprint] %s: %v", req.OriginalPltNum, err)
		reprintError(w, http.StatusInternalServerError, err.Error())
	}
}

// LabelPDF streams the label of {plt_num}. Slashes in pallet numbers
// arrive URL-encoded or as underscores.
func (h *ReprintHandler) LabelPDF(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["plt_num"]
	pltNum, err := url.PathUnescape(raw)
	if err != nil {
		reprintError(w, http.StatusBadRequest, "Invalid pallet number")
		return
	}
	pltNum = services.PalletNumFromFileName(pltNum)

	pdf, err := h.Service.LabelPDF(r.Context(), pltNum)
	switch {
	case err == nil:
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `inline; filename="`+services.LabelFileName(pltNum)+`"`)
		w.Write(pdf)
	case errors.Is(err, services.ErrPalletNotFound):
		reprintError(w, http.StatusNotFound, err.Error())
	default:
		log.Printf("[Reprint] Label for %s: %v", pltNum, err)
		reprintError(w, http.StatusInternalServerError, "Failed to load label")
	}
}
