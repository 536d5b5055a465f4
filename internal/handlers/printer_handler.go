package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"

	"pallet-backend/internal/services"

	"github.com/gorilla/mux"
)

type LabelPrinting interface {
	PrintLabel(ctx context.Context, pltNum string, copies int) error
}

type PrinterHandler struct {
	Service LabelPrinting
}

func NewPrinterHandler(s LabelPrinting) *PrinterHandler {
	return &PrinterHandler{Service: s}
}

type PrintRequest struct {
	Copies int `json:"copies"`
}

// PrintLabel sends the label of {plt_num} to the label printer
func (h *PrinterHandler) PrintLabel(w http.ResponseWriter, r *http.Request) {
	pltNum, err := url.PathUnescape(mux.Vars(r)["plt_num"])
	if err != nil {
		http.Error(w, "Invalid pallet number", http.StatusBadRequest)
		return
	}
	pltNum = services.PalletNumFromFileName(pltNum)

	var req PrintRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
	}
	if req.Copies < 1 {
		req.Copies = 1
	}

	err = h.Service.PrintLabel(r.Context(), pltNum, req.Copies)
	status := http.StatusOK
	switch {
	case err == nil:
	case errors.Is(err, services.ErrPalletNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrPrinterDisabled):
		status = http.StatusServiceUnavailable
	default:
		log.Printf("[Printer] %s: %v", pltNum, err)
		status = http.StatusBadGateway
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err != nil {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "Printed successfully",
	})
}
