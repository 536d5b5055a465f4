package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"pallet-backend/internal/models"
	"pallet-backend/internal/services"
	"pallet-backend/internal/timeutil"
	"pallet-backend/pkg/utils"
)

type VoidReportGenerator interface {
	Generate(ctx context.Context, f models.VoidReportFilter) (*models.VoidReport, error)
}

type TransferLister interface {
	List(ctx context.Context, f models.TransferFilter) (*models.TransferPage, error)
}

type ReportHandler struct {
	Voids     VoidReportGenerator
	Transfers TransferLister
}

func NewReportHandler(voids VoidReportGenerator, transfers TransferLister) *ReportHandler {
	return &ReportHandler{Voids: voids, Transfers: transfers}
}

// VoidReport returns the void report as json (default), pdf or xlsx
func (h *ReportHandler) VoidReport(w http.ResponseWriter, r *http.Request) {
	filter, err := services.ParseVoidReportFilter(r.URL.Query())
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.Voids.Generate(r.Context(), filter)
	if err != nil {
		log.Printf("[Reports] Void report failed: %v", err)
		utils.Error(w, http.StatusInternalServerError, "Failed to generate void report")
		return
	}

	stamp := timeutil.PalletDatePrefix(report.GeneratedAt)

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		utils.Success(w, report)
	case "pdf":
		data, err := services.RenderVoidReportPDF(report)
		if err != nil {
			log.Printf("[Reports] Void report PDF failed: %v", err)
			utils.Error(w, http.StatusInternalServerError, "Failed to render PDF")
			return
		}
		utils.Binary(w, "application/pdf", "void_report_"+stamp+".pdf", data)
	case "xlsx", "excel":
		data, err := services.RenderVoidReportXLSX(report)
		if err != nil {
			log.Printf("[Reports] Void report Excel failed: %v", err)
			utils.Error(w, http.StatusInternalServerError, "Failed to render Excel")
			return
		}
		utils.Binary(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "void_report_"+stamp+".xlsx", data)
	default:
		utils.Error(w, http.StatusBadRequest, "Unsupported format: "+format)
	}
}

// ListTransfers pages through warehouse transfers, newest first
func (h *ReportHandler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	filter, err := services.ParseTransferFilter(r.URL.Query())
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.Transfers.List(r.Context(), filter)
	if err != nil {
		if errors.Is(err, services.ErrInvalidFilter) {
			utils.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("[Transfers] List failed: %v", err)
		utils.Error(w, http.StatusInternalServerError, "Failed to load transfers")
		return
	}
	utils.JSON(w, http.StatusOK, page)
}
