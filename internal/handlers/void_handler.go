package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"pallet-backend/internal/middleware"
	"pallet-backend/internal/models"
	"pallet-backend/internal/services"
	"pallet-backend/pkg/utils"
)

type PalletVoider interface {
	VoidPallet(ctx context.Context, email string, req models.VoidRequest) (*models.VoidResult, error)
	ProcessDamage(ctx context.Context, email string, req models.DamageRequest) (*models.VoidResult, error)
}

type BatchVoider interface {
	Run(ctx context.Context, email string, req models.BatchVoidRequest) (*models.BatchVoidResponse, error)
}

type VoidHandler struct {
	Service PalletVoider
	Batch   BatchVoider
}

func NewVoidHandler(s PalletVoider, batch BatchVoider) *VoidHandler {
	return &VoidHandler{Service: s, Batch: batch}
}

// voidStatus maps a void workflow error to an HTTP status
func voidStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidReason),
		errors.Is(err, services.ErrPasswordRequired),
		errors.Is(err, services.ErrInvalidDamageQty),
		errors.Is(err, services.ErrACOPartialDamage),
		errors.Is(err, services.ErrBatchEmpty),
		errors.Is(err, services.ErrSearchValueEmpty):
		return http.StatusBadRequest
	case services.IsPasswordError(err):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrPalletNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrPalletVoided), errors.Is(err, services.ErrPalletDamaged):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func sessionEmail(r *http.Request) string {
	email, _ := middleware.GetEmailFromContext(r.Context())
	return email
}

// VoidPallet voids one pallet. Damage with a quantity is routed through
// the damage flow by the service.
func (h *VoidHandler) VoidPallet(w http.ResponseWriter, r *http.Request) {
	var req models.VoidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.Service.VoidPallet(r.Context(), sessionEmail(r), req)
	if err != nil {
		utils.Error(w, voidStatus(err), err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, result)
}

func (h *VoidHandler) ProcessDamage(w http.ResponseWriter, r *http.Request) {
	var req models.DamageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.Service.ProcessDamage(r.Context(), sessionEmail(r), req)
	if err != nil {
		utils.Error(w, voidStatus(err), err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, result)
}

// BatchVoid scans and voids a list of pallets sequentially
func (h *VoidHandler) BatchVoid(w http.ResponseWriter, r *http.Request) {
	var req models.BatchVoidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.Batch.Run(r.Context(), sessionEmail(r), req)
	if err != nil {
		utils.Error(w, voidStatus(err), err.Error())
		return
	}
	utils.Success(w, resp)
}

func (h *VoidHandler) ListReasons(w http.ResponseWriter, r *http.Request) {
	utils.Success(w, models.VoidReasons)
}
