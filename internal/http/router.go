package http

import (
	"net/http"

	"pallet-backend/internal/handlers"
	"pallet-backend/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Pallet    *handlers.PalletHandler
	Void      *handlers.VoidHandler
	Reprint   *handlers.ReprintHandler
	Printer   *handlers.PrinterHandler
	Report    *handlers.ReportHandler
	Dashboard *handlers.DashboardHandler
	Health    *handlers.HealthHandler
}

func NewRouter(h Handlers, authMiddleware *middleware.AuthMiddleware) *mux.Router {
	r := mux.NewRouter()

	// Health and metrics (no auth)
	r.HandleFunc("/health", h.Health.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", h.Health.ReadinessHealth).Methods("GET")
	r.HandleFunc("/health/detailed", h.Health.DetailedHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Public API routes - Authentication
	r.HandleFunc("/auth/login", h.Auth.Login).Methods("POST")

	// Pallet lookup
	palletAPI := r.PathPrefix("/api/pallets").Subrouter()
	palletAPI.Use(authMiddleware.Authenticate)
	palletAPI.HandleFunc("/search", h.Pallet.SearchPallet).Methods("GET", "POST")
	palletAPI.HandleFunc("/detect", h.Pallet.DetectType).Methods("GET")
	palletAPI.HandleFunc("/history", h.Pallet.GetHistory).Methods("GET", "POST")
	palletAPI.HandleFunc("/my-history", h.Pallet.GetUserHistory).Methods("GET")

	// Void and damage
	voidAPI := r.PathPrefix("/api/void-pallet").Subrouter()
	voidAPI.Use(authMiddleware.Authenticate)
	voidAPI.HandleFunc("", h.Void.VoidPallet).Methods("POST")
	voidAPI.HandleFunc("/damage", h.Void.ProcessDamage).Methods("POST")
	voidAPI.HandleFunc("/batch", h.Void.BatchVoid).Methods("POST")
	voidAPI.HandleFunc("/reasons", h.Void.ListReasons).Methods("GET")

	// Reprint
	reprintAPI := r.PathPrefix("/api").Subrouter()
	reprintAPI.Use(authMiddleware.Authenticate)
	reprintAPI.HandleFunc("/auto-reprint-label", h.Reprint.AutoReprint).Methods("POST")
	reprintAPI.HandleFunc("/auto-reprint-label-v2", h.Reprint.AutoReprint).Methods("POST")
	reprintAPI.HandleFunc("/auto-reprint-label/{plt_num}/pdf", h.Reprint.LabelPDF).Methods("GET")
	reprintAPI.HandleFunc("/auto-reprint-label/{plt_num}/print", h.Printer.PrintLabel).Methods("POST")

	// Reports
	reportsAPI := r.PathPrefix("/api/reports").Subrouter()
	reportsAPI.Use(authMiddleware.Authenticate)
	reportsAPI.HandleFunc("/void-pallet", h.Report.VoidReport).Methods("GET")

	transferAPI := r.PathPrefix("/api/v1/warehouse-transfers").Subrouter()
	transferAPI.Use(authMiddleware.Authenticate)
	transferAPI.HandleFunc("/list", h.Report.ListTransfers).Methods("GET")

	// Dashboard
	dashboardAPI := r.PathPrefix("/api/dashboard").Subrouter()
	dashboardAPI.Use(authMiddleware.Authenticate)
	dashboardAPI.HandleFunc("/themes", h.Dashboard.ListThemes).Methods("GET")
	dashboardAPI.HandleFunc("/layouts/{theme}", h.Dashboard.GetLayout).Methods("GET")
	dashboardAPI.HandleFunc("/widgets/{theme}/{grid_area}/data", h.Dashboard.GetWidgetData).Methods("GET")
	dashboardAPI.HandleFunc("/refresh", h.Dashboard.Refresh).Methods("GET")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not found", http.StatusNotFound)
	})

	return r
}
