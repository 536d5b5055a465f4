package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"pallet-backend/internal/dashboard"
	"pallet-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type WidgetFetcher interface {
	Fetch(ctx context.Context, q dashboard.Query) (*dashboard.Result, error)
}

type DashboardHandler struct {
	Fetcher WidgetFetcher
	Hub     *dashboard.Hub
}

func NewDashboardHandler(fetcher WidgetFetcher, hub *dashboard.Hub) *DashboardHandler {
	return &DashboardHandler{Fetcher: fetcher, Hub: hub}
}

type layoutWidget struct {
	dashboard.Widget
	Renderer dashboard.Renderer `json:"renderer"`
}

// GetLayout returns the widgets of {theme}, each with its renderer
func (h *DashboardHandler) GetLayout(w http.ResponseWriter, r *http.Request) {
	layout := dashboard.LayoutFor(mux.Vars(r)["theme"])

	widgets := make([]layoutWidget, 0, len(layout.Widgets))
	for _, wd := range layout.Widgets {
		widgets = append(widgets, layoutWidget{Widget: wd, Renderer: dashboard.Resolve(wd)})
	}

	utils.Success(w, map[string]interface{}{
		"theme":   layout.Theme,
		"wrapper": layout.Wrapper,
		"widgets": widgets,
	})
}

func (h *DashboardHandler) ListThemes(w http.ResponseWriter, r *http.Request) {
	utils.Success(w, dashboard.Themes)
}

// GetWidgetData resolves one widget's data through the fetch chain
func (h *DashboardHandler) GetWidgetData(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	theme := dashboard.LayoutFor(vars["theme"]).Theme

	widget, ok := dashboard.FindWidget(theme, vars["grid_area"])
	if !ok {
		utils.Error(w, http.StatusNotFound, "Widget not found")
		return
	}

	timeRange := r.URL.Query().Get("timeRange")
	if timeRange == "" {
		timeRange = dashboard.DefaultTimeRange
	}

	res, err := h.Fetcher.Fetch(r.Context(), dashboard.Query{Theme: theme, Widget: widget, TimeRange: timeRange})
	switch {
	case err == nil:
		utils.JSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    res.Data,
			"source":  res.Source,
		})
	case errors.Is(err, dashboard.ErrUnsupported):
		utils.Error(w, http.StatusNotFound, "No data source for this widget")
	default:
		log.Printf("[Dashboard] %s/%s: %v", theme, widget.GridArea, err)
		utils.Error(w, http.StatusInternalServerError, "Failed to load widget data")
	}
}

// Refresh upgrades to the refresh websocket
func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.Hub.ServeWS(w, r)
}
