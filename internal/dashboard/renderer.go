package dashboard

type RendererKind string

const (
	RenderChart RendererKind = "chart"
	RenderStats RendererKind = "stats"
	RenderList  RendererKind = "list"
	RenderCore  RendererKind = "core"
)

// Renderer says how a widget is drawn and with which component
type Renderer struct {
	Kind      RendererKind `json:"kind"`
	Component string       `json:"component"`
}

var defaultComponents = map[string]string{
	"stats":            "StatsCardWidget",
	"chart":            "ChartWidget",
	"list":             "ListWidget",
	"activity-feed":    "ActivityFeedWidget",
	"orders-list":      "OrdersListWidgetV2",
	"other-files-list": "OtherFilesListWidgetV2",
	"table":            "TableWidget",
	"history-tree":     "HistoryTree",
	"available-soon":   "AvailableSoonWidget",
	"report-generator": "ReportGeneratorWidget",
}

const fallbackComponent = "UnsupportedWidget"

// Resolve picks the renderer for w from its type. An explicit component
// always wins over the per-type default.
func Resolve(w Widget) Renderer {
	var kind RendererKind
	switch w.Type {
	case "chart":
		kind = RenderChart
	case "stats":
		kind = RenderStats
	case "list", "activity-feed", "orders-list", "other-files-list":
		kind = RenderList
	default:
		kind = RenderCore
	}

	component := w.Component
	if component == "" {
		component = defaultComponents[w.Type]
	}
	if component == "" {
		component = fallbackComponent
	}
	return Renderer{Kind: kind, Component: component}
}
