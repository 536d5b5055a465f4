package dashboard

// Widget is one tile of a dashboard theme.
type Widget struct {
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	GridArea    string   `json:"grid_area"`
	DataSource  string   `json:"data_source,omitempty"`
	ChartType   string   `json:"chart_type,omitempty"`
	Metrics     []string `json:"metrics,omitempty"`
	Component   string   `json:"component,omitempty"`
	ReportType  string   `json:"report_type,omitempty"`
	APIEndpoint string   `json:"api_endpoint,omitempty"`
}

// Layout is the fixed widget list of a theme and the wrapper component
// that hosts it.
type Layout struct {
	Theme   string   `json:"theme"`
	Wrapper string   `json:"wrapper"`
	Widgets []Widget `json:"widgets"`
}

const (
	ThemeOverview        = "overview"
	ThemeInjection       = "injection"
	ThemePipeline        = "pipeline"
	ThemeWarehouse       = "warehouse"
	ThemeUpload          = "upload"
	ThemeUpdate          = "update"
	ThemeStockManagement = "stock-management"
	ThemeSystem          = "system"
	ThemeAnalysis        = "analysis"

	WrapperCustomTheme = "CustomThemeLayout"
	WrapperAdmin       = "AdminDashboardContent"
)

var historyTree = Widget{Type: "history-tree", GridArea: "widget1", Component: "HistoryTree"}

func comingSoon(area string) Widget {
	return Widget{Type: "available-soon", Title: "Coming Soon", GridArea: area, Component: "AvailableSoonWidget"}
}

func report(area, title, component, reportType string) Widget {
	return Widget{
		Type:        "report-generator",
		Title:       title,
		GridArea:    area,
		Component:   component,
		ReportType:  reportType,
		APIEndpoint: "/api/reports/" + reportType,
	}
}

var layouts = map[string][]Widget{
	ThemeOverview: {
		{Type: "stats", Title: "Welcome to Admin Dashboard", GridArea: "widget1", DataSource: "overview", Metrics: []string{"total_products"}},
		{Type: "stats", Title: "System Status", GridArea: "widget2", DataSource: "system_status", Metrics: []string{"active_users"}},
		{Type: "chart", Title: "Daily Activity", GridArea: "widget3", DataSource: "work_level", ChartType: "line"},
		{Type: "table", Title: "Recent Actions", GridArea: "widget4", DataSource: "recent_actions"},
	},
	ThemeInjection: {
		historyTree,
		{Type: "stats", Title: "Today Produced (PLT)", GridArea: "widget2", DataSource: "record_palletinfo", Metrics: []string{"pallet_count"}, Component: "InjectionProductionStatsWidget"},
		{Type: "stats", Title: "Today Produced (QTY)", GridArea: "widget3", DataSource: "record_palletinfo", Metrics: []string{"quantity_sum"}, Component: "InjectionProductionStatsWidget"},
		comingSoon("widget4"),
		comingSoon("widget5"),
		{Type: "chart", Title: "Top 10 Products by Quantity", GridArea: "widget6", DataSource: "record_palletinfo", ChartType: "bar", Metrics: []string{"top_products"}},
		{Type: "chart", Title: "Top 10 Products Distribution", GridArea: "widget7", DataSource: "record_palletinfo", ChartType: "donut", Metrics: []string{"top_products"}},
		comingSoon("widget8"),
		{Type: "table", Title: "Production Details", GridArea: "widget9", DataSource: "production_details"},
		{Type: "chart", Title: "Staff Workload", GridArea: "widget10", DataSource: "work_level", ChartType: "line"},
	},
	ThemePipeline: {
		historyTree,
		{Type: "stats", Title: "Today Produced (PLT)", GridArea: "widget2", DataSource: "record_palletinfo", Metrics: []string{"pipeline_pallet_count"}},
		{Type: "stats", Title: "Today Produced (QTY)", GridArea: "widget3", DataSource: "record_palletinfo", Metrics: []string{"pipeline_quantity_sum"}},
		comingSoon("widget4"),
		comingSoon("widget5"),
		comingSoon("widget6"),
		{Type: "chart", Title: "Top 5 Products by Quantity", GridArea: "widget7", DataSource: "record_palletinfo", ChartType: "bar", Metrics: []string{"pipeline_products"}},
		{Type: "chart", Title: "Top 10 Products Distribution", GridArea: "widget8", DataSource: "record_palletinfo", ChartType: "donut", Metrics: []string{"pipeline_products_top10"}},
		{Type: "table", Title: "Production Details", GridArea: "widget9", DataSource: "pipeline_production_details", Component: "ProductionDetailsWidget"},
		{Type: "chart", Title: "Staff Workload", GridArea: "widget10", DataSource: "pipeline_work_level", ChartType: "line", Component: "StaffWorkloadWidget"},
	},
	ThemeWarehouse: {
		historyTree,
		{Type: "stats", Title: "Await Location Qty", GridArea: "widget2", DataSource: "record_inventory", Metrics: []string{"await_total"}, Component: "AwaitLocationQtyWidget"},
		{Type: "stats", Title: "Transfer Done", GridArea: "widget3", DataSource: "record_transfer", Metrics: []string{"yesterday_count"}, Component: "YesterdayTransferCountWidget"},
		{Type: "stats", Title: "Still In Await", GridArea: "widget4", DataSource: "record_palletinfo", Metrics: []string{"still_in_await_qty"}, Component: "StillInAwaitWidget"},
		{Type: "stats", Title: "Still In Await %", GridArea: "widget5", DataSource: "record_palletinfo", Metrics: []string{"still_in_await_percentage"}, Component: "StillInAwaitPercentageWidget"},
		{Type: "list", Title: "Order Progress", GridArea: "widget6", DataSource: "data_order", Metrics: []string{"order_progress"}, Component: "OrderStateListWidgetV2"},
		{Type: "chart", Title: "Transfer Time Distribution", GridArea: "widget7", DataSource: "record_transfer", ChartType: "line", Metrics: []string{"transfer_time_distribution"}, Component: "TransferTimeDistributionWidget"},
		comingSoon("widget8"),
		{Type: "table", Title: "Transfer List", GridArea: "widget9", DataSource: "record_transfer", Component: "WarehouseTransferListWidget"},
		{Type: "chart", Title: "Work Level", GridArea: "widget10", DataSource: "work_level", ChartType: "area", Component: "WarehouseWorkLevelAreaChart"},
	},
	ThemeUpload: {
		{Type: "orders-list", Title: "Order Upload History", GridArea: "widget1", Component: "OrdersListWidgetV2"},
		{Type: "other-files-list", Title: "Other File Upload History", GridArea: "widget2", Component: "OtherFilesListWidgetV2"},
		{Type: "upload-files", Title: "Upload Files", GridArea: "widget3", Component: "UploadFilesWidget"},
		{Type: "upload-orders", Title: "Upload Orders", GridArea: "widget4", Component: "UploadOrdersWidget"},
		{Type: "upload-product-spec", Title: "Upload Product Spec", GridArea: "widget5", Component: "UploadProductSpecWidget"},
		{Type: "upload-photo", Title: "Upload Photo", GridArea: "widget6", Component: "UploadPhotoWidget"},
		{Type: "history-tree", GridArea: "widget7", Component: "HistoryTree"},
	},
	ThemeUpdate: {
		historyTree,
		{Type: "product-update", Title: "Product Update", GridArea: "widget2", DataSource: "products", Component: "ProductUpdateWidget"},
		{Type: "supplier-update", Title: "Supplier Update", GridArea: "widget3", DataSource: "suppliers", Component: "SupplierUpdateWidgetV2"},
		{Type: "void-pallet", Title: "Void Pallet", GridArea: "widget4", DataSource: "void_pallets", Component: "VoidPalletWidget"},
		{Type: "stats", Title: "Pending Updates", GridArea: "widget5", DataSource: "update_stats", Metrics: []string{"pending_count"}},
	},
	ThemeStockManagement: {
		historyTree,
		{Type: "table", Title: "Stock Type Selector", GridArea: "widget2", DataSource: "stock_level", Component: "StockTypeSelector"},
		{Type: "chart", Title: "Stock Level History", GridArea: "widget3", DataSource: "stock_level", ChartType: "line", Component: "StockLevelHistoryChart"},
		{Type: "custom", Title: "Inventory Ordered Analysis", GridArea: "widget4", Component: "InventoryOrderedAnalysisWidget"},
		{Type: "chart", Title: "Stock Distribution", GridArea: "widget5", DataSource: "stock_level", ChartType: "pie", Component: "StockDistributionChartV2"},
	},
	ThemeSystem: {
		historyTree,
		report("widget2", "Void Pallet Report", "ReportGeneratorWithDialogWidgetV2", "void-pallet"),
		report("widget3", "Order Loading Report", "ReportGeneratorWithDialogWidgetV2", "order-loading"),
		report("widget4", "Stock Take Report", "ReportGeneratorWithDialogWidgetV2", "stock-take"),
		{Type: "aco-order-report", Title: "ACO Order Report", GridArea: "widget5", Component: "AcoOrderReportWidgetV2", ReportType: "aco-order", APIEndpoint: "/api/reports/aco-order"},
		{Type: "transaction-report", Title: "Transaction Report", GridArea: "widget6", Component: "TransactionReportWidget", ReportType: "transaction", APIEndpoint: "/api/reports/transaction"},
		{Type: "grn-report", Title: "GRN Report", GridArea: "widget7", Component: "GrnReportWidgetV2", ReportType: "grn", APIEndpoint: "/api/reports/grn"},
		report("widget8", "Export All Data", "ReportGeneratorWithDialogWidgetV2", "export-all"),
		{Type: "reprint-label", Title: "Reprint Label", GridArea: "widget9", Component: "ReprintLabelWidget", APIEndpoint: "/api/auto-reprint-label"},
	},
	ThemeAnalysis: {
		historyTree,
		{Type: "custom", Title: "Data Analysis Center", GridArea: "widget2", Component: "AnalysisExpandableCards"},
	},
}

// Themes lists every known theme in menu order
var Themes = []string{
	ThemeOverview, ThemeInjection, ThemePipeline, ThemeWarehouse, ThemeUpload,
	ThemeUpdate, ThemeStockManagement, ThemeSystem, ThemeAnalysis,
}

// LayoutFor returns the layout of theme. Unknown themes get the overview.
func LayoutFor(theme string) Layout {
	widgets, ok := layouts[theme]
	if !ok {
		theme = ThemeOverview
		widgets = layouts[ThemeOverview]
	}

	wrapper := WrapperCustomTheme
	if theme == ThemeOverview {
		wrapper = WrapperAdmin
	}

	out := make([]Widget, len(widgets))
	copy(out, widgets)
	return Layout{Theme: theme, Wrapper: wrapper, Widgets: out}
}

// FindWidget looks up a widget by grid area
func FindWidget(theme, gridArea string) (Widget, bool) {
	for _, w := range LayoutFor(theme).Widgets {
		if w.GridArea == gridArea {
			return w, true
		}
	}
	return Widget{}, false
}
