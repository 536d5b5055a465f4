package models

import "time"

// VoidReportFilter narrows the void report. Zero values mean "any".
type VoidReportFilter struct {
	StartDate   *time.Time
	EndDate     *time.Time
	VoidReason  string
	ProductCode string
	VoidBy      string
}

// VoidReportRow joins a report_void row with its pallet.
type VoidReportRow struct {
	PltNum         string    `json:"plt_num"`
	VoidTime       time.Time `json:"void_time"`
	ProductCode    string    `json:"product_code"`
	ProductDesc    string    `json:"product_description"`
	ProductQty     int       `json:"product_qty"`
	DamageQty      int       `json:"damage_qty"`
	VoidQty        int       `json:"void_qty"`
	VoidReason     string    `json:"void_reason"`
	VoidBy         string    `json:"void_by"`
	OriginalRemark string    `json:"original_remark"`
}

// ReasonStat is one row of the per-reason breakdown.
type ReasonStat struct {
	Reason   string `json:"reason"`
	Count    int    `json:"count"`
	Quantity int    `json:"quantity"`
}

// VoidReportSummary aggregates a void report.
type VoidReportSummary struct {
	TotalRecords   int          `json:"totalRecords"`
	TotalQuantity  int          `json:"totalQuantity"`
	DamageCount    int          `json:"damageCount"`
	FullVoidCount  int          `json:"fullVoidCount"`
	UniqueProducts int          `json:"uniqueProducts"`
	UniqueReasons  int          `json:"uniqueReasons"`
	ByReason       []ReasonStat `json:"byReason"`
}

// VoidReport is the full report payload.
type VoidReport struct {
	GeneratedAt time.Time          `json:"generatedAt"`
	Records     []*VoidReportRow   `json:"records"`
	Summary     *VoidReportSummary `json:"summary"`
}
