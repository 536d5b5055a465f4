package models

import "time"

// VoidReason describes one selectable reason for voiding a pallet.
type VoidReason struct {
	Value             string `json:"value"`
	Label             string `json:"label"`
	AllowsReprint     bool   `json:"allowsReprint"`
	RequiresDamageQty bool   `json:"requiresDamageQty"`
}

const (
	ReasonPrintExtraLabel  = "Print Extra Label"
	ReasonWrongLabel       = "Wrong Label"
	ReasonWrongQty         = "Wrong Qty"
	ReasonWrongProductCode = "Wrong Product Code"
	ReasonDamage           = "Damage"
	ReasonUsedMaterial     = "Used Material"
	ReasonOther            = "Other"
)

var VoidReasons = []VoidReason{
	{Value: ReasonPrintExtraLabel, Label: "Print Extra Label"},
	{Value: ReasonWrongLabel, Label: "Wrong Label", AllowsReprint: true},
	{Value: ReasonWrongQty, Label: "Wrong Quantity", AllowsReprint: true},
	{Value: ReasonWrongProductCode, Label: "Wrong Product Code", AllowsReprint: true},
	{Value: ReasonDamage, Label: "Damage", AllowsReprint: true, RequiresDamageQty: true},
	{Value: ReasonUsedMaterial, Label: "Used Material"},
	{Value: ReasonOther, Label: "Other"},
}

// LookupVoidReason returns the reason config for value.
func LookupVoidReason(value string) (VoidReason, bool) {
	for _, r := range VoidReasons {
		if r.Value == value {
			return r, true
		}
	}
	return VoidReason{}, false
}

// History actions written by the void workflow.
const (
	ActionVoidPallet       = "Void Pallet"
	ActionVoidPalletFail   = "Void Pallet Fail"
	ActionFullyDamaged     = "Fully Damaged"
	ActionPartiallyDamaged = "Partially Damaged"
	ActionACOUpdated       = "ACO Updated"
	ActionACOUpdateFailed  = "ACO Update Failed"
	ActionGRNDeleted       = "GRN Deleted"
	ActionGRNDeleteFailed  = "GRN Delete Failed"
	ActionAutoReprint      = "Auto Reprint"
	ActionBatchVoid        = "Batch Void"
)

// Locations recorded for voided pallets.
const (
	LocationVoided        = "Voided"
	LocationVoid          = "Void"
	LocationDamaged       = "Damaged"
	LocationVoidedPartial = "Voided (Partial)"
)

// Reprint source actions.
const (
	SourceVoidCorrection              = "void_correction"
	SourceVoidCorrectionDamagePartial = "void_correction_damage_partial"
)

// VoidRequest is the input to a void. Pallet is re-read server side from
// PltNum. DamageQty is only read when Reason is Damage.
type VoidRequest struct {
	PltNum    string `json:"plt_num"`
	Reason    string `json:"reason"`
	Password  string `json:"password"`
	DamageQty int    `json:"damage_qty,omitempty"`
}

// DamageRequest is the input to a damage void.
type DamageRequest struct {
	PltNum    string `json:"plt_num"`
	Password  string `json:"password"`
	DamageQty int    `json:"damage_qty"`
}

// ReprintInfo tells the caller what replacement label to print.
type ReprintInfo struct {
	ProductCode    string `json:"product_code"`
	Quantity       int    `json:"quantity"`
	OriginalPltNum string `json:"original_plt_num"`
	SourceAction   string `json:"source_action"`
	TargetLocation string `json:"target_location"`
	Reason         string `json:"reason"`
}

// VoidResult is returned by void and damage operations.
type VoidResult struct {
	Success         bool         `json:"success"`
	Message         string       `json:"message"`
	PltNum          string       `json:"plt_num"`
	RemainingQty    int          `json:"remainingQty"`
	RequiresReprint bool         `json:"requiresReprint"`
	ReprintInfo     *ReprintInfo `json:"reprintInfo,omitempty"`
	Warnings        []string     `json:"warnings,omitempty"`
}

// ACOLine is a row of record_aco.
type ACOLine struct {
	UUID        string    `json:"uuid"`
	OrderRef    int       `json:"order_ref"`
	Code        string    `json:"code"`
	RequiredQty int       `json:"required_qty"`
	FinishedQty int       `json:"finished_qty"`
	UpdatedAt   time.Time `json:"latest_update"`
}

// VoidRecord is a row of report_void.
type VoidRecord struct {
	UUID      string    `json:"uuid"`
	PltNum    string    `json:"plt_num"`
	Reason    string    `json:"reason"`
	DamageQty int       `json:"damage_qty"`
	Time      time.Time `json:"time"`
}

// ErrorLog is a row of report_log.
type ErrorLog struct {
	Error     string `json:"error"`
	ErrorInfo string `json:"error_info"`
	UserID    *int   `json:"user_id"`
	State     bool   `json:"state"`
}

// BatchItemStatus tracks a batch void item through processing.
type BatchItemStatus string

const (
	BatchPending    BatchItemStatus = "pending"
	BatchProcessing BatchItemStatus = "processing"
	BatchCompleted  BatchItemStatus = "completed"
	BatchError      BatchItemStatus = "error"
)

// BatchItem is an in-memory wrapper around a scanned pallet.
type BatchItem struct {
	Pallet   *PalletInfo     `json:"pallet"`
	Selected bool            `json:"selected"`
	Status   BatchItemStatus `json:"status"`
	Error    string          `json:"error,omitempty"`
	Result   *VoidResult     `json:"result,omitempty"`
}

// BatchSummary tallies a finished batch.
type BatchSummary struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// BatchVoidRequest is the HTTP body for a batch void.
type BatchVoidRequest struct {
	Pallets   []string `json:"pallets"`
	Reason    string   `json:"reason"`
	Password  string   `json:"password"`
	DamageQty int      `json:"damage_qty"`
}

// BatchVoidResponse is returned once every selected item has been processed.
type BatchVoidResponse struct {
	Items       []*BatchItem  `json:"items"`
	Summary     BatchSummary  `json:"summary"`
	Rejected    []string      `json:"rejected,omitempty"`
	SummaryText string        `json:"summaryText"`
	Reprints    []ReprintInfo `json:"reprints,omitempty"`
}
