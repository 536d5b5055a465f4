package models

// ReprintRequest is the body of POST /api/auto-reprint-label.
type ReprintRequest struct {
	ProductCode      string `json:"productCode"`
	Quantity         int    `json:"quantity"`
	OriginalPltNum   string `json:"originalPltNum"`
	OriginalLocation string `json:"originalLocation"`
	SourceAction     string `json:"sourceAction"`
	TargetLocation   string `json:"targetLocation"`
	Reason           string `json:"reason"`
	OperatorClockNum string `json:"operatorClockNum"`
}

// QCInputData is the label content the client needs to render or print.
type QCInputData struct {
	ProductCode        string `json:"productCode"`
	ProductDescription string `json:"productDescription"`
	Quantity           int    `json:"quantity"`
	Series             string `json:"series"`
	PalletNum          string `json:"palletNum"`
	OperatorClockNum   string `json:"operatorClockNum"`
	QCClockNum         string `json:"qcClockNum"`
	WorkOrderNumber    string `json:"workOrderNumber"`
	ProductType        string `json:"productType"`
}

// ReprintResult is the data part of the reprint response.
type ReprintResult struct {
	NewPalletNumber string       `json:"newPalletNumber"`
	FileName        string       `json:"fileName"`
	QCInputData     *QCInputData `json:"qcInputData"`
	Autoprint       bool         `json:"autoprint"`
	PDFURL          string       `json:"pdfUrl,omitempty"`
	Printed         bool         `json:"printed"`
}

// ReprintResponse wraps ReprintResult in the success envelope.
type ReprintResponse struct {
	Success bool           `json:"success"`
	Data    *ReprintResult `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}
