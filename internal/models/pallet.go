package models

import "time"

// Pallet is a row of record_palletinfo.
type Pallet struct {
	PltNum       string    `json:"plt_num"`
	Series       string    `json:"series"`
	ProductCode  string    `json:"product_code"`
	ProductQty   int       `json:"product_qty"`
	Remark       string    `json:"plt_remark"`
	PDFURL       string    `json:"pdf_url,omitempty"`
	GenerateTime time.Time `json:"generate_time"`
}

// PalletInfo is a pallet plus its current location, as returned by search.
type PalletInfo struct {
	PltNum       string    `json:"plt_num"`
	ProductCode  string    `json:"product_code"`
	ProductQty   int       `json:"product_qty"`
	Series       string    `json:"series"`
	Remark       string    `json:"plt_remark"`
	Location     string    `json:"plt_loc"`
	CreationDate time.Time `json:"creation_date"`
}

// Product is a row of data_code.
type Product struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Colour      string `json:"colour"`
	StandardQty int    `json:"standard_qty"`
	Type        string `json:"type"`
}

// SearchType is how a pallet identifier should be interpreted.
type SearchType string

const (
	SearchBySeries    SearchType = "series"
	SearchByPalletNum SearchType = "pallet_num"
	SearchByQR        SearchType = "qr"
	SearchUnknown     SearchType = "unknown"
)

// SearchRequest is the input to pallet search and history lookup.
type SearchRequest struct {
	SearchValue string     `json:"searchValue"`
	SearchType  SearchType `json:"searchType"`
}

// SearchResult mirrors the action's success/error envelope. A missing
// pallet is a normal result with Success=false, not an error.
type SearchResult struct {
	Success bool        `json:"success"`
	Data    *PalletInfo `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// DetectionResult is the outcome of format detection on a raw identifier.
type DetectionResult struct {
	Type       SearchType `json:"type"`
	Confidence int        `json:"confidence"`
}
