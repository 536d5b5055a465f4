package models

import "time"

// Transfer is a row of record_transfer joined with operator and pallet.
type Transfer struct {
	UUID         string    `json:"uuid"`
	TranDate     time.Time `json:"tran_date"`
	PltNum       string    `json:"plt_num"`
	FromLocation string    `json:"f_loc"`
	ToLocation   string    `json:"t_loc"`
	OperatorID   int       `json:"operator_id"`
	OperatorName string    `json:"operator_name"`
	ProductCode  string    `json:"product_code"`
	ProductQty   int       `json:"product_qty"`
}

// TransferFilter is parsed from the warehouse-transfers query string.
type TransferFilter struct {
	StartDate    *time.Time
	EndDate      *time.Time
	FromLocation string
	ToLocation   string
	PltNum       string
	OperatorID   int
	Limit        int
	Offset       int
}

// TransferPage is one page of transfers.
type TransferPage struct {
	Success bool        `json:"success"`
	Data    []*Transfer `json:"data"`
	Total   int         `json:"total"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
}
