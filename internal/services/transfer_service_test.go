package services

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"pallet-backend/internal/models"
	"pallet-backend/internal/timeutil"
)

func TestParseTransferFilter(t *testing.T) {
	tests := []struct {
		query  string
		limit  int
		offset int
		err    bool
	}{
		{"", DefaultTransferLimit, 0, false},
		{"limit=10&offset=20", 10, 20, false},
		{"limit=5000", MaxTransferLimit, 0, false},
		{"limit=0", 0, 0, true},
		{"limit=abc", 0, 0, true},
		{"offset=-1", 0, 0, true},
		{"operatorId=x", 0, 0, true},
		{"startDate=2025-13-01", 0, 0, true},
		{"startDate=2025-05-10&endDate=2025-05-01", 0, 0, true},
	}

	for _, tt := range tests {
		q, _ := url.ParseQuery(tt.query)
		f, err := ParseTransferFilter(q)
		if tt.err {
			if !errors.Is(err, ErrInvalidFilter) {
				t.Errorf("%q: Expected ErrInvalidFilter, got %v", tt.query, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error %v", tt.query, err)
			continue
		}
		if f.Limit != tt.limit || f.Offset != tt.offset {
			t.Errorf("%q: Expected limit=%d offset=%d, got %d/%d", tt.query, tt.limit, tt.offset, f.Limit, f.Offset)
		}
	}
}

func TestParseTransferFilterFields(t *testing.T) {
	q, _ := url.ParseQuery("startDate=2025-05-01&endDate=2025-05-01&fromLocation=Await&toLocation=Fold%20Mill&pltNum=010525/3&operatorId=5997")
	f, err := ParseTransferFilter(q)
	if err != nil {
		t.Fatalf("ParseTransferFilter failed: %v", err)
	}

	start := time.Date(2025, 5, 1, 0, 0, 0, 0, timeutil.Local)
	if f.StartDate == nil || !f.StartDate.Equal(start) {
		t.Errorf("Expected start %v, got %v", start, f.StartDate)
	}
	if f.EndDate == nil || !f.EndDate.Equal(start.AddDate(0, 0, 1)) {
		t.Errorf("Expected end-of-day exclusive bound, got %v", f.EndDate)
	}
	if f.FromLocation != "Await" || f.ToLocation != "Fold Mill" || f.PltNum != "010525/3" || f.OperatorID != 5997 {
		t.Errorf("Unexpected filter: %+v", f)
	}
}

type stubTransfers struct {
	rows  []*models.Transfer
	total int
}

func (s *stubTransfers) List(ctx context.Context, f models.TransferFilter) ([]*models.Transfer, error) {
	return s.rows, nil
}

func (s *stubTransfers) Count(ctx context.Context, f models.TransferFilter) (int, error) {
	return s.total, nil
}

func TestTransferList(t *testing.T) {
	svc := NewTransferService(&stubTransfers{total: 0})
	page, err := svc.List(context.Background(), models.TransferFilter{Limit: 50})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if !page.Success || page.Data == nil || page.Limit != 50 {
		t.Errorf("Expected empty successful page, got %+v", page)
	}

	svc = NewTransferService(&stubTransfers{rows: []*models.Transfer{{PltNum: "150525/1"}}, total: 120})
	page, _ = svc.List(context.Background(), models.TransferFilter{Limit: 1, Offset: 5})
	if page.Total != 120 || page.Offset != 5 || len(page.Data) != 1 {
		t.Errorf("Unexpected page: %+v", page)
	}
}

func TestParseVoidReportFilter(t *testing.T) {
	q, _ := url.ParseQuery("voidReason=%20Damage%20&productCode=MEP9090150&voidBy=alan&startDate=2025-05-01")
	f, err := ParseVoidReportFilter(q)
	if err != nil {
		t.Fatalf("ParseVoidReportFilter failed: %v", err)
	}
	if f.VoidReason != "Damage" || f.ProductCode != "MEP9090150" || f.VoidBy != "alan" || f.StartDate == nil || f.EndDate != nil {
		t.Errorf("Unexpected filter: %+v", f)
	}
}
