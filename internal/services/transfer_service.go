package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pallet-backend/internal/models"
	"pallet-backend/internal/timeutil"
)

const (
	DefaultTransferLimit = 50
	MaxTransferLimit     = 500
)

type TransferStore interface {
	List(ctx context.Context, f models.TransferFilter) ([]*models.Transfer, error)
	Count(ctx context.Context, f models.TransferFilter) (int, error)
}

type TransferService struct {
	Transfers TransferStore
}

func NewTransferService(transfers TransferStore) *TransferService {
	return &TransferService{Transfers: transfers}
}

// ParseTransferFilter reads the warehouse-transfers query string. endDate is
// inclusive of the whole day. limit is clamped to MaxTransferLimit.
func ParseTransferFilter(q url.Values) (models.TransferFilter, error) {
	f := models.TransferFilter{
		FromLocation: strings.TrimSpace(q.Get("fromLocation")),
		ToLocation:   strings.TrimSpace(q.Get("toLocation")),
		PltNum:       strings.TrimSpace(q.Get("pltNum")),
		Limit:        DefaultTransferLimit,
	}

	start, end, err := parseDateRange(q)
	if err != nil {
		return f, err
	}
	f.StartDate, f.EndDate = start, end

	if v := q.Get("operatorId"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return f, fmt.Errorf("%w: operatorId", ErrInvalidFilter)
		}
		f.OperatorID = n
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return f, fmt.Errorf("%w: limit", ErrInvalidFilter)
		}
		f.Limit = min(n, MaxTransferLimit)
	}

	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, fmt.Errorf("%w: offset", ErrInvalidFilter)
		}
		f.Offset = n
	}

	return f, nil
}

// ParseVoidReportFilter reads the void report query string
func ParseVoidReportFilter(q url.Values) (models.VoidReportFilter, error) {
	f := models.VoidReportFilter{
		VoidReason:  strings.TrimSpace(q.Get("voidReason")),
		ProductCode: strings.TrimSpace(q.Get("productCode")),
		VoidBy:      strings.TrimSpace(q.Get("voidBy")),
	}
	start, end, err := parseDateRange(q)
	if err != nil {
		return f, err
	}
	f.StartDate, f.EndDate = start, end
	return f, nil
}

func parseDateRange(q url.Values) (*time.Time, *time.Time, error) {
	var start, end *time.Time
	if v := q.Get("startDate"); v != "" {
		t, err := timeutil.ParseDate(v)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: startDate", ErrInvalidFilter)
		}
		start = &t
	}
	if v := q.Get("endDate"); v != "" {
		t, err := timeutil.ParseDate(v)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: endDate", ErrInvalidFilter)
		}
		t = t.AddDate(0, 0, 1)
		end = &t
	}
	if start != nil && end != nil && !end.After(*start) {
		return nil, nil, fmt.Errorf("%w: endDate before startDate", ErrInvalidFilter)
	}
	return start, end, nil
}

// List returns one page of transfers and the unpaged total
func (s *TransferService) List(ctx context.Context, f models.TransferFilter) (*models.TransferPage, error) {
	transfers, err := s.Transfers.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	total, err := s.Transfers.Count(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to count transfers: %w", err)
	}
	if transfers == nil {
		transfers = []*models.Transfer{}
	}
	return &models.TransferPage{
		Success: true,
		Data:    transfers,
		Total:   total,
		Limit:   f.Limit,
		Offset:  f.Offset,
	}, nil
}
