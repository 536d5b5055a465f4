package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"pallet-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

// Detection confidence at or above which the detected type beats the declared one
const detectionThreshold = 70

// DetectSearchType classifies a raw identifier. Series look like
// DDMMYY-XXXXXX, pallet numbers like DDMMYY/N.
func DetectSearchType(value string) models.DetectionResult {
	v := strings.TrimSpace(value)
	switch {
	case strings.Contains(v, "-") && len(v) > 10:
		return models.DetectionResult{Type: models.SearchBySeries, Confidence: 90}
	case strings.Contains(v, "/"):
		return models.DetectionResult{Type: models.SearchByPalletNum, Confidence: 90}
	}
	return models.DetectionResult{Type: models.SearchUnknown, Confidence: 0}
}

// searchOrder returns the primary and alternate lookup kinds
func searchOrder(value string, declared models.SearchType) (models.SearchType, models.SearchType) {
	primary := declared
	if d := DetectSearchType(value); d.Confidence >= detectionThreshold {
		primary = d.Type
	}
	if primary != models.SearchBySeries && primary != models.SearchByQR {
		return models.SearchByPalletNum, models.SearchBySeries
	}
	return models.SearchBySeries, models.SearchByPalletNum
}

type PalletSearchService struct {
	Pallets PalletStore
	History HistoryStore
}

func NewPalletSearchService(pallets PalletStore, history HistoryStore) *PalletSearchService {
	return &PalletSearchService{Pallets: pallets, History: history}
}

func (s *PalletSearchService) lookup(ctx context.Context, kind models.SearchType, value string) (*models.Pallet, error) {
	if kind == models.SearchBySeries {
		return s.Pallets.GetBySeries(ctx, value)
	}
	return s.Pallets.GetByPltNum(ctx, value)
}

// FindPallet resolves an identifier to a pallet, trying the alternate kind
// when the first lookup finds nothing. Returns ErrPalletNotFound.
func (s *PalletSearchService) FindPallet(ctx context.Context, value string, declared models.SearchType) (*models.Pallet, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, ErrSearchValueEmpty
	}

	primary, alternate := searchOrder(value, declared)
	for _, kind := range []models.SearchType{primary, alternate} {
		p, err := s.lookup(ctx, kind, value)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("Search failed: %w", err)
		}
	}
	return nil, ErrPalletNotFound
}

// PalletInfo loads a pallet with its current location. Unlike Search it
// does not reject voided pallets.
func (s *PalletSearchService) PalletInfo(ctx context.Context, value string, declared models.SearchType) (*models.PalletInfo, error) {
	p, err := s.FindPallet(ctx, value, declared)
	if err != nil {
		return nil, err
	}

	loc, err := s.History.LatestLocation(ctx, p.PltNum)
	if err != nil {
		return nil, fmt.Errorf("Search failed: %w", err)
	}

	return &models.PalletInfo{
		PltNum:       p.PltNum,
		ProductCode:  p.ProductCode,
		ProductQty:   p.ProductQty,
		Series:       p.Series,
		Remark:       p.Remark,
		Location:     loc,
		CreationDate: p.GenerateTime,
	}, nil
}

// Search finds a pallet that can still be voided. Not-found and
// already-voided are returned as unsuccessful results, not errors.
func (s *PalletSearchService) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResult, error) {
	info, err := s.PalletInfo(ctx, req.SearchValue, req.SearchType)
	switch {
	case errors.Is(err, ErrSearchValueEmpty), errors.Is(err, ErrPalletNotFound):
		return &models.SearchResult{Success: false, Error: err.Error()}, nil
	case err != nil:
		log.Printf("[PalletSearch] %s: %v", req.SearchValue, err)
		return nil, err
	}

	if err := checkNotVoided(info.Location); err != nil {
		return &models.SearchResult{Success: false, Error: err.Error()}, nil
	}

	return &models.SearchResult{Success: true, Data: info}, nil
}

func checkNotVoided(location string) error {
	if !IsVoidedLocation(location) {
		return nil
	}
	if location == models.LocationDamaged {
		return ErrPalletDamaged
	}
	return ErrPalletVoided
}
