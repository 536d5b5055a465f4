package services

import (
	"context"
	"fmt"
	"log"

	"pallet-backend/internal/cache"
	"pallet-backend/internal/models"
)

const defaultUserHistoryLimit = 50

type PalletHistoryService struct {
	Search    *PalletSearchService
	History   HistoryStore
	Inventory InventoryStore
	Products  ProductStore
	Operators OperatorStore
}

func NewPalletHistoryService(search *PalletSearchService, history HistoryStore, inventory InventoryStore, products ProductStore, operators OperatorStore) *PalletHistoryService {
	return &PalletHistoryService{
		Search:    search,
		History:   history,
		Inventory: inventory,
		Products:  products,
		Operators: operators,
	}
}

// GetPalletHistoryAndStockInfo returns the pallet, its product, every
// history event (newest first) and the stock totals of its product code.
func (s *PalletHistoryService) GetPalletHistoryAndStockInfo(ctx context.Context, req models.SearchRequest) (*models.PalletHistoryResult, error) {
	key := cache.QueryKey(cache.PalletHistoryPrefix, req.SearchType, req.SearchValue)
	var cached models.PalletHistoryResult
	if cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	info, err := s.Search.PalletInfo(ctx, req.SearchValue, req.SearchType)
	if err != nil {
		return nil, err
	}

	product, err := s.Products.GetByCode(ctx, info.ProductCode)
	if err != nil {
		return nil, fmt.Errorf("failed to load product %s: %w", info.ProductCode, err)
	}

	history, err := s.History.ListByPallet(ctx, info.PltNum)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if history == nil {
		history = []*models.HistoryEvent{}
	}

	stock, err := s.Inventory.SumByProduct(ctx, info.ProductCode)
	if err != nil {
		return nil, fmt.Errorf("failed to load stock: %w", err)
	}

	result := &models.PalletHistoryResult{
		PalletInfo:     info,
		ProductDetails: product,
		History:        history,
		Stock:          stock,
	}

	cache.SetJSON(ctx, key, result, cache.StatsTTL)
	return result, nil
}

// GetUserHistory returns the newest history rows recorded by the operator
// behind email
func (s *PalletHistoryService) GetUserHistory(ctx context.Context, email string, limit int) ([]*models.HistoryEvent, error) {
	if email == "" {
		return nil, ErrInvalidSession
	}
	if limit <= 0 {
		limit = defaultUserHistoryLimit
	}

	op, err := s.Operators.GetByEmail(ctx, email)
	if err != nil {
		log.Printf("[PalletHistory] No operator for %s: %v", email, err)
		return nil, ErrOperatorNotFound
	}

	events, err := s.History.ListByOperator(ctx, op.ID, limit)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []*models.HistoryEvent{}
	}
	return events, nil
}
