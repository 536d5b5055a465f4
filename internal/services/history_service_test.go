package services

import (
	"context"
	"errors"
	"testing"

	"pallet-backend/internal/models"
)

func TestGetPalletHistoryAndStockInfo(t *testing.T) {
	env := newTestEnv(t)
	seedPallet(env, "150525/1", "Finished QC", "Await", 40)
	env.db.deltas = append(env.db.deltas, &models.InventoryDelta{
		ProductCode: "MEP9090150",
		Buckets:     map[string]int{models.BucketAwait: 40, models.BucketDamage: 3},
	})

	svc := NewPalletHistoryService(env.search, fakeHistory{env.db}, fakeInventory{env.db}, fakeProducts{env.db}, fakeOperators{env.db})

	if _, err := env.void.VoidPallet(context.Background(), testEmail, models.VoidRequest{
		PltNum: "150525/1", Reason: models.ReasonOther, Password: testPassword,
	}); err != nil {
		t.Fatalf("VoidPallet failed: %v", err)
	}

	res, err := svc.GetPalletHistoryAndStockInfo(context.Background(), models.SearchRequest{
		SearchValue: "150525/1", SearchType: models.SearchByPalletNum,
	})
	if err != nil {
		t.Fatalf("GetPalletHistoryAndStockInfo failed: %v", err)
	}

	if res.PalletInfo.Location != models.LocationVoided {
		t.Errorf("Expected voided pallets to be viewable, got %s", res.PalletInfo.Location)
	}
	if res.ProductDetails == nil || res.ProductDetails.Description != "Envirocrate 90x90" {
		t.Errorf("Unexpected product: %+v", res.ProductDetails)
	}
	if len(res.History) == 0 || res.History[0].Action != models.ActionVoidPallet {
		t.Errorf("Expected newest event first, got %+v", res.History)
	}
	// await 40 - 40 void, damage is excluded from total
	if res.Stock.Await != 0 || res.Stock.Damage != 3 || res.Stock.Total != 0 || !res.Stock.HasStock {
		t.Errorf("Unexpected stock: %+v", res.Stock)
	}
}

func TestGetPalletHistoryNotFound(t *testing.T) {
	env := newTestEnv(t)
	svc := NewPalletHistoryService(env.search, fakeHistory{env.db}, fakeInventory{env.db}, fakeProducts{env.db}, fakeOperators{env.db})

	_, err := svc.GetPalletHistoryAndStockInfo(context.Background(), models.SearchRequest{SearchValue: "nope/1"})
	if !errors.Is(err, ErrPalletNotFound) {
		t.Errorf("Expected ErrPalletNotFound, got %v", err)
	}
}

func TestGetUserHistory(t *testing.T) {
	env := newTestEnv(t)
	seedPallet(env, "150525/1", "", "Await", 40)
	seedPallet(env, "150525/2", "", "Await", 40)
	svc := NewPalletHistoryService(env.search, fakeHistory{env.db}, fakeInventory{env.db}, fakeProducts{env.db}, fakeOperators{env.db})

	for _, plt := range []string{"150525/1", "150525/2"} {
		env.void.VoidPallet(context.Background(), testEmail, models.VoidRequest{PltNum: plt, Reason: models.ReasonOther, Password: testPassword})
	}

	events, err := svc.GetUserHistory(context.Background(), testEmail, 1)
	if err != nil {
		t.Fatalf("GetUserHistory failed: %v", err)
	}
	if len(events) != 1 || events[0].PltNum != "150525/2" {
		t.Errorf("Expected newest event for 150525/2, got %+v", events)
	}

	if _, err := svc.GetUserHistory(context.Background(), "", 0); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Expected ErrInvalidSession, got %v", err)
	}
	if _, err := svc.GetUserHistory(context.Background(), "ghost@pennine.test", 0); !errors.Is(err, ErrOperatorNotFound) {
		t.Errorf("Expected ErrOperatorNotFound, got %v", err)
	}
}
