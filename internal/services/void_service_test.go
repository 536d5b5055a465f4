package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"pallet-backend/internal/models"
)

func seedPallet(env *testEnv, pltNum, remark, loc string, qty int) {
	env.db.addPallet(&models.Pallet{
		PltNum:      pltNum,
		Series:      strings.ReplaceAll(pltNum, "/", "-") + "XYZ",
		ProductCode: "MEP9090150",
		ProductQty:  qty,
		Remark:      remark,
	}, loc)
}

func TestVoidPalletSuccess(t *testing.T) {
	env := newTestEnv(t)
	seedPallet(env, "150525/1", "Finished QC", "Await", 40)

	res, err := env.void.VoidPallet(context.Background(), testEmail, models.VoidRequest{
		PltNum: "150525/1", Reason: models.ReasonWrongLabel, Password: testPassword,
	})
	if err != nil {
		t.Fatalf("VoidPallet failed: %v", err)
	}

	if res.Message != "Pallet 150525/1 voided successfully" {
		t.Errorf("Unexpected message: %s", res.Message)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", res.Warnings)
	}

	p := env.db.pallets["150525/1"]
	if !strings.HasPrefix(p.Remark, "Finished QC | Voided: Wrong Label at 2025-05-15T10:30:00Z") {
		t.Errorf("Unexpected remark: %s", p.Remark)
	}
	if p.ProductQty != 40 {
		t.Errorf("Expected qty to stay 40, got %d", p.ProductQty)
	}

	if len(env.db.deltas) != 1 || env.db.deltas[0].Buckets[models.BucketAwait] != -40 {
		t.Fatalf("Expected await -40 delta, got %+v", env.db.deltas)
	}

	ev := env.db.lastEvent("150525/1", models.ActionVoidPallet)
	if ev == nil {
		t.Fatal("Expected Void Pallet history event")
	}
	if ev.Location != models.LocationVoided || ev.Remark != "Reason: Wrong Label" {
		t.Errorf("Unexpected event: loc=%s remark=%s", ev.Location, ev.Remark)
	}
	if ev.OperatorID == nil || *ev.OperatorID != testClock {
		t.Errorf("Expected operator %d on history", testClock)
	}

	if len(env.db.voids) != 1 || env.db.voids[0].Reason != models.ReasonWrongLabel || env.db.voids[0].DamageQty != 0 {
		t.Errorf("Unexpected report_void rows: %+v", env.db.voids)
	}
	if len(env.db.stockOps) != 1 || env.db.stockOps[0] != (stockOp{"MEP9090150", 40, "void"}) {
		t.Errorf("Unexpected stock ops: %+v", env.db.stockOps)
	}

	if !res.RequiresReprint || res.ReprintInfo == nil {
		t.Fatal("Expected reprint signal for Wrong Label")
	}
	ri := res.ReprintInfo
	if ri.Quantity != 40 || ri.TargetLocation != "Await" || ri.SourceAction != models.SourceVoidCorrection || ri.OriginalPltNum != "150525/1" {
		t.Errorf("Unexpected reprint info: %+v", ri)
	}

	if len(env.notifier.events) != 1 || env.notifier.events[0] != "Void Pallet:150525/1" {
		t.Errorf("Expected one notification, got %v", env.notifier.events)
	}

	// Second void is rejected
	_, err = env.void.VoidPallet(context.Background(), testEmail, models.VoidRequest{
		PltNum: "150525/1", Reason: models.ReasonOther, Password: testPassword,
	})
	if !errors.Is(err, ErrPalletVoided) {
		t.Errorf("Expected ErrPalletVoided, got %v", err)
	}
}

func TestVoidPalletNoReprintReasons(t *testing.T) {
	for _, reason := range []string{models.ReasonPrintExtraLabel, models.ReasonUsedMaterial, models.ReasonOther} {
		env := newTestEnv(t)
		seedPallet(env, "150525/1", "", "Pipeline", 10)

		res, err := env.void.VoidPallet(context.Background(), testEmail, models.VoidRequest{
			PltNum: "150525/1", Reason: reason, Password: testPassword,
		})
		if err != nil {
			t.Fatalf("%s: VoidPallet failed: %v", reason, err)
		}
		if res.RequiresReprint || res.ReprintInfo != nil {
			t.Errorf("%s: Expected no reprint", reason)
		}
		if env.db.deltas[0].Buckets[models.BucketPipeline] != -10 {
			t.Errorf("%s: Expected pipeline -10, got %+v", reason, env.db.deltas[0].Buckets)
		}
	}
}

func TestVoidPalletRejections(t *testing.T) {
	tests := []struct {
		name string
		loc  string
		req  models.VoidRequest
		err  error
	}{
		{"invalid reason", "Await", models.VoidRequest{PltNum: "150525/1", Reason: "Bored", Password: testPassword}, ErrInvalidReason},
		{"missing password", "Await", models.VoidRequest{PltNum: "150525/1", Reason: models.ReasonOther}, ErrPasswordRequired},
		{"unknown pallet", "Await", models.VoidRequest{PltNum: "150525/9", Reason: models.ReasonOther, Password: testPassword}, ErrPalletNotFound},
		{"already voided", models.LocationVoided, models.VoidRequest{PltNum: "150525/1", Reason: models.ReasonOther, Password: testPassword}, ErrPalletVoided},
		{"already damaged", models.LocationDamaged, models.VoidRequest{PltNum: "150525/1", Reason: models.ReasonOther, Password: testPassword}, ErrPalletDamaged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			seedPallet(env, "150525/1", "", tt.loc, 40)

			_, err := env.void.VoidPallet(context.Background(), testEmail, tt.req)
			if !errors.Is(err, tt.err) {
				t.Fatalf("Expected %v, got %v", tt.err, err)
			}
			if len(env.db.deltas) != 0 || len(env.db.history) != 0 {
				t.Errorf("Expected no writes, got %d deltas and %d events", len(env.db.deltas), len(env.db.history))
			}
		})
	}
}

func TestVoidPalletWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	seedPallet(env, "150525/1", "Finished QC", "Await", 40)

	_, err := env.void.VoidPallet(context.Background(), testEmail, models.VoidRequest{
		PltNum: "150525/1", Reason: models.ReasonOther, Password: "nope",
	})
	if !errors.Is(err, ErrIncorrectPassword) {
		t.Fatalf("Expected ErrIncorrectPassword, got %v", err)
	}

	ev := env.db.lastEvent("150525/1", models.ActionVoidPalletFail)
	if ev == nil {
		t.Fatal("Expected Void Pallet Fail history")
	}
	if ev.OperatorID != nil {
		t.Errorf("Expected no operator on failed verification, got %d", *ev.OperatorID)
	}
	if ev.Remark != "Password verification failed: Incorrect password, please try again" {
		t.Errorf("Unexpected remark: %s", ev.Remark)
	}
	if env.db.pallets["150525/1"].Remark != "Finished QC" {
		t.Errorf("Pallet must be untouched, remark is %s", env.db.pallets["150525/1"].Remark)
	}
	if len(env.db.deltas) != 0 {
		t.Errorf("Expected no inventory rows, got %d", len(env.db.deltas))
	}
}

func TestVoidPalletInventoryFailureRestoresRemark(t *testing.T) {
	env := newTestEnv(t)
	seedPallet(env, "150525/1", "Finished QC", "Await", 40)
	env.db.failInventory = errBoom

	_, err := env.void.VoidPallet(context.Background(), testEmail, models.VoidRequest{
		PltNum: "150525/1", Reason: models.ReasonOther, Password: testPassword,
	})
	if err == nil || !strings.HasPrefix(err.Error(), "Failed to update inventory") {
		t.Fatalf("Expected inventory failure, got %v", err)
	}
	if got := env.db.pallets["150525/1"].Remark; got != "Finished QC" {
		t.Errorf("Expected remark restored, got %s", got)
	}
	if len(env.db.errorLogs) != 1 || env.db.errorLogs[0].Error != "Void Pallet Error" {
		t.Errorf("Expected one report_log row, got %+v", env.db.errorLogs)
	}
	if env.db.lastEvent("150525/1", models.ActionVoidPallet) != nil {
		t.Error("Expected no Void Pallet event")
	}
}

func TestVoidPalletUpdateFailure(t *testing.T) {
	env := newTestEnv(t)
	seedPallet(env, "150525/1", "Finished QC", "Await", 40)
	env.db.failPalletUpdate = errBoom

	_, err := env.void.VoidPallet(context.Background(), testEmail, models.VoidRequest{
		PltNum: "150525/1", Reason: models.ReasonOther, Password: testPassword,
	})
	if err == nil || !strings.HasPrefix(err.Error(), "Failed to update pallet") {
		t.Fatalf("Expected update failure, got %v", err)
	}
	ev := env.db.lastEvent("150525/1", models.ActionVoidPalletFail)
	if ev == nil || !strings.Contains(ev.Remark, "boom") {
		t.Errorf("Expected failure history with cause, got %+v", ev)
	}
	if len(env.notifier.events) != 0 {
		t.Errorf("Expected no notification, got %v", env.notifier.events)
	}
}

func TestVoidPalletSideEffectFailuresAreWarnings(t *testing.T) {
	env := newTestEnv(t)
	seedPallet(env, "150525/1", "ACO Ref: 880", "Await", 40)
	env.db.failStock = errBoom

	res, err := env.void.VoidPallet(context.Background(), testEmail, models.VoidRequest{
		PltNum: "150525/1", Reason: models.ReasonOther, Password: testPassword,
	})
	if err != nil {
		t.Fatalf("VoidPallet failed: %v", err)
	}
	want := []string{"Stock level update failed", "ACO update failed"}
	if strings.Join(res.Warnings, ",") != strings.Join(want, ",") {
		t.Errorf("Expected warnings %v, got %v", want, res.Warnings)
	}

	ev := env.db.lastEvent("150525/1", models.ActionACOUpdateFailed)
	if ev == nil || ev.Remark != "ACO update failed: ACO record not found for ref: 880, code: MEP9090150" {
		t.Errorf("Unexpected ACO failure event: %+v", ev)
	}
}

func TestVoidPalletOrderSideEffects(t *testing.T) {
	env := newTestEnv(t)
	seedPallet(env, "150525/1", "ACO Ref: 880", "Await", 40)
	seedPallet(env, "150525/2", "Material GRN - 4411", "Await", 25)
	env.db.aco["880|MEP9090150"] = 100
	env.db.grn["150525/2"] = true

	for _, plt := range []string{"150525/1", "150525/2"} {
		if _, err := env.void.VoidPallet(context.Background(), testEmail, models.VoidRequest{
			PltNum: plt, Reason: models.ReasonUsedMaterial, Password: testPassword,
		}); err != nil {
			t.Fatalf("VoidPallet(%s) failed: %v", plt, err)
		}
	}

	if got := env.db.aco["880|MEP9090150"]; got != 60 {
		t.Errorf("Expected finished qty 60, got %d", got)
	}
	ev := env.db.lastEvent("150525/1", models.ActionACOUpdated)
	if ev == nil || ev.Remark != "ACO finished_qty updated: ref=880, removed=40, finished=60" {
		t.Errorf("Unexpected ACO event: %+v", ev)
	}

	if env.db.grn["150525/2"] {
		t.Error("Expected GRN row removed")
	}
	ev = env.db.lastEvent("150525/2", models.ActionGRNDeleted)
	if ev == nil || ev.Remark != "GRN record deleted: grn=4411" {
		t.Errorf("Unexpected GRN event: %+v", ev)
	}
}

func TestProcessDamagePartial(t *testing.T) {
	env := newTestEnv(t)
	seedPallet(env, "150525/1", "Finished QC", "Await", 40)

	res, err := env.void.ProcessDamage(context.Background(), testEmail, models.DamageRequest{
		PltNum: "150525/1", Password: testPassword, DamageQty: 10,
	})
	if err != nil {
		t.Fatalf("ProcessDamage failed: %v", err)
	}

	if res.Message != "Pallet 150525/1 partially damaged. Remaining: 30" {
		t.Errorf("Unexpected message: %s", res.Message)
	}
	if res.RemainingQty != 30 || !res.RequiresReprint {
		t.Errorf("Expected remaining 30 with reprint, got %d/%v", res.RemainingQty, res.RequiresReprint)
	}
	ri := res.ReprintInfo
	if ri == nil || ri.Quantity != 30 || ri.SourceAction != models.SourceVoidCorrectionDamagePartial || ri.Reason != models.ReasonDamage {
		t.Errorf("Unexpected reprint info: %+v", ri)
	}

	p := env.db.pallets["150525/1"]
	if p.ProductQty != 0 {
		t.Errorf("Expected pallet zeroed, got %d", p.ProductQty)
	}
	if !strings.Contains(p.Remark, "Damaged: 10/40") {
		t.Errorf("Unexpected remark: %s", p.Remark)
	}

	b := env.db.deltas[0].Buckets
	if b[models.BucketAwait] != -40 || b[models.BucketDamage] != 10 {
		t.Errorf("Expected await -40 damage +10, got %+v", b)
	}

	ev := env.db.lastEvent("150525/1", models.ActionPartiallyDamaged)
	if ev == nil || ev.Location != models.LocationVoidedPartial || ev.Remark != "Damage: 10/40, Remaining: 30" {
		t.Errorf("Unexpected damage event: %+v", ev)
	}
	if env.db.voids[0].DamageQty != 10 || env.db.voids[0].Reason != models.ReasonDamage {
		t.Errorf("Unexpected report_void: %+v", env.db.voids[0])
	}
}

func TestProcessDamageFull(t *testing.T) {
	env := newTestEnv(t)
	seedPallet(env, "150525/1", "ACO Ref: 880", "Pipeline", 40)
	env.db.aco["880|MEP9090150"] = 40

	res, err := env.void.VoidPallet(context.Background(), testEmail, models.VoidRequest{
		PltNum: "150525/1", Reason: models.ReasonDamage, Password: testPassword, DamageQty: 40,
	})
	if err != nil {
		t.Fatalf("VoidPallet(Damage) failed: %v", err)
	}

	if res.Message != "Pallet 150525/1 fully damaged. No reprint needed." {
		t.Errorf("Unexpected message: %s", res.Message)
	}
	if res.RequiresReprint {
		t.Error("Expected no reprint on full damage")
	}
	if env.db.locations["150525/1"] != models.LocationDamaged {
		t.Errorf("Expected Damaged location, got %s", env.db.locations["150525/1"])
	}
	if env.db.aco["880|MEP9090150"] != 0 {
		t.Errorf("Expected ACO finished 0, got %d", env.db.aco["880|MEP9090150"])
	}
	if env.notifier.events[0] != "Fully Damaged:150525/1" {
		t.Errorf("Unexpected notification: %v", env.notifier.events)
	}
}

func TestProcessDamageValidation(t *testing.T) {
	tests := []struct {
		name   string
		remark string
		qty    int
		err    error
		msg    string
	}{
		{"zero", "", 0, ErrInvalidDamageQty, "Invalid damage quantity. Must be between 1 and 40"},
		{"too many", "", 41, ErrInvalidDamageQty, "Invalid damage quantity. Must be between 1 and 40"},
		{"aco partial", "ACO Ref: 880", 5, ErrACOPartialDamage, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			seedPallet(env, "150525/1", tt.remark, "Await", 40)

			_, err := env.void.ProcessDamage(context.Background(), testEmail, models.DamageRequest{
				PltNum: "150525/1", Password: testPassword, DamageQty: tt.qty,
			})
			if !errors.Is(err, tt.err) {
				t.Fatalf("Expected %v, got %v", tt.err, err)
			}
			if tt.msg != "" && err.Error() != tt.msg {
				t.Errorf("Expected %q, got %q", tt.msg, err.Error())
			}
			if len(env.db.history) != 0 {
				t.Errorf("Expected no history before verification, got %d", len(env.db.history))
			}
		})
	}
}

func TestProcessDamageInventoryFailureRestoresPallet(t *testing.T) {
	env := newTestEnv(t)
	seedPallet(env, "150525/1", "Finished QC", "Await", 40)
	env.db.failInventory = errBoom

	if _, err := env.void.ProcessDamage(context.Background(), testEmail, models.DamageRequest{
		PltNum: "150525/1", Password: testPassword, DamageQty: 5,
	}); err == nil {
		t.Fatal("Expected error")
	}

	p := env.db.pallets["150525/1"]
	if p.ProductQty != 40 || p.Remark != "Finished QC" {
		t.Errorf("Expected pallet restored, got qty=%d remark=%s", p.ProductQty, p.Remark)
	}
}
