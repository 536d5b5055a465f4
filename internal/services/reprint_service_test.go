package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"pallet-backend/internal/models"
)

type memLabels struct {
	files   map[string][]byte
	failPut error
}

func (m *memLabels) Put(ctx context.Context, fileName string, data []byte) (string, error) {
	if m.failPut != nil {
		return "", m.failPut
	}
	m.files[fileName] = data
	return "https://labels.test/labels/" + fileName, nil
}

func (m *memLabels) Get(ctx context.Context, fileName string) ([]byte, error) {
	data, ok := m.files[fileName]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return data, nil
}

type memPrinter struct {
	printed []string
	fail    error
}

func (p *memPrinter) PrintPDF(ctx context.Context, fileName string, pdf []byte, copies int) error {
	if p.fail != nil {
		return p.fail
	}
	p.printed = append(p.printed, fileName)
	return nil
}

func newReprintEnv(t *testing.T) (*testEnv, *ReprintService, *memLabels, *memPrinter) {
	env := newTestEnv(t)
	labels := &memLabels{files: make(map[string][]byte)}
	printer := &memPrinter{}

	svc := NewReprintService(fakePallets{env.db}, fakeHistory{env.db}, fakeProducts{env.db},
		fakeStock{env.db}, fakeErrorLogs{env.db}, env.notifier)
	svc.Labels = labels
	svc.Printer = printer
	svc.Now = func() time.Time { return time.Date(2025, 5, 15, 10, 30, 0, 0, time.UTC) }
	return env, svc, labels, printer
}

func TestReprintValidation(t *testing.T) {
	_, svc, _, _ := newReprintEnv(t)

	tests := []struct {
		name string
		req  models.ReprintRequest
		err  error
	}{
		{"no product", models.ReprintRequest{Quantity: 5, OperatorClockNum: "5997"}, ErrMissingReprintData},
		{"no quantity", models.ReprintRequest{ProductCode: "MEP9090150", OperatorClockNum: "5997"}, ErrMissingReprintData},
		{"no operator", models.ReprintRequest{ProductCode: "MEP9090150", Quantity: 5}, ErrMissingReprintData},
		{"unknown product", models.ReprintRequest{ProductCode: "ZZZ", Quantity: 5, OperatorClockNum: "5997"}, ErrProductNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Reprint(context.Background(), tt.req); !errors.Is(err, tt.err) {
				t.Errorf("Expected %v, got %v", tt.err, err)
			}
		})
	}
}

func TestReprintAfterPartialDamage(t *testing.T) {
	env, svc, labels, printer := newReprintEnv(t)
	seedPallet(env, "150525/5", "Finished QC", "Await", 40)
	dmg, err := env.void.ProcessDamage(context.Background(), testEmail, models.DamageRequest{
		PltNum: "150525/5", Password: testPassword, DamageQty: 15,
	})
	if err != nil {
		t.Fatalf("ProcessDamage failed: %v", err)
	}
	info := dmg.ReprintInfo

	env.db.nextPlt = 6
	res, err := svc.Reprint(context.Background(), models.ReprintRequest{
		ProductCode:      info.ProductCode,
		Quantity:         info.Quantity,
		OriginalPltNum:   info.OriginalPltNum,
		OriginalLocation: info.TargetLocation,
		SourceAction:     info.SourceAction,
		Reason:           info.Reason,
		OperatorClockNum: "5997",
	})
	if err != nil {
		t.Fatalf("Reprint failed: %v", err)
	}

	if res.NewPalletNumber != "150525/6" || res.FileName != "150525_6.pdf" || !res.Autoprint {
		t.Errorf("Unexpected result: %+v", res)
	}
	qc := res.QCInputData
	if qc.Quantity != 25 || qc.ProductDescription != "Envirocrate 90x90" || qc.WorkOrderNumber != "-" {
		t.Errorf("Unexpected QC data: %+v", qc)
	}

	p := env.db.pallets["150525/6"]
	if p == nil || p.Remark != "Auto-reprinted from 150525/5" || p.ProductQty != 25 {
		t.Fatalf("Unexpected new pallet: %+v", p)
	}

	ev := env.db.lastEvent("150525/6", models.ActionAutoReprint)
	if ev == nil || ev.Location != "Pipeline" || ev.OperatorID == nil || *ev.OperatorID != 5997 {
		t.Errorf("Unexpected reprint history: %+v", ev)
	}

	last := env.db.deltas[len(env.db.deltas)-1]
	if last.PltNum != "150525/6" || last.Buckets[models.BucketAwait] != 25 {
		t.Errorf("Expected await +25 for new pallet, got %+v", last)
	}

	dmgEvent := env.db.lastEvent("150525/5", models.ActionPartiallyDamaged)
	if !strings.HasSuffix(dmgEvent.Remark, "Reprinted as 150525/6") {
		t.Errorf("Expected damage remark linked, got %s", dmgEvent.Remark)
	}

	lastOp := env.db.stockOps[len(env.db.stockOps)-1]
	if lastOp != (stockOp{"MEP9090150", -25, "auto_reprint"}) {
		t.Errorf("Unexpected stock op: %+v", lastOp)
	}

	if !bytes.HasPrefix(labels.files["150525_6.pdf"], []byte("%PDF")) {
		t.Error("Expected uploaded label PDF")
	}
	if res.PDFURL != "https://labels.test/labels/150525_6.pdf" || env.db.pdfURLs["150525/6"] != res.PDFURL {
		t.Errorf("Expected pdf_url saved, got %q", res.PDFURL)
	}
	if !res.Printed || len(printer.printed) != 1 {
		t.Errorf("Expected label printed once, got %v", printer.printed)
	}

	n := env.notifier.events
	if n[len(n)-1] != "Auto Reprint:150525/6" {
		t.Errorf("Expected reprint notification, got %v", n)
	}
}

func TestReprintCarriesWorkOrder(t *testing.T) {
	env, svc, _, _ := newReprintEnv(t)
	seedPallet(env, "150525/1", "ACO Ref: 880", "Pipeline", 40)
	env.db.nextPlt = 2

	res, err := svc.Reprint(context.Background(), models.ReprintRequest{
		ProductCode: "MEP9090150", Quantity: 40, OriginalPltNum: "150525/1",
		OriginalLocation: "Pipeline", TargetLocation: "Prebook", OperatorClockNum: "5997",
	})
	if err != nil {
		t.Fatalf("Reprint failed: %v", err)
	}
	if res.QCInputData.WorkOrderNumber != "880" {
		t.Errorf("Expected work order 880, got %s", res.QCInputData.WorkOrderNumber)
	}
	if ev := env.db.lastEvent(res.NewPalletNumber, models.ActionAutoReprint); ev.Location != "Prebook" {
		t.Errorf("Expected target Prebook, got %s", ev.Location)
	}
	if env.db.deltas[0].Buckets[models.BucketPipeline] != 40 {
		t.Errorf("Expected pipeline +40, got %+v", env.db.deltas[0].Buckets)
	}
}

func TestReprintLabelFailuresAreBestEffort(t *testing.T) {
	env, svc, labels, printer := newReprintEnv(t)
	labels.failPut = errBoom
	printer.fail = errBoom

	res, err := svc.Reprint(context.Background(), models.ReprintRequest{
		ProductCode: "MEP9090150", Quantity: 10, OperatorClockNum: "5997",
	})
	if err != nil {
		t.Fatalf("Reprint failed: %v", err)
	}
	if res.PDFURL != "" || res.Printed {
		t.Errorf("Expected no URL and not printed, got %+v", res)
	}
	if _, ok := env.db.pallets[res.NewPalletNumber]; !ok {
		t.Error("Expected pallet created despite label failures")
	}
}

func TestReprintCreateFailure(t *testing.T) {
	env, svc, _, _ := newReprintEnv(t)
	env.db.failCreate = errBoom

	_, err := svc.Reprint(context.Background(), models.ReprintRequest{
		ProductCode: "MEP9090150", Quantity: 10, OperatorClockNum: "5997",
	})
	if err == nil || !strings.HasPrefix(err.Error(), "Auto reprint failed") {
		t.Fatalf("Expected create failure, got %v", err)
	}
	if len(env.db.errorLogs) != 1 {
		t.Errorf("Expected report_log row, got %d", len(env.db.errorLogs))
	}
}

func TestLabelPDF(t *testing.T) {
	env, svc, labels, _ := newReprintEnv(t)
	seedPallet(env, "150525/1", "", "Await", 40)
	seedPallet(env, "150525/2", "", "Await", 40)
	labels.files["150525_1.pdf"] = []byte("%PDF-stored")

	data, err := svc.LabelPDF(context.Background(), "150525/1")
	if err != nil || string(data) != "%PDF-stored" {
		t.Errorf("Expected stored label, got %q (%v)", data, err)
	}

	data, err = svc.LabelPDF(context.Background(), "150525/2")
	if err != nil {
		t.Fatalf("LabelPDF failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("Expected rendered PDF")
	}

	if _, err := svc.LabelPDF(context.Background(), "150525/9"); !errors.Is(err, ErrPalletNotFound) {
		t.Errorf("Expected ErrPalletNotFound, got %v", err)
	}
}

func TestLabelFileName(t *testing.T) {
	if got := LabelFileName("250525/13"); got != "250525_13.pdf" {
		t.Errorf("Expected 250525_13.pdf, got %s", got)
	}
}

func TestPrintLabel(t *testing.T) {
	env, svc, _, printer := newReprintEnv(t)
	seedPallet(env, "150525/1", "", "Await", 40)

	if err := svc.PrintLabel(context.Background(), "150525/1", 2); err != nil {
		t.Fatalf("PrintLabel failed: %v", err)
	}
	if len(printer.printed) != 1 || printer.printed[0] != "150525_1.pdf" {
		t.Errorf("Expected 150525_1.pdf printed, got %v", printer.printed)
	}

	if err := svc.PrintLabel(context.Background(), "150525/9", 1); !errors.Is(err, ErrPalletNotFound) {
		t.Errorf("Expected ErrPalletNotFound, got %v", err)
	}

	printer.fail = errors.New("printer offline")
	if err := svc.PrintLabel(context.Background(), "150525/1", 1); err == nil || !strings.Contains(err.Error(), "printer offline") {
		t.Errorf("Expected printer error, got %v", err)
	}

	svc.Printer = nil
	if err := svc.PrintLabel(context.Background(), "150525/1", 1); !errors.Is(err, ErrPrinterDisabled) {
		t.Errorf("Expected ErrPrinterDisabled, got %v", err)
	}
}
