package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type PrinterService struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
}

type PrintResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewPrinterService returns nil when no printer URL is configured
func NewPrinterService(baseURL string, timeout time.Duration) *PrinterService {
	if baseURL == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PrinterService{
		client:  &http.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

// PrintPDF sends a label PDF to the print server. The call is bounded by
// the service timeout and by ctx.
func (s *PrinterService) PrintPDF(ctx context.Context, fileName string, pdf []byte, copies int) error {
	if copies < 1 {
		copies = 1
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/print-pdf?copies=%d&name=%s", s.baseURL, copies, fileName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(pdf))
	if err != nil {
		return fmt.Errorf("failed to build print request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send print request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("print server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var printResp PrintResponse
	if err := json.NewDecoder(resp.Body).Decode(&printResp); err != nil {
		return fmt.Errorf("failed to decode print response: %w", err)
	}

	if !printResp.Success {
		return fmt.Errorf("print failed: %s", printResp.Message)
	}

	return nil
}
