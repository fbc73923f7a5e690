package agentpay

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// AnalyticsService exposes merchant-side reporting. Pure pass-through over
// the transport; no protocol state.
type AnalyticsService struct {
	client *Client
}

// RevenueReport aggregates settled payments over a date range.
type RevenueReport struct {
	TotalRevenueUSD       float64 `json:"totalRevenueUsd"`
	TransactionCount      int     `json:"transactionCount"`
	AverageTransactionUSD float64 `json:"averageTransactionUsd"`
}

// TransactionPage is one page of settled transactions.
type TransactionPage struct {
	Transactions []VerificationRecord `json:"transactions"`
	Total        int                  `json:"total"`
	Limit        int                  `json:"limit"`
	Offset       int                  `json:"offset"`
}

// GetRevenue reports revenue between two YYYY-MM-DD dates, inclusive.
func (s *AnalyticsService) GetRevenue(ctx context.Context, startDate, endDate string) (*RevenueReport, error) {
	if startDate == "" {
		return nil, &ValidationError{Field: "start_date", Message: "is required"}
	}
	if endDate == "" {
		return nil, &ValidationError{Field: "end_date", Message: "is required"}
	}

	query := url.Values{}
	query.Set("start_date", startDate)
	query.Set("end_date", endDate)

	raw, _, err := s.client.request(ctx, http.MethodGet, "/api/analytics/revenue?"+query.Encode(), nil, nil)
	if err != nil {
		return nil, err
	}
	var report RevenueReport
	if err := decodeJSON(raw, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// ListTransactions pages through settled transactions, newest first.
func (s *AnalyticsService) ListTransactions(ctx context.Context, limit, offset int) (*TransactionPage, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}
	path := "/api/analytics/transactions"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	raw, _, err := s.client.request(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	var page TransactionPage
	if err := decodeJSON(raw, &page); err != nil {
		return nil, err
	}
	return &page, nil
}
