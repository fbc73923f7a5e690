package agentpay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
)

func TestAnalyticsGetRevenue(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/analytics/revenue" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		query := r.URL.Query()
		if query.Get("start_date") != "2026-01-01" || query.Get("end_date") != "2026-01-31" {
			t.Fatalf("unexpected query %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(RevenueReport{
			TotalRevenueUSD: 1234.5, TransactionCount: 41, AverageTransactionUSD: 30.11,
		})
	}))

	report, err := client.Analytics.GetRevenue(context.Background(), "2026-01-01", "2026-01-31")
	if err != nil {
		t.Fatalf("get revenue: %v", err)
	}
	if report.TotalRevenueUSD != 1234.5 || report.TransactionCount != 41 {
		t.Fatalf("unexpected report %+v", report)
	}

	var valErr *ValidationError
	if _, err := client.Analytics.GetRevenue(context.Background(), "", "2026-01-31"); !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError for missing start date, got %v", err)
	}
}

func TestAnalyticsListTransactions(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/analytics/transactions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		query := r.URL.Query()
		if query.Get("limit") != "25" || query.Get("offset") != "50" {
			t.Fatalf("unexpected query %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(TransactionPage{
			Transactions: []VerificationRecord{{TxHash: testTxHash, Status: PaymentStatusCompleted}},
			Total:        120, Limit: 25, Offset: 50,
		})
	}))

	page, err := client.Analytics.ListTransactions(context.Background(), 25, 50)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if page.Total != 120 || len(page.Transactions) != 1 {
		t.Fatalf("unexpected page %+v", page)
	}
	if page.Transactions[0].TxHash != testTxHash {
		t.Fatalf("unexpected transaction %+v", page.Transactions[0])
	}
}
