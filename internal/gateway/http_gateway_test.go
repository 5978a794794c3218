package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shouyin-pos/internal/constants"
	"github.com/shouyin-pos/internal/models"

	"github.com/shopspring/decimal"
)

func TestSubmitSendsIdempotencyKeyAndParsesAck(t *testing.T) {
	var gotKey, gotDevice, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Idempotency-Key")
		gotDevice = r.Header.Get("X-Device-ID")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"server_id":"srv-42"}`))
	}))
	defer server.Close()

	gw, err := NewHTTPGateway(Config{BaseURL: server.URL, DeviceID: "till-1"})
	if err != nil {
		t.Fatalf("new gateway failed: %v", err)
	}

	ack, err := gw.Submit(context.Background(), Operation{
		Kind:           constants.OpKindCreateSale,
		LocalID:        "sale-1",
		IdempotencyKey: "key-123",
		Payload:        models.JSON{"local_id": "sale-1"},
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if ack.ServerID != "srv-42" {
		t.Fatalf("server id want srv-42 got %s", ack.ServerID)
	}
	if gotKey != "key-123" {
		t.Fatalf("idempotency key want key-123 got %s", gotKey)
	}
	if gotDevice != "till-1" {
		t.Fatalf("device id want till-1 got %s", gotDevice)
	}
	if gotPath != "/api/pos/v1/sales" {
		t.Fatalf("path want /api/pos/v1/sales got %s", gotPath)
	}
}

func TestSubmitServerErrorIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	gw, err := NewHTTPGateway(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new gateway failed: %v", err)
	}

	_, err = gw.Submit(context.Background(), Operation{
		Kind:           constants.OpKindCreateSale,
		IdempotencyKey: "key-1",
	})
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("want ErrGatewayUnavailable got %v", err)
	}
}

func TestSubmitBusinessRejectionIsTerminal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"duplicate receipt"}`))
	}))
	defer server.Close()

	gw, err := NewHTTPGateway(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new gateway failed: %v", err)
	}

	_, err = gw.Submit(context.Background(), Operation{
		Kind:           constants.OpKindCreateReturn,
		IdempotencyKey: "key-1",
	})
	if !errors.Is(err, ErrGatewayRejected) {
		t.Fatalf("want ErrGatewayRejected got %v", err)
	}
}

func TestSubmitUnreachableHostIsRetryable(t *testing.T) {
	gw, err := NewHTTPGateway(Config{BaseURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("new gateway failed: %v", err)
	}

	_, err = gw.Submit(context.Background(), Operation{
		Kind:           constants.OpKindAddPayment,
		IdempotencyKey: "key-1",
	})
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("want ErrGatewayUnavailable got %v", err)
	}
}

func TestSubmitUnknownKindRejected(t *testing.T) {
	gw, err := NewHTTPGateway(Config{BaseURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("new gateway failed: %v", err)
	}

	_, err = gw.Submit(context.Background(), Operation{Kind: "mystery"})
	if !errors.Is(err, ErrGatewayRejected) {
		t.Fatalf("want ErrGatewayRejected got %v", err)
	}
}

func TestFetchSettings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/pos/v1/settings" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"settings":{"tax_config":"{\"default_rate\":\"0.15\"}"}}`))
	}))
	defer server.Close()

	gw, err := NewHTTPGateway(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new gateway failed: %v", err)
	}

	settings, err := gw.FetchSettings(context.Background())
	if err != nil {
		t.Fatalf("fetch settings failed: %v", err)
	}
	if settings["tax_config"] == "" {
		t.Fatalf("tax_config setting missing")
	}
}

func TestFetchCustomer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/pos/v1/customers/member-42" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"customer_ref":"member-42","credit_balance":"120.50"}`))
	}))
	defer server.Close()

	gw, err := NewHTTPGateway(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new gateway failed: %v", err)
	}

	customer, err := gw.FetchCustomer(context.Background(), "member-42")
	if err != nil {
		t.Fatalf("fetch customer failed: %v", err)
	}
	if customer.CustomerRef != "member-42" {
		t.Fatalf("unexpected customer_ref %q", customer.CustomerRef)
	}
	if !customer.CreditBalance.Equal(decimal.RequireFromString("120.50")) {
		t.Fatalf("unexpected balance %s", customer.CreditBalance)
	}
}
