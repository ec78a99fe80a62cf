package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitiateCheckout(t *testing.T) {
	var gotAuth string
	var gotReq initiateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transaction/initialize", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data":   map[string]any{"authorization_url": "https://checkout.example/pay/abc"},
		})
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "sk_test")
	url, err := p.InitiateCheckout(context.Background(), CheckoutRequest{
		Reference:   "ref-1",
		Amount:      150000,
		Email:       "user@example.com",
		CallbackURL: "https://app.example/return",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example/pay/abc", url)
	assert.Equal(t, "Bearer sk_test", gotAuth)
	assert.Equal(t, "ref-1", gotReq.Reference)
	assert.Equal(t, int64(150000), gotReq.Amount)
}

func TestInitiateCheckoutRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": false, "message": "invalid amount"})
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "sk_test")
	_, err := p.InitiateCheckout(context.Background(), CheckoutRequest{Reference: "ref-1"})
	assert.ErrorContains(t, err, "invalid amount")
}

func TestVerifyReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transaction/verify/ref-1", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data": map[string]any{
				"reference": "ref-1",
				"status":    "success",
				"amount":    150000,
				"channel":   "card",
			},
		})
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "sk_test")
	res, err := p.VerifyReference(context.Background(), "ref-1")
	require.NoError(t, err)
	assert.True(t, res.Paid)
	assert.Equal(t, int64(150000), res.Amount)
	assert.Equal(t, "card", res.Channel)
}

func TestVerifyReferenceFailedPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data":   map[string]any{"reference": "ref-1", "status": "abandoned"},
		})
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "sk_test")
	res, err := p.VerifyReference(context.Background(), "ref-1")
	require.NoError(t, err)
	assert.False(t, res.Paid)
}

func TestProviderHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such transaction", http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "sk_test")
	_, err := p.VerifyReference(context.Background(), "ghost")
	assert.ErrorContains(t, err, "checkout provider error")
}
