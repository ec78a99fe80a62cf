package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPProvider talks JSON to a checkout service. It covers the common shape
// of hosted-checkout APIs: POST to open a transaction, GET to verify one,
// bearer-token auth on both.
type HTTPProvider struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

func NewHTTPProvider(baseURL, secretKey string) *HTTPProvider {
	return &HTTPProvider{
		baseURL:   baseURL,
		secretKey: secretKey,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

type initiateRequest struct {
	Reference   string `json:"reference"`
	Amount      int64  `json:"amount"`
	Email       string `json:"email"`
	CallbackURL string `json:"callback_url"`
}

type initiateResponse struct {
	Status bool `json:"status"`
	Data   struct {
		AuthorizationURL string `json:"authorization_url"`
	} `json:"data"`
	Message string `json:"message"`
}

type verifyResponse struct {
	Status bool `json:"status"`
	Data   struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
		Amount    int64  `json:"amount"`
		Channel   string `json:"channel"`
	} `json:"data"`
	Message string `json:"message"`
}

func (p *HTTPProvider) InitiateCheckout(ctx context.Context, req CheckoutRequest) (string, error) {
	body, err := json.Marshal(initiateRequest{
		Reference:   req.Reference,
		Amount:      req.Amount,
		Email:       req.Email,
		CallbackURL: req.CallbackURL,
	})
	if err != nil {
		return "", err
	}

	var resp initiateResponse
	if err := p.do(ctx, http.MethodPost, "/transaction/initialize", bytes.NewReader(body), &resp); err != nil {
		return "", err
	}
	if !resp.Status || resp.Data.AuthorizationURL == "" {
		return "", fmt.Errorf("checkout rejected: %s", resp.Message)
	}
	return resp.Data.AuthorizationURL, nil
}

func (p *HTTPProvider) VerifyReference(ctx context.Context, reference string) (*VerificationResult, error) {
	var resp verifyResponse
	path := "/transaction/verify/" + url.PathEscape(reference)
	if err := p.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Status {
		return nil, fmt.Errorf("verification rejected: %s", resp.Message)
	}

	return &VerificationResult{
		Reference: resp.Data.Reference,
		Paid:      resp.Data.Status == "success",
		Amount:    resp.Data.Amount,
		Channel:   resp.Data.Channel,
	}, nil
}

func (p *HTTPProvider) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("checkout provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("checkout provider error: %s; body: %s", resp.Status, string(b))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
