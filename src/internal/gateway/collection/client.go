package collection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"wallet-service/src/pkg/log"

	"github.com/spf13/viper"
)

// Verify statuses reported by the payment-collection provider.
const (
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
	StatusPending   = "pending"
)

type InitializeResult struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
}

type VerifyResult struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
}

// Client wraps the payment-collection provider used for wallet top-ups.
// Credits are only granted on a Verify result, never on the initialize
// response or a client-reported payment event.
type Client interface {
	Initialize(ctx context.Context, email string, amount int64) (*InitializeResult, error)
	Verify(ctx context.Context, reference string) (*VerifyResult, error)
}

type httpClient struct {
	baseURL   string
	secretKey string
	client    *http.Client
	log       log.Log
}

func NewClient(v *viper.Viper, logger log.Log) Client {
	timeout := v.GetDuration("collection.timeout")
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &httpClient{
		baseURL:   v.GetString("collection.base_url"),
		secretKey: v.GetString("collection.secret_key"),
		client:    &http.Client{Timeout: timeout},
		log:       logger,
	}
}

func (c *httpClient) Initialize(ctx context.Context, email string, amount int64) (*InitializeResult, error) {
	body := map[string]interface{}{
		"email":  email,
		"amount": amount,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transaction/initialize", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	var wrapper struct {
		Status bool             `json:"status"`
		Data   InitializeResult `json:"data"`
	}
	if err := c.do(req, &wrapper); err != nil {
		return nil, err
	}
	if !wrapper.Status || wrapper.Data.Reference == "" {
		return nil, fmt.Errorf("collection provider rejected initialize")
	}

	return &wrapper.Data, nil
}

func (c *httpClient) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transaction/verify/"+reference, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	var wrapper struct {
		Status bool         `json:"status"`
		Data   VerifyResult `json:"data"`
	}
	if err := c.do(req, &wrapper); err != nil {
		return nil, err
	}
	if wrapper.Data.Reference == "" {
		wrapper.Data.Reference = reference
	}

	return &wrapper.Data, nil
}

func (c *httpClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")
}

func (c *httpClient) do(req *http.Request, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Error("collection-gateway", fmt.Sprintf("request failed: %v", err), req.URL.Path, "")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.log.Error("collection-gateway", fmt.Sprintf("malformed response body: %v", err), req.URL.Path, "")
		return err
	}

	return nil
}
