package billing

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

// PayRequest carries one purchase attempt to the provider. RequestID is the
// client-generated id every later status query is keyed on.
type PayRequest struct {
	RequestID     string `json:"request_id"`
	ServiceID     string `json:"serviceID"`
	Amount        int64  `json:"amount"`
	Recipient     string `json:"billersCode"`
	VariationCode string `json:"variation_code,omitempty"`
	Phone         string `json:"phone,omitempty"`
}

type RecipientInfo struct {
	Name    string `json:"Customer_Name"`
	Address string `json:"Address"`
}

// Client talks to the billing provider. A non-nil error means the outcome is
// unknown at the transport level (timeout, connection reset, bad body) and
// must be treated as ambiguous, never as a failure.
type Client interface {
	Pay(ctx context.Context, req PayRequest) (*ProviderResult, error)
	QueryStatus(ctx context.Context, requestID string) (*ProviderResult, error)
	VerifyRecipient(ctx context.Context, serviceID, recipient string) (*RecipientInfo, error)
}

type httpClient struct {
	baseURL   string
	apiKey    string
	secretKey string
	client    *http.Client
	log       log.Log
}

func NewClient(v *viper.Viper, logger log.Log) Client {
	timeout := v.GetDuration("billing.timeout")
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &httpClient{
		baseURL:   v.GetString("billing.base_url"),
		apiKey:    v.GetString("billing.api_key"),
		secretKey: v.GetString("billing.secret_key"),
		client:    &http.Client{Timeout: timeout},
		log:       logger,
	}
}

func (c *httpClient) Pay(ctx context.Context, req PayRequest) (*ProviderResult, error) {
	var result ProviderResult
	if err := c.post(ctx, "/api/pay", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *httpClient) QueryStatus(ctx context.Context, requestID string) (*ProviderResult, error) {
	body := map[string]string{"request_id": requestID}
	var result ProviderResult
	if err := c.post(ctx, "/api/requery", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *httpClient) VerifyRecipient(ctx context.Context, serviceID, recipient string) (*RecipientInfo, error) {
	body := map[string]string{"serviceID": serviceID, "billersCode": recipient}
	var wrapper struct {
		Code    string        `json:"code"`
		Content RecipientInfo `json:"content"`
	}
	if err := c.post(ctx, "/api/merchant-verify", body, &wrapper); err != nil {
		return nil, err
	}
	if wrapper.Code != CodeDelivered {
		return nil, fmt.Errorf("recipient verification rejected: code %s", wrapper.Code)
	}
	return &wrapper.Content, nil
}

func (c *httpClient) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("secret-key", c.secretKey)

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Error("billing-gateway", fmt.Sprintf("request failed: %v", err), path, "")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.log.Error("billing-gateway", fmt.Sprintf("malformed response body: %v", err), path, "")
		return err
	}

	return nil
}
