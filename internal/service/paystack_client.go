package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type InitializeRequest struct {
	Email       string
	Amount      int64
	Reference   string
	PlanCode    string
	CallbackURL string
	Metadata    map[string]string
}

type InitializeResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// VerifiedTransaction is the subset of /transaction/verify used for crediting.
type VerifiedTransaction struct {
	Reference         string
	Status            string
	Amount            int64
	CustomerCode      string
	CustomerEmail     string
	PlanCode          string
	AuthorizationCode string
	Metadata          map[string]string
}

type SubscriptionDetails struct {
	Code       string `json:"subscription_code"`
	EmailToken string `json:"email_token"`
	Status     string `json:"status"`
}

// PaystackClient is the subset of the Paystack REST API the billing flow uses.
type PaystackClient interface {
	InitializeTransaction(ctx context.Context, req InitializeRequest) (*InitializeResult, error)
	VerifyTransaction(ctx context.Context, reference string) (*VerifiedTransaction, error)
	FetchSubscription(ctx context.Context, code string) (*SubscriptionDetails, error)
	DisableSubscription(ctx context.Context, code, emailToken string) error
	ManageLink(ctx context.Context, code string) (string, error)
}

type paystackClient struct {
	client    *http.Client
	baseURL   string
	secretKey string
}

func NewPaystackClient(baseURL, secretKey string) PaystackClient {
	return &paystackClient{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
	}
}

// envelope is the wrapper Paystack puts around every response.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *paystackClient) do(ctx context.Context, method, path string, body any, out any) error {
	if c.secretKey == "" {
		return errors.New("paystack secret key is not configured")
	}

	var reader io.Reader
	if body != nil {
		bodyJSON, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(bodyJSON)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create paystack request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("paystack %s %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read paystack response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("paystack %s %s: HTTP %d: undecodable response", method, path, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK || !env.Status {
		if env.Message != "" {
			return fmt.Errorf("paystack %s %s: %s", method, path, env.Message)
		}
		return fmt.Errorf("paystack %s %s: HTTP %d", method, path, resp.StatusCode)
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode paystack data: %w", err)
	}
	return nil
}

func (c *paystackClient) InitializeTransaction(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	body := map[string]any{
		"email":     req.Email,
		"amount":    strconv.FormatInt(req.Amount, 10),
		"reference": req.Reference,
	}
	if req.PlanCode != "" {
		body["plan"] = req.PlanCode
	}
	if req.CallbackURL != "" {
		body["callback_url"] = req.CallbackURL
	}
	if len(req.Metadata) > 0 {
		body["metadata"] = req.Metadata
	}

	var out InitializeResult
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *paystackClient) VerifyTransaction(ctx context.Context, reference string) (*VerifiedTransaction, error) {
	var out struct {
		Reference string          `json:"reference"`
		Status    string          `json:"status"`
		Amount    int64           `json:"amount"`
		Plan      json.RawMessage `json:"plan"`
		Customer  struct {
			CustomerCode string `json:"customer_code"`
			Email        string `json:"email"`
		} `json:"customer"`
		Authorization struct {
			AuthorizationCode string `json:"authorization_code"`
		} `json:"authorization"`
		PlanObject struct {
			PlanCode string `json:"plan_code"`
		} `json:"plan_object"`
		Metadata json.RawMessage `json:"metadata"`
	}
	if err := c.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &out); err != nil {
		return nil, err
	}

	planCode := out.PlanObject.PlanCode
	if planCode == "" {
		var s string
		if json.Unmarshal(out.Plan, &s) == nil {
			planCode = s
		}
	}

	return &VerifiedTransaction{
		Reference:         out.Reference,
		Status:            out.Status,
		Amount:            out.Amount,
		CustomerCode:      out.Customer.CustomerCode,
		CustomerEmail:     out.Customer.Email,
		PlanCode:          planCode,
		AuthorizationCode: out.Authorization.AuthorizationCode,
		Metadata:          stringMetadata(out.Metadata),
	}, nil
}

// stringMetadata keeps the string-valued entries of a metadata object. Paystack
// returns "" or 0 instead of an object when none was sent.
func stringMetadata(raw json.RawMessage) map[string]string {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

func (c *paystackClient) FetchSubscription(ctx context.Context, code string) (*SubscriptionDetails, error) {
	var out SubscriptionDetails
	if err := c.do(ctx, http.MethodGet, "/subscription/"+url.PathEscape(code), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *paystackClient) DisableSubscription(ctx context.Context, code, emailToken string) error {
	body := map[string]string{"code": code, "token": emailToken}
	return c.do(ctx, http.MethodPost, "/subscription/disable", body, nil)
}

func (c *paystackClient) ManageLink(ctx context.Context, code string) (string, error) {
	var out struct {
		Link string `json:"link"`
	}
	if err := c.do(ctx, http.MethodGet, "/subscription/"+url.PathEscape(code)+"/manage/link", nil, &out); err != nil {
		return "", err
	}
	return out.Link, nil
}
