// Package midtrans is the Snap gateway adapter.
package midtrans

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/smallbiznis/hirehub/internal/payment/domain"
)

const (
	ProviderName = "midtrans"

	SandboxBaseURL    = "https://app.sandbox.midtrans.com"
	ProductionBaseURL = "https://app.midtrans.com"

	transactionsPath = "/snap/v1/transactions"
	defaultTimeout   = 15 * time.Second
	maxResponseBytes = 1 << 20
)

type Config struct {
	ServerKey    string
	IsProduction bool
	// BaseURL takes precedence over IsProduction when set.
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	serverKey string
	baseURL   string
	timeout   time.Duration
	http      *http.Client
}

// NewClient builds a Snap client. httpClient may be nil.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	serverKey := strings.TrimSpace(cfg.ServerKey)
	if serverKey == "" {
		return nil, errors.New("midtrans: server key is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = SandboxBaseURL
		if cfg.IsProduction {
			baseURL = ProductionBaseURL
		}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		serverKey: serverKey,
		baseURL:   baseURL,
		timeout:   timeout,
		http:      httpClient,
	}, nil
}

func (c *Client) Name() string { return ProviderName }

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) CreateTransaction(ctx context.Context, req domain.ChargeRequest) (*domain.ChargeResponse, error) {
	body, err := json.Marshal(newSnapRequest(req))
	if err != nil {
		return nil, fmt.Errorf("midtrans: encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+transactionsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("midtrans: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.SetBasicAuth(c.serverKey, "")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, domain.ErrGatewayTimeout
		}
		return nil, &domain.GatewayError{Provider: ProviderName, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if isTimeout(err) {
			return nil, domain.ErrGatewayTimeout
		}
		return nil, &domain.GatewayError{Provider: ProviderName, StatusCode: resp.StatusCode, Message: err.Error()}
	}

	var decoded snapResponse
	_ = json.Unmarshal(raw, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.GatewayError{
			Provider:   ProviderName,
			StatusCode: resp.StatusCode,
			Message:    decoded.message(resp.StatusCode),
		}
	}
	if strings.TrimSpace(decoded.Token) == "" || strings.TrimSpace(decoded.RedirectURL) == "" {
		return nil, &domain.GatewayError{
			Provider:   ProviderName,
			StatusCode: resp.StatusCode,
			Message:    "response missing token or redirect_url",
		}
	}

	return &domain.ChargeResponse{
		Token:       decoded.Token,
		RedirectURL: decoded.RedirectURL,
	}, nil
}

func (c *Client) VerifySignature(n domain.Notification) bool {
	return VerifySignature(n, c.serverKey)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

type snapRequest struct {
	TransactionDetails transactionDetails `json:"transaction_details"`
	ItemDetails        []itemDetail       `json:"item_details,omitempty"`
	CustomerDetails    *customerDetails   `json:"customer_details,omitempty"`
	Callbacks          *callbacks         `json:"callbacks,omitempty"`
}

type transactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

type itemDetail struct {
	ID       string `json:"id,omitempty"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Name     string `json:"name"`
}

type customerDetails struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type callbacks struct {
	Finish   string `json:"finish,omitempty"`
	Unfinish string `json:"unfinish,omitempty"`
	Error    string `json:"error,omitempty"`
}

type snapResponse struct {
	Token         string   `json:"token"`
	RedirectURL   string   `json:"redirect_url"`
	ErrorMessages []string `json:"error_messages"`
	StatusMessage string   `json:"status_message"`
}

func (r snapResponse) message(statusCode int) string {
	if len(r.ErrorMessages) > 0 {
		return strings.Join(r.ErrorMessages, "; ")
	}
	if r.StatusMessage != "" {
		return r.StatusMessage
	}
	return http.StatusText(statusCode)
}

func newSnapRequest(req domain.ChargeRequest) snapRequest {
	out := snapRequest{
		TransactionDetails: transactionDetails{
			OrderID:     req.OrderID,
			GrossAmount: req.GrossAmount.Int64(),
		},
	}
	if req.Item.Name != "" {
		qty := req.Item.Quantity
		if qty <= 0 {
			qty = 1
		}
		out.ItemDetails = []itemDetail{{
			ID:       req.Item.ID,
			Price:    req.Item.Price.Int64(),
			Quantity: qty,
			Name:     truncate(req.Item.Name, 50),
		}}
	}
	if req.Customer != (domain.Customer{}) {
		out.CustomerDetails = &customerDetails{
			FirstName: req.Customer.FirstName,
			LastName:  req.Customer.LastName,
			Email:     req.Customer.Email,
			Phone:     req.Customer.Phone,
		}
	}
	if req.Callbacks != (domain.Callbacks{}) {
		out.Callbacks = &callbacks{
			Finish:   req.Callbacks.Finish,
			Unfinish: req.Callbacks.Pending,
			Error:    req.Callbacks.Error,
		}
	}
	return out
}

// truncate cuts s to at most n runes; Snap rejects long item names.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
