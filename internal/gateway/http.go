package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"inscrito/internal/platform/metrics"
	dErrors "inscrito/pkg/domain-errors"
)

const dateLayout = "2006-01-02"

// HTTPClient implements Client against an Asaas-style REST API. The provider
// authenticates with a static token header and reports money amounts as
// decimal reais, converted at this boundary so integer centavos never leak
// a float into the domain.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type HTTPOption func(*HTTPClient)

func WithHTTPTimeout(d time.Duration) HTTPOption {
	return func(c *HTTPClient) { c.http.Timeout = d }
}

func WithLogger(logger *slog.Logger) HTTPOption {
	return func(c *HTTPClient) { c.logger = logger }
}

func WithMetrics(m *metrics.Metrics) HTTPOption {
	return func(c *HTTPClient) { c.metrics = m }
}

func NewHTTPClient(baseURL, apiKey string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type customerPayload struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	CPFCNPJ string `json:"cpfCnpj"`
	Phone   string `json:"mobilePhone,omitempty"`
}

type customerListPayload struct {
	Data []customerPayload `json:"data"`
}

type chargePayload struct {
	ID                string  `json:"id,omitempty"`
	Customer          string  `json:"customer"`
	BillingType       string  `json:"billingType"`
	Value             float64 `json:"value"`
	DueDate           string  `json:"dueDate"`
	Description       string  `json:"description,omitempty"`
	ExternalReference string  `json:"externalReference,omitempty"`
	Status            string  `json:"status,omitempty"`
	PaymentDate       *string `json:"paymentDate,omitempty"`
	InvoiceURL        string  `json:"invoiceUrl,omitempty"`
	BankSlipURL       string  `json:"bankSlipUrl,omitempty"`
}

type pixQRCodePayload struct {
	Payload      string `json:"payload"`
	EncodedImage string `json:"encodedImage"`
}

// FindOrCreateCustomer looks the person up by tax id and creates the record
// when absent. The provider treats cpfCnpj as a natural key.
func (c *HTTPClient) FindOrCreateCustomer(ctx context.Context, req CustomerRequest) (string, error) {
	var list customerListPayload
	query := url.Values{"cpfCnpj": {req.CPF}}
	if err := c.do(ctx, http.MethodGet, "/customers?"+query.Encode(), nil, &list); err != nil {
		return "", err
	}
	if len(list.Data) > 0 {
		return list.Data[0].ID, nil
	}

	var created customerPayload
	err := c.do(ctx, http.MethodPost, "/customers", customerPayload{
		Name:    req.Name,
		Email:   req.Email,
		CPFCNPJ: req.CPF,
		Phone:   req.Phone,
	}, &created)
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

func (c *HTTPClient) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	var created chargePayload
	err := c.do(ctx, http.MethodPost, "/payments", chargePayload{
		Customer:          req.CustomerID,
		BillingType:       req.BillingType,
		Value:             float64(req.AmountCentavos) / 100,
		DueDate:           req.DueDate.Format(dateLayout),
		Description:       req.Description,
		ExternalReference: req.ExternalReference,
	}, &created)
	if err != nil {
		return nil, err
	}
	return &Charge{
		ID:          created.ID,
		Status:      created.Status,
		InvoiceURL:  created.InvoiceURL,
		BankSlipURL: created.BankSlipURL,
	}, nil
}

func (c *HTTPClient) GetPixQRCode(ctx context.Context, chargeID string) (*PixQRCode, error) {
	var qr pixQRCodePayload
	if err := c.do(ctx, http.MethodGet, "/payments/"+url.PathEscape(chargeID)+"/pixQrCode", nil, &qr); err != nil {
		return nil, err
	}
	return &PixQRCode{Payload: qr.Payload, EncodedImage: qr.EncodedImage}, nil
}

func (c *HTTPClient) GetPayment(ctx context.Context, chargeID string) (*ChargeStatus, error) {
	var charge chargePayload
	if err := c.do(ctx, http.MethodGet, "/payments/"+url.PathEscape(chargeID), nil, &charge); err != nil {
		return nil, err
	}
	status := &ChargeStatus{Status: charge.Status}
	if charge.PaymentDate != nil && *charge.PaymentDate != "" {
		if t, err := time.Parse(dateLayout, *charge.PaymentDate); err == nil {
			status.PaymentDate = &t
		}
	}
	return status, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode gateway request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("access_token", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.countError()
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "payment gateway unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.countError()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.logger.WarnContext(ctx, "gateway request failed",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"body", string(raw),
		)
		return dErrors.Newf(dErrors.CodeUnavailable, "payment gateway returned status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.countError()
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "malformed gateway response")
		}
	}
	return nil
}

func (c *HTTPClient) countError() {
	if c.metrics != nil {
		c.metrics.GatewayErrors.Inc()
	}
}
