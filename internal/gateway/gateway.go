// Package gateway talks to the external payment provider. The rest of the
// system depends on the Client interface only; the provider's HTTP API is an
// implementation detail of this package.
package gateway

import (
	"context"
	"time"
)

//go:generate mockgen -source=gateway.go -destination=mocks/mocks.go -package=mocks Client

// CustomerRequest identifies the paying person on the provider side.
type CustomerRequest struct {
	Name  string
	Email string
	CPF   string
	Phone string
}

// ChargeRequest asks the provider to collect an amount. ExternalReference is
// the correlation key echoed back on webhooks.
type ChargeRequest struct {
	CustomerID        string
	BillingType       string
	AmountCentavos    int64
	DueDate           time.Time
	Description       string
	ExternalReference string
}

// Charge is the provider's record of a collection attempt.
type Charge struct {
	ID          string
	Status      string
	InvoiceURL  string
	BankSlipURL string
}

// PixQRCode carries the instant-transfer payload and its rendered QR image.
type PixQRCode struct {
	Payload      string
	EncodedImage string
}

// ChargeStatus is the provider's current view of a charge, used by the
// pull-based reconciliation path.
type ChargeStatus struct {
	Status      string
	PaymentDate *time.Time
}

// Client is the payment-provider boundary.
type Client interface {
	FindOrCreateCustomer(ctx context.Context, req CustomerRequest) (string, error)
	CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error)
	GetPixQRCode(ctx context.Context, chargeID string) (*PixQRCode, error)
	GetPayment(ctx context.Context, chargeID string) (*ChargeStatus, error)
}

// BillingTypePix is the provider vocabulary for instant transfer.
const BillingTypePix = "PIX"
