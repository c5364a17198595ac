package services

import (
	"context"

	"github.com/sahilchouksey/coursecheckout-api/services/razorpay"
)

// IntentRequest asks the gateway for a payment intent. AmountMinor is in the
// smallest currency unit.
type IntentRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// Intent is a gateway payment intent
type Intent struct {
	ID          string
	AmountMinor int64
	Currency    string
}

// PaymentGateway is the external payment provider
type PaymentGateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	VerifySignature(intentID, providerPaymentID, signature string) bool
	KeyID() string
}

// RazorpayGateway adapts the Razorpay client to PaymentGateway
type RazorpayGateway struct {
	client *razorpay.Client
}

// NewRazorpayGateway creates a gateway backed by client
func NewRazorpayGateway(client *razorpay.Client) *RazorpayGateway {
	return &RazorpayGateway{client: client}
}

// CreateIntent creates a Razorpay order
func (g *RazorpayGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	order, err := g.client.CreateOrder(ctx, razorpay.OrderRequest{
		Amount:   req.AmountMinor,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		return nil, err
	}
	return &Intent{ID: order.ID, AmountMinor: order.Amount, Currency: order.Currency}, nil
}

// VerifySignature checks the checkout signature for an intent and payment
func (g *RazorpayGateway) VerifySignature(intentID, providerPaymentID, signature string) bool {
	return g.client.VerifyPaymentSignature(intentID, providerPaymentID, signature)
}

// KeyID returns the public key id
func (g *RazorpayGateway) KeyID() string {
	return g.client.KeyID()
}
