package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// Order is a gateway order created before checkout. Amount is in minor units.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// GatewayPayment is the gateway's own record of a payment. Amount is in minor units.
type GatewayPayment struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Method   string `json:"method"`
	Status   string `json:"status"`
}

// Gateway is the payment provider API used by the verifier.
type Gateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (Order, error)
	FetchPayment(ctx context.Context, paymentID string) (GatewayPayment, error)
}

// RazorpayGateway talks to the Razorpay REST API with basic auth.
type RazorpayGateway struct {
	client *resty.Client
}

type razorpayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func NewRazorpayGateway(baseURL, keyID, keySecret string) *RazorpayGateway {
	client := resty.New().
		SetBaseURL(baseURL).
		SetBasicAuth(keyID, keySecret).
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetHeader("Content-Type", "application/json")
	return &RazorpayGateway{client: client}
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (Order, error) {
	var order Order
	var apiErr razorpayError
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"amount":   amount,
			"currency": currency,
			"receipt":  receipt,
		}).
		SetResult(&order).
		SetError(&apiErr).
		Post("/orders")
	if err != nil {
		return Order{}, errors.Wrap(err, "razorpay create order")
	}
	if resp.IsError() {
		return Order{}, errors.Errorf("razorpay create order (%d): %s", resp.StatusCode(), apiErr.Error.Description)
	}
	return order, nil
}

func (g *RazorpayGateway) FetchPayment(ctx context.Context, paymentID string) (GatewayPayment, error) {
	var p GatewayPayment
	var apiErr razorpayError
	resp, err := g.client.R().
		SetContext(ctx).
		SetPathParam("id", paymentID).
		SetResult(&p).
		SetError(&apiErr).
		Get("/payments/{id}")
	if err != nil {
		return GatewayPayment{}, errors.Wrap(err, "razorpay fetch payment")
	}
	if resp.IsError() {
		return GatewayPayment{}, errors.Errorf("razorpay fetch payment (%d): %s", resp.StatusCode(), apiErr.Error.Description)
	}
	return p, nil
}

// Signature is the hex HMAC-SHA256 of "<orderID>|<paymentID>" under the gateway secret.
func Signature(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares in constant time.
func VerifySignature(secret, orderID, paymentID, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := Signature(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
