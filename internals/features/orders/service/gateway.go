package service

import (
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/shopspring/decimal"

	"examstore_backend/internals/configs"
)

/* =========================================================
   Payment gateways
   ========================================================= */

// GatewayResult is the payment handoff: a token the frontend opens
// plus the redirect URL.
type GatewayResult struct {
	Gateway     string
	Token       string
	RedirectURL string
}

// PaymentGateway creates an external payment session for an order.
type PaymentGateway interface {
	Name() string
	CreateTransaction(orderReference, customerEmail, customerName string, gross decimal.Decimal) (*GatewayResult, error)
}

var SnapClient snap.Client

// InitMidtrans must run at bootstrap before any checkout.
func InitMidtrans(serverKey string, useProduction bool) {
	if useProduction {
		SnapClient.New(serverKey, midtrans.Production)
	} else {
		SnapClient.New(serverKey, midtrans.Sandbox)
	}
}

// NewPaymentGateway picks the configured gateway. The dummy gateway is
// refused in production by the config boot assertion, so reaching it
// here implies a dev build.
func NewPaymentGateway() PaymentGateway {
	if configs.GetBool("USE_DUMMY_PAYMENT_GATEWAY", false) {
		log.Println("[ORDER] dummy payment gateway selected")
		return &dummyGateway{}
	}
	return &midtransGateway{}
}

type midtransGateway struct{}

func (g *midtransGateway) Name() string { return "midtrans" }

func (g *midtransGateway) CreateTransaction(orderReference, customerEmail, customerName string, gross decimal.Decimal) (*GatewayResult, error) {
	grossInt := gross.Round(0).IntPart()
	if grossInt <= 0 {
		return nil, errors.New("gross amount must be positive")
	}

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderReference,
			GrossAmt: grossInt,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: customerName,
			Email: customerEmail,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    orderReference,
				Price: grossInt,
				Qty:   1,
				Name:  "Exam study materials order",
			},
		},
	}

	resp, err := SnapClient.CreateTransaction(req)
	if err != nil {
		return nil, fmt.Errorf("midtrans: %w", err)
	}
	return &GatewayResult{Gateway: g.Name(), Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

// dummyGateway fabricates a session locally so checkout can be
// exercised without external credentials.
type dummyGateway struct{}

func (g *dummyGateway) Name() string { return "dummy" }

func (g *dummyGateway) CreateTransaction(orderReference, customerEmail, customerName string, gross decimal.Decimal) (*GatewayResult, error) {
	token := uuid.New().String()
	return &GatewayResult{
		Gateway:     g.Name(),
		Token:       token,
		RedirectURL: "https://payments.invalid/dummy/" + token,
	}, nil
}
