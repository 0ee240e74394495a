package service

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	cartModel "examstore_backend/internals/features/cart/model"
	emailDto "examstore_backend/internals/features/emails/dto"
	emailService "examstore_backend/internals/features/emails/service"
	"examstore_backend/internals/features/orders/model"
	userModel "examstore_backend/internals/features/users/model"
	vatDto "examstore_backend/internals/features/vat/dto"
	vatService "examstore_backend/internals/features/vat/service"
)

var (
	ErrEmptyCart    = errors.New("cart has no items")
	ErrVATNotReady  = errors.New("cart has no vat result; recalculate first")
)

// CheckoutService converts a cart into an order with a payment
// session and queues the confirmation email.
type CheckoutService struct {
	DB      *gorm.DB
	VAT     *vatService.VATOrchestrator
	Gateway PaymentGateway
	Emails  *emailService.QueueService
}

func NewCheckoutService(db *gorm.DB, vat *vatService.VATOrchestrator, gateway PaymentGateway, emails *emailService.QueueService) *CheckoutService {
	return &CheckoutService{DB: db, VAT: vat, Gateway: gateway, Emails: emails}
}

// Checkout recomputes VAT (totals must be fresh at order time), snaps
// the totals onto an order row, opens a gateway session and enqueues
// the confirmation. Order + payment are one transaction; the email is
// best-effort after commit.
func (s *CheckoutService) Checkout(cart *cartModel.Cart) (*model.Order, error) {
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	vatResult, err := s.VAT.Calculate(cart, vatService.DefaultEntryPoint)
	if err != nil {
		return nil, err
	}

	net, err := decimal.NewFromString(vatResult.Totals.Net)
	if err != nil {
		return nil, ErrVATNotReady
	}
	vat, _ := decimal.NewFromString(vatResult.Totals.VAT)
	gross, _ := decimal.NewFromString(vatResult.Totals.Gross)

	order := model.Order{
		OrderUserID:    cart.CartUserID,
		OrderCartID:    cart.CartID,
		OrderReference: newOrderReference(),
		OrderNet:       net,
		OrderVAT:       vat,
		OrderGross:     gross,
		OrderCurrency:  "GBP",
	}

	email, name := s.customerDetails(cart.CartUserID)

	session, err := s.Gateway.CreateTransaction(order.OrderReference, email, name, gross)
	if err != nil {
		return nil, fmt.Errorf("payment session: %w", err)
	}

	payment := model.OrderPayment{
		PaymentGateway:  session.Gateway,
		PaymentAmount:   gross,
		PaymentToken:    &session.Token,
		PaymentRedirect: &session.RedirectURL,
	}

	if err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		payment.PaymentOrderID = order.OrderID
		return tx.Create(&payment).Error
	}); err != nil {
		return nil, err
	}
	order.Payments = []model.OrderPayment{payment}

	s.queueConfirmation(&order, cart, vatResult, email, name)

	return &order, nil
}

func (s *CheckoutService) customerDetails(userID *uuid.UUID) (email, name string) {
	if userID == nil {
		return "", "Guest"
	}
	var user userModel.User
	if err := s.DB.First(&user, "user_id = ?", *userID).Error; err != nil {
		return "", "Guest"
	}
	return user.UserEmail, user.UserFullName
}

// queueConfirmation enqueues the order confirmation. Failures are
// logged only: the order stands regardless.
func (s *CheckoutService) queueConfirmation(order *model.Order, cart *cartModel.Cart, vatResult *vatDto.VATResult, email, name string) {
	if email == "" {
		log.Printf("[ORDER] %s has no customer email, skipping confirmation", order.OrderReference)
		return
	}

	items := make([]map[string]interface{}, 0, len(cart.Items))
	for i, item := range cart.Items {
		entry := map[string]interface{}{
			"quantity": item.CartItemQuantity,
		}
		if item.StoreProduct != nil {
			entry["product_code"] = item.StoreProduct.StoreProductCode
		} else if item.Voucher != nil {
			entry["product_code"] = item.Voucher.VoucherCode
		}
		if i < len(vatResult.Items) {
			entry["gross_amount"] = vatResult.Items[i].GrossAmount
		}
		items = append(items, entry)
	}

	req := &emailDto.QueueEmailRequest{
		TemplateName: "order_confirmation",
		ToEmails:     emailDto.StringList{email},
		Priority:     "high",
		Tags:         []string{"order", order.OrderReference},
		Context: map[string]interface{}{
			"user_name":       name,
			"order_reference": order.OrderReference,
			"items":           items,
			"net_total":       vatResult.Totals.Net,
			"vat_total":       vatResult.Totals.VAT,
			"gross_total":     vatResult.Totals.Gross,
			"region":          vatResult.Region,
		},
	}
	if _, err := s.Emails.QueueEmail(req); err != nil {
		log.Printf("[ORDER] confirmation enqueue failed for %s: %v", order.OrderReference, err)
	}
}

// RecordPaymentResult applies a gateway callback to the payment row.
func (s *CheckoutService) RecordPaymentResult(orderReference, status string, response map[string]interface{}) error {
	var order model.Order
	if err := s.DB.Preload("Payments").First(&order, "order_reference = ?", orderReference).Error; err != nil {
		return err
	}
	if len(order.Payments) == 0 {
		return errors.New("order has no payment row")
	}

	updates := map[string]interface{}{"payment_status": status}
	if response != nil {
		raw, err := json.Marshal(response)
		if err == nil {
			updates["payment_response"] = datatypes.JSON(raw)
		}
	}
	if status == "completed" {
		updates["payment_paid_at"] = time.Now().UTC()
	}

	return s.DB.Model(&order.Payments[0]).Updates(updates).Error
}

// newOrderReference builds a short, unique, human-readable reference.
func newOrderReference() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("ORD-%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("ORD-%s-%s", time.Now().UTC().Format("20060102"), hex.EncodeToString(buf))
}
