package controller

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	cartService "examstore_backend/internals/features/cart/service"
	"examstore_backend/internals/features/orders/model"
	"examstore_backend/internals/features/orders/service"
	vatService "examstore_backend/internals/features/vat/service"
	helper "examstore_backend/internals/helpers"
)

type OrderController struct {
	DB       *gorm.DB
	Checkout *service.CheckoutService
	Carts    *cartService.CartService
}

func NewOrderController(db *gorm.DB, checkout *service.CheckoutService, carts *cartService.CartService) *OrderController {
	return &OrderController{DB: db, Checkout: checkout, Carts: carts}
}

// CreateOrder checks out the caller's cart.
func (ctl *OrderController) CreateOrder(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uuid.UUID)

	cart, err := ctl.Carts.GetOrCreate(&userID)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, helper.ErrCodeInternal, "cart lookup failed")
	}

	order, err := ctl.Checkout.Checkout(cart)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyCart):
			return helper.JsonError(c, fiber.StatusBadRequest, helper.ErrCodeInput, err.Error())
		default:
			var engineErr *vatService.RulesEngineError
			if errors.As(err, &engineErr) {
				return helper.JsonError(c, fiber.StatusBadGateway, helper.ErrCodeDependency, engineErr.Error())
			}
			log.Printf("[ORDER] checkout failed: %v", err)
			return helper.JsonError(c, fiber.StatusInternalServerError, helper.ErrCodeInternal, "checkout failed")
		}
	}
	return helper.JsonCreated(c, order)
}

func (ctl *OrderController) GetOrder(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uuid.UUID)
	orderID, err := uuid.Parse(c.Params("order_id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, helper.ErrCodeInput, "invalid order id")
	}

	var order model.Order
	err = ctl.DB.Preload("Payments").
		First(&order, "order_id = ? AND order_user_id = ?", orderID, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return helper.JsonError(c, fiber.StatusNotFound, helper.ErrCodeNotFound, "order not found")
	}
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, helper.ErrCodeInternal, "order lookup failed")
	}
	return helper.JsonOK(c, order)
}

func (ctl *OrderController) ListOrders(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uuid.UUID)

	var orders []model.Order
	if err := ctl.DB.Preload("Payments").
		Where("order_user_id = ?", userID).
		Order("created_at desc").
		Find(&orders).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, helper.ErrCodeInternal, "order lookup failed")
	}
	return helper.JsonOK(c, orders)
}

// PaymentCallback applies a gateway notification. Internal token
// guarded at the route level.
func (ctl *OrderController) PaymentCallback(c *fiber.Ctx) error {
	var body struct {
		OrderReference string                 `json:"order_reference"`
		Status         string                 `json:"status"`
		Response       map[string]interface{} `json:"response,omitempty"`
	}
	if err := c.BodyParser(&body); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, helper.ErrCodeInput, "invalid request body")
	}
	if body.OrderReference == "" || body.Status == "" {
		return helper.JsonError(c, fiber.StatusBadRequest, helper.ErrCodeInput, "order_reference and status are required")
	}

	if err := ctl.Checkout.RecordPaymentResult(body.OrderReference, body.Status, body.Response); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, helper.ErrCodeNotFound, "order not found")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, helper.ErrCodeInternal, "payment update failed")
	}
	return helper.JsonOK(c, fiber.Map{"updated": true})
}
