package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"examstore_backend/internals/features/cart/dto"
	cartModel "examstore_backend/internals/features/cart/model"
	"examstore_backend/internals/features/cart/service"
	helper "examstore_backend/internals/helpers"
)

type CartController struct {
	Service *service.CartService
}

func NewCartController(svc *service.CartService) *CartController {
	return &CartController{Service: svc}
}

// GetCart returns the caller's cart, creating one on first touch.
func (ctl *CartController) GetCart(c *fiber.Ctx) error {
	cart, err := ctl.Service.GetOrCreate(callerID(c))
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, helper.ErrCodeInternal, "cart lookup failed")
	}
	return helper.JsonOK(c, cart)
}

func (ctl *CartController) AddItem(c *fiber.Ctx) error {
	var req dto.AddItemRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, helper.ErrCodeInput, "invalid request body")
	}

	cart, err := ctl.Service.GetOrCreate(callerID(c))
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, helper.ErrCodeInternal, "cart lookup failed")
	}

	item, err := ctl.Service.AddItem(cart, &req)
	if err != nil {
		return mapCartError(c, err)
	}
	return helper.JsonCreated(c, fiber.Map{"item": item, "cart": cart})
}

func (ctl *CartController) UpdateItem(c *fiber.Ctx) error {
	itemID, err := uuid.Parse(c.Params("item_id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, helper.ErrCodeInput, "invalid item id")
	}

	var req dto.UpdateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, helper.ErrCodeInput, "invalid request body")
	}

	cart, err := ctl.Service.GetOrCreate(callerID(c))
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, helper.ErrCodeInternal, "cart lookup failed")
	}

	if err := ctl.Service.UpdateItem(cart, itemID, req.Quantity); err != nil {
		return mapCartError(c, err)
	}
	return helper.JsonOK(c, cart)
}

func (ctl *CartController) RemoveItem(c *fiber.Ctx) error {
	itemID, err := uuid.Parse(c.Params("item_id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, helper.ErrCodeInput, "invalid item id")
	}

	cart, err := ctl.Service.GetOrCreate(callerID(c))
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, helper.ErrCodeInternal, "cart lookup failed")
	}

	if err := ctl.Service.RemoveItem(cart, itemID); err != nil {
		return mapCartError(c, err)
	}
	return helper.JsonOK(c, cart)
}

func callerID(c *fiber.Ctx) *uuid.UUID {
	if id, ok := c.Locals("user_id").(uuid.UUID); ok {
		return &id
	}
	return nil
}

func mapCartError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, service.ErrItemNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, helper.ErrCodeNotFound, "item not found")
	case errors.Is(err, service.ErrProductInactive),
		errors.Is(err, service.ErrVoucherExpired),
		errors.Is(err, service.ErrPriceMissing),
		errors.Is(err, cartModel.ErrCartItemReference):
		return helper.JsonError(c, fiber.StatusBadRequest, helper.ErrCodeInput, err.Error())
	default:
		return helper.JsonError(c, fiber.StatusInternalServerError, helper.ErrCodeInternal, "cart update failed")
	}
}
