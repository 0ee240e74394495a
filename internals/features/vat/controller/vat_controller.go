package controller

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	cartModel "examstore_backend/internals/features/cart/model"
	"examstore_backend/internals/features/vat/dto"
	"examstore_backend/internals/features/vat/service"
	helper "examstore_backend/internals/helpers"
)

type VATController struct {
	DB           *gorm.DB
	Orchestrator *service.VATOrchestrator
}

func NewVATController(db *gorm.DB, orch *service.VATOrchestrator) *VATController {
	return &VATController{DB: db, Orchestrator: orch}
}

// Recalculate recomputes VAT for a cart. Cart resolution: explicit
// cart_id in the body, else the authenticated user's cart.
func (ctl *VATController) Recalculate(c *fiber.Ctx) error {
	var req dto.RecalculateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, helper.ErrCodeInput, "invalid request body")
		}
	}

	cart, err := ctl.resolveCart(c, req.CartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, helper.ErrCodeNotFound, "cart not found")
		}
		if errors.Is(err, errNoCartReference) {
			return helper.JsonError(c, fiber.StatusBadRequest, helper.ErrCodeInput, "cart_id is required")
		}
		log.Printf("[VAT] cart lookup failed: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, helper.ErrCodeInternal, "cart lookup failed")
	}

	result, err := ctl.Orchestrator.Calculate(cart, service.DefaultEntryPoint)
	if err != nil {
		var engineErr *service.RulesEngineError
		if errors.As(err, &engineErr) {
			log.Printf("[VAT] engine failure cart=%s: %v", cart.CartID, engineErr)
			return helper.JsonError(c, fiber.StatusBadGateway, helper.ErrCodeDependency, engineErr.Error())
		}
		log.Printf("[VAT] calculation failed cart=%s: %v", cart.CartID, err)
		return helper.JsonError(c, fiber.StatusInternalServerError, helper.ErrCodeInternal, "vat calculation failed")
	}

	return helper.JsonOK(c, result)
}

var errNoCartReference = errors.New("no cart reference")

func (ctl *VATController) resolveCart(c *fiber.Ctx, cartID string) (*cartModel.Cart, error) {
	q := ctl.DB.
		Preload("Items").
		Preload("Items.StoreProduct").
		Preload("Items.StoreProduct.PPV").
		Preload("Items.StoreProduct.PPV.Variation").
		Preload("Items.Voucher")

	if cartID != "" {
		id, err := uuid.Parse(cartID)
		if err != nil {
			return nil, gorm.ErrRecordNotFound
		}
		var cart cartModel.Cart
		if err := q.First(&cart, "cart_id = ?", id).Error; err != nil {
			return nil, err
		}
		return &cart, nil
	}

	userID, ok := c.Locals("user_id").(uuid.UUID)
	if !ok {
		return nil, errNoCartReference
	}
	var cart cartModel.Cart
	if err := q.Where("cart_user_id = ?", userID).Order("updated_at desc").First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}
