package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"examstore_backend/internals/features/catalog/products/model"
	helper "examstore_backend/internals/helpers"
)

type ProductController struct {
	DB *gorm.DB
}

func NewProductController(db *gorm.DB) *ProductController {
	return &ProductController{DB: db}
}

// GetStoreProduct returns one SKU with its prices, events and
// recommendation chain.
func (ctl *ProductController) GetStoreProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("store_product_id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, helper.ErrCodeInput, "invalid store product id")
	}

	var sp model.StoreProduct
	err = ctl.DB.
		Preload("Prices").
		Preload("Events").
		Preload("ESS.Subject").
		Preload("ESS.ExamSession").
		Preload("PPV.CatalogProduct").
		Preload("PPV.Variation").
		Preload("PPV.Recommendation").
		First(&sp, "store_product_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return helper.JsonError(c, fiber.StatusNotFound, helper.ErrCodeNotFound, "product not found")
	}
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, helper.ErrCodeInternal, "product lookup failed")
	}
	return helper.JsonOK(c, sp)
}

// ListSubjects returns the active subjects ordered by code.
func (ctl *ProductController) ListSubjects(c *fiber.Ctx) error {
	var subjects []model.Subject
	if err := ctl.DB.Where("subject_active = ?", true).
		Order("subject_code asc").
		Find(&subjects).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, helper.ErrCodeInternal, "subject lookup failed")
	}
	return helper.JsonOK(c, subjects)
}

// ListSessions returns exam sessions, newest first.
func (ctl *ProductController) ListSessions(c *fiber.Ctx) error {
	var sessions []model.ExamSession
	if err := ctl.DB.Order("exam_session_start_date desc").Find(&sessions).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, helper.ErrCodeInternal, "session lookup failed")
	}
	return helper.JsonOK(c, sessions)
}
