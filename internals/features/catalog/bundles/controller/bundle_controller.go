package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"examstore_backend/internals/features/catalog/bundles/model"
	helper "examstore_backend/internals/helpers"
)

type BundleController struct {
	DB *gorm.DB
}

func NewBundleController(db *gorm.DB) *BundleController {
	return &BundleController{DB: db}
}

// GetBundle returns one bundle with its template and contained SKUs.
func (ctl *BundleController) GetBundle(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("bundle_id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, helper.ErrCodeInput, "invalid bundle id")
	}

	var bundle model.Bundle
	err = ctl.DB.
		Preload("Template").
		Preload("ESS.Subject").
		Preload("ESS.ExamSession").
		Preload("Products", "bp_is_active = ?", true).
		Preload("Products.StoreProduct").
		Preload("Products.StoreProduct.Prices").
		Preload("Products.StoreProduct.PPV.Variation").
		First(&bundle, "bundle_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return helper.JsonError(c, fiber.StatusNotFound, helper.ErrCodeNotFound, "bundle not found")
	}
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, helper.ErrCodeInternal, "bundle lookup failed")
	}
	return helper.JsonOK(c, bundle)
}

// ListBundles returns active bundles, optionally filtered by subject
// code.
func (ctl *BundleController) ListBundles(c *fiber.Ctx) error {
	q := ctl.DB.
		Preload("Template").
		Preload("ESS.Subject").
		Where("bundle_is_active = ?", true).
		Order("bundle_display_order asc, created_at asc")

	if subject := c.Query("subject"); subject != "" {
		q = q.Joins("JOIN exam_session_subjects ON exam_session_subjects.ess_id = bundles.bundle_ess_id").
			Joins("JOIN subjects ON subjects.subject_id = exam_session_subjects.ess_subject_id").
			Where("subjects.subject_code = ?", subject)
	}

	var bundles []model.Bundle
	if err := q.Find(&bundles).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, helper.ErrCodeInternal, "bundle lookup failed")
	}
	return helper.JsonOK(c, bundles)
}
