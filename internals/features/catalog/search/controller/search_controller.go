package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"examstore_backend/internals/features/catalog/search/dto"
	"examstore_backend/internals/features/catalog/search/service"
	helper "examstore_backend/internals/helpers"
)

type SearchController struct {
	Service *service.SearchService
}

func NewSearchController(svc *service.SearchService) *SearchController {
	return &SearchController{Service: svc}
}

// POST /api/products/search/
func (ctrl *SearchController) Search(c *fiber.Ctx) error {
	var req dto.SearchRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, helper.ErrCodeInput, "Invalid request body")
	}

	resp, err := ctrl.Service.Search(&req)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, helper.ErrCodeInput, err.Error())
	}
	return helper.JsonOK(c, resp)
}

// GET /api/products/default-search-data/
func (ctrl *SearchController) DefaultSearchData(c *fiber.Ctx) error {
	data, err := ctrl.Service.DefaultSearchData()
	if err != nil {
		log.Printf("[SEARCH] default search data failed: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, helper.ErrCodeInternal, "Could not load search defaults")
	}
	return helper.JsonOK(c, data)
}
