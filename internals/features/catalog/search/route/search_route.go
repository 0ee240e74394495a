package route

import (
	"github.com/gofiber/fiber/v2"

	searchController "examstore_backend/internals/features/catalog/search/controller"
	"examstore_backend/internals/features/catalog/search/service"
	"examstore_backend/internals/middlewares"
)

func SearchRoutes(api fiber.Router, svc *service.SearchService) {
	ctrl := searchController.NewSearchController(svc)

	products := api.Group("/products", middlewares.SearchRateLimiter())
	products.Post("/search", ctrl.Search)
	products.Get("/default-search-data", ctrl.DefaultSearchData)
}
