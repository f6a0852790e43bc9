package controller

import (
	"strconv"

	"ai-mentor-be/internal/dto"
	"ai-mentor-be/internal/pkg/serverutils"
	"ai-mentor-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISearchController interface {
	RegisterRoutes(r fiber.Router)
	Search(ctx *fiber.Ctx) error
}

type searchController struct {
	searchService service.ISearchService
}

func NewSearchController(searchService service.ISearchService) ISearchController {
	return &searchController{
		searchService: searchService,
	}
}

func (c *searchController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/retrieval/v1")
	h.Get("search", c.Search)
}

func (c *searchController) Search(ctx *fiber.Ctx) error {
	req := dto.SearchRequest{
		Query: ctx.Query("q"),
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	topK, _ := strconv.Atoi(ctx.Query("top_k", "0"))

	res, err := c.searchService.Search(ctx.Context(), req.Query, topK)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success search knowledge", res))
}
