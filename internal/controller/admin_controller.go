package controller

import (
	"strconv"

	"ai-mentor-be/internal/pkg/serverutils"
	"ai-mentor-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	GetSystemLogs(ctx *fiber.Ctx) error
	GetLogDetail(ctx *fiber.Ctx) error
}

type adminController struct {
	adminService service.IAdminService
}

func NewAdminController(adminService service.IAdminService) IAdminController {
	return &adminController{
		adminService: adminService,
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin/v1")
	h.Get("logs", c.GetSystemLogs)
	h.Get("logs/:id", c.GetLogDetail)
}

func (c *adminController) GetSystemLogs(ctx *fiber.Ctx) error {
	page, _ := strconv.Atoi(ctx.Query("page", "1"))
	limit, _ := strconv.Atoi(ctx.Query("limit", "50"))
	level := ctx.Query("level")

	res, err := c.adminService.GetSystemLogs(ctx.Context(), page, limit, level)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get system logs", res))
}

func (c *adminController) GetLogDetail(ctx *fiber.Ctx) error {
	logId := ctx.Params("id")

	res, err := c.adminService.GetLogDetail(ctx.Context(), logId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get log detail", res))
}
