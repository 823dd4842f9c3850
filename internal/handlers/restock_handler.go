package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"inventory/internal/services"
)

// RestockHandler handles HTTP requests for restock orders.
type RestockHandler struct {
	service *services.RestockService
}

// NewRestockHandler creates a new RestockHandler.
func NewRestockHandler(service *services.RestockService) *RestockHandler {
	return &RestockHandler{
		service: service,
	}
}

// RegisterRoutes registers the restock order routes.
func (h *RestockHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/restock-orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrder)
	orderRoutes.Patch("/:id/status", h.HandleUpdateOrderStatus)
}

// HandleGetOrders lists every restock order.
func (h *RestockHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.List()
	if err != nil {
		return respondError(c, err, "Could not retrieve restock orders")
	}
	return c.JSON(orders)
}

// HandleGetOrder returns one restock order.
func (h *RestockHandler) HandleGetOrder(c *fiber.Ctx) error {
	order, err := h.service.Get(c.Params("id"))
	if err != nil {
		return respondError(c, err, fmt.Sprintf("Restock order %s not available", c.Params("id")))
	}
	return c.JSON(order)
}

// HandleUpdateOrderStatus moves an order along its workflow.
func (h *RestockHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var updateData struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&updateData); err != nil {
		return badRequest(c, "Invalid request body for status update", err)
	}

	order, err := h.service.UpdateStatus(c.Params("id"), updateData.Status)
	if err != nil {
		return respondError(c, err, "Could not update restock order status")
	}
	audit(c, "marked restock order %s %s", order.ID, order.Status)
	return c.JSON(order)
}
