package transport

import (
	"net/http"

	"github.com/gilson954/sistema-rifa-sub001/internal/service"
	"github.com/gilson954/sistema-rifa-sub001/internal/transport/middleware"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orders service.OrderService
	review service.ReviewService
}

func NewOrderHandler(orders service.OrderService, review service.ReviewService) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		review: review,
	}
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	var filter service.OrderFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, err.Error())
		return
	}

	orders, err := h.orders.ListOrders(c.Request.Context(), c.Param("id"), c.GetString(middleware.OrganizerIDKey), &filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	details, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"), c.Param("order_id"), c.GetString(middleware.OrganizerIDKey))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

func (h *OrderHandler) UpdateContact(c *gin.Context) {
	var req service.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	details, err := h.orders.UpdateContact(c.Request.Context(), c.Param("id"), c.Param("order_id"), c.GetString(middleware.OrganizerIDKey), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

// ReleaseOrder возвращает билеты заказа в продажу
func (h *OrderHandler) ReleaseOrder(c *gin.Context) {
	result, err := h.review.ReleaseOrder(c.Request.Context(), c.Param("id"), c.Param("order_id"), c.GetString(middleware.OrganizerIDKey))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
