package adminapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/partdepot/partdepot/internal/domain"
	"github.com/partdepot/partdepot/internal/webserver"
)

type orderStatusPayload struct {
	Status string `json:"status" validate:"required,oneof=pending processing delivered cancelled"`
}

// Legal order status transitions.
var orderTransitions = map[string][]string{
	domain.OrderStatusPending:    {domain.OrderStatusProcessing, domain.OrderStatusCancelled},
	domain.OrderStatusProcessing: {domain.OrderStatusDelivered, domain.OrderStatusCancelled},
}

// registerOrderRoutes registers order history and fulfilment routes
func registerOrderRoutes() {
	webserver.ApiGET("/orders", listOrders)
	webserver.ApiGET("/orders/:id", getOrder)
	webserver.ApiPUT("/orders/:id/status", updateOrderStatus)
}

func listOrders(c echo.Context) error {
	uid := currentUserID(c)
	if uid == 0 {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing user identity", nil)
	}

	page, pageSize := parsePagination(c)

	orders, total, err := GetApp(c).CheckoutService().ListOrders(c.Request().Context(), uid, page, pageSize)
	if err != nil {
		return failDomain(c, err)
	}
	return paged(c, orders, total, page, pageSize)
}

func getOrder(c echo.Context) error {
	uid := currentUserID(c)
	if uid == 0 {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing user identity", nil)
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}

	order, err := GetApp(c).CheckoutService().GetOrder(c.Request().Context(), uid, id)
	if err != nil {
		return failDomain(c, err)
	}
	return ok(c, order)
}

func updateOrderStatus(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}

	var payload orderStatusPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse status parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	db := GetDB(c)

	var order domain.Order
	if err := db.Where("id = ?", id).First(&order).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return failDomain(c, domain.ErrOrderNotFound)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query order", err.Error())
	}

	allowed := false
	for _, next := range orderTransitions[order.Status] {
		if next == payload.Status {
			allowed = true
			break
		}
	}
	if !allowed {
		return fail(c, http.StatusConflict, "INVALID_TRANSITION",
			"Order status transition not allowed",
			map[string]string{"from": order.Status, "to": payload.Status})
	}

	updates := map[string]interface{}{
		"status":     payload.Status,
		"updated_at": time.Now(),
	}
	if payload.Status == domain.OrderStatusDelivered {
		updates["delivered_at"] = time.Now()
	}

	if err := db.Model(&domain.Order{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update order", err.Error())
	}

	db.Preload("Items").Where("id = ?", id).First(&order)
	return ok(c, order)
}
