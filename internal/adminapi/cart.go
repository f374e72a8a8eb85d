package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/partdepot/partdepot/internal/webserver"
)

type cartAddPayload struct {
	PartID   int64 `json:"part_id,string" validate:"required,gt=0"`
	Quantity int   `json:"quantity" validate:"required,gt=0"`
}

type checkoutPayload struct {
	ShippingAddress string `json:"shipping_address" validate:"required,min=1,max=255"`
}

// registerCartRoutes registers the per-user cart and checkout routes
func registerCartRoutes() {
	webserver.ApiGET("/cart", viewCart)
	webserver.ApiPOST("/cart", addToCart)
	webserver.ApiDELETE("/cart/:part_id", removeFromCart)
	webserver.ApiPOST("/cart/checkout", checkout)
}

func viewCart(c echo.Context) error {
	uid := currentUserID(c)
	if uid == 0 {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing user identity", nil)
	}

	summary, err := GetApp(c).CartService().ViewCart(c.Request().Context(), uid)
	if err != nil {
		return failDomain(c, err)
	}
	return ok(c, summary)
}

func addToCart(c echo.Context) error {
	uid := currentUserID(c)
	if uid == 0 {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing user identity", nil)
	}

	var payload cartAddPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse cart parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	line, err := GetApp(c).CartService().AddToCart(c.Request().Context(), uid, payload.PartID, payload.Quantity)
	if err != nil {
		return failDomain(c, err)
	}
	return ok(c, line)
}

func removeFromCart(c echo.Context) error {
	uid := currentUserID(c)
	if uid == 0 {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing user identity", nil)
	}

	partID, err := parseIDParam(c, "part_id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid part ID", nil)
	}

	if err := GetApp(c).CartService().RemoveFromCart(c.Request().Context(), uid, partID); err != nil {
		return failDomain(c, err)
	}
	return ok(c, map[string]interface{}{"part_id": partID})
}

func checkout(c echo.Context) error {
	uid := currentUserID(c)
	if uid == 0 {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing user identity", nil)
	}

	var payload checkoutPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse checkout parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	order, err := GetApp(c).CheckoutService().Checkout(c.Request().Context(), uid, payload.ShippingAddress)
	if err != nil {
		return failDomain(c, err)
	}
	return ok(c, order)
}
