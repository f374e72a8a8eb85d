package adminapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"gorm.io/gorm"

	"github.com/partdepot/partdepot/internal/app"
	"github.com/partdepot/partdepot/internal/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// RestResult is the uniform response envelope.
type RestResult struct {
	Code    string      `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Detail  interface{} `json:"detail,omitempty"`
}

// PagedData wraps list responses with pagination bookkeeping.
type PagedData struct {
	Items    interface{} `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, RestResult{Code: "OK", Data: data})
}

func fail(c echo.Context, status int, code, message string, detail interface{}) error {
	return c.JSON(status, RestResult{Code: code, Message: message, Detail: detail})
}

func paged(c echo.Context, items interface{}, total int64, page, pageSize int) error {
	return c.JSON(http.StatusOK, RestResult{Code: "OK", Data: PagedData{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}})
}

func parsePagination(c echo.Context) (page, pageSize int) {
	page = cast.ToInt(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize = cast.ToInt(c.QueryParam("page_size"))
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

// GetDB returns the request-scoped gorm handle injected by the web server.
func GetDB(c echo.Context) *gorm.DB {
	return c.Get("db").(*gorm.DB)
}

// GetApp returns the application context injected by the web server.
func GetApp(c echo.Context) app.AppContext {
	return c.Get("app").(app.AppContext)
}

// currentUserID extracts the uid claim from the bearer token.
func currentUserID(c echo.Context) int64 {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return 0
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0
	}
	return cast.ToInt64(claims["uid"])
}

// isAdmin reports whether the bearer token carries the is_admin claim.
func isAdmin(c echo.Context) bool {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return false
	}
	return cast.ToBool(claims["is_admin"])
}

func requireAdmin(c echo.Context) error {
	if !isAdmin(c) {
		return fail(c, http.StatusForbidden, "FORBIDDEN", "Administrator privileges required", nil)
	}
	return nil
}

func handleValidationError(c echo.Context, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]map[string]string, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, map[string]string{
				"field": fe.Field(),
				"rule":  fe.Tag(),
			})
		}
		return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Request validation failed", details)
	}
	return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Request validation failed", err.Error())
}

// failDomain maps service errors to HTTP responses so every handler reports
// the same codes for the same conditions.
func failDomain(c echo.Context, err error) error {
	if ise, ok := domain.IsInsufficientStock(err); ok {
		return fail(c, http.StatusConflict, "INSUFFICIENT_STOCK", ise.Error(), map[string]interface{}{
			"part_id":   strconv.FormatInt(ise.PartID, 10),
			"requested": ise.Requested,
			"available": ise.Available,
		})
	}

	switch {
	case errors.Is(err, domain.ErrPartNotFound):
		return fail(c, http.StatusNotFound, "PART_NOT_FOUND", "Part not found", nil)
	case errors.Is(err, domain.ErrWarehouseNotFound):
		return fail(c, http.StatusNotFound, "WAREHOUSE_NOT_FOUND", "Warehouse not found", nil)
	case errors.Is(err, domain.ErrCategoryNotFound):
		return fail(c, http.StatusNotFound, "CATEGORY_NOT_FOUND", "Category not found", nil)
	case errors.Is(err, domain.ErrCartLineNotFound):
		return fail(c, http.StatusNotFound, "CART_LINE_NOT_FOUND", "Cart line not found", nil)
	case errors.Is(err, domain.ErrOrderNotFound):
		return fail(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found", nil)
	case errors.Is(err, domain.ErrStockRowNotFound):
		return fail(c, http.StatusNotFound, "STOCK_ROW_NOT_FOUND", "No stock row for this part in this warehouse", nil)
	case errors.Is(err, domain.ErrDuplicateName):
		return fail(c, http.StatusConflict, "DUPLICATE_NAME", "Name already exists", nil)
	case errors.Is(err, domain.ErrDuplicatePart):
		return fail(c, http.StatusConflict, "DUPLICATE_PART", "Manufacturer part number already exists", nil)
	case errors.Is(err, domain.ErrDuplicateWarehouse):
		return fail(c, http.StatusConflict, "DUPLICATE_WAREHOUSE", "Warehouse name and location already exist", nil)
	case errors.Is(err, domain.ErrSelfParent):
		return fail(c, http.StatusConflict, "SELF_PARENT", "Category cannot be its own parent", nil)
	case errors.Is(err, domain.ErrCycleDetected):
		return fail(c, http.StatusConflict, "CYCLE_DETECTED", "Parent change would create a cycle", nil)
	case errors.Is(err, domain.ErrHasSubcategories):
		return fail(c, http.StatusConflict, "HAS_SUBCATEGORIES", "Category still has subcategories", nil)
	case errors.Is(err, domain.ErrHasParts):
		return fail(c, http.StatusConflict, "HAS_PARTS", "Category still has parts assigned", nil)
	case errors.Is(err, domain.ErrWarehouseNotEmpty):
		return fail(c, http.StatusConflict, "WAREHOUSE_NOT_EMPTY", "Warehouse still holds stock", nil)
	case errors.Is(err, domain.ErrNonPositiveQuantity):
		return fail(c, http.StatusBadRequest, "INVALID_QUANTITY", "Quantity must be positive", nil)
	case errors.Is(err, domain.ErrEmptyCart):
		return fail(c, http.StatusBadRequest, "EMPTY_CART", "Cart is empty", nil)
	case errors.Is(err, domain.ErrLockTimeout):
		return fail(c, http.StatusServiceUnavailable, "LOCK_TIMEOUT", "Stock rows are busy, retry shortly", nil)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Record not found", nil)
	}
	return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Operation failed", err.Error())
}
