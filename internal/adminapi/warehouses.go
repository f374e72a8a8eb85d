package adminapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/partdepot/partdepot/internal/domain"
	"github.com/partdepot/partdepot/internal/webserver"
	"github.com/partdepot/partdepot/pkg/common"
)

type warehousePayload struct {
	Name     string `json:"name" validate:"required,min=1,max=128"`
	Location string `json:"location" validate:"required,min=1,max=255"`
}

type stockPayload struct {
	PartID   int64 `json:"part_id,string" validate:"required,gt=0"`
	Quantity int   `json:"quantity" validate:"required,gt=0"`
}

// registerWarehouseRoutes registers warehouse and stock ledger routes
func registerWarehouseRoutes() {
	webserver.ApiGET("/inventory/warehouses", listWarehouses)
	webserver.ApiGET("/inventory/warehouses/:id", getWarehouse)
	webserver.ApiPOST("/inventory/warehouses", createWarehouse)
	webserver.ApiDELETE("/inventory/warehouses/:id", deleteWarehouse)
	webserver.ApiGET("/inventory/warehouses/:id/stock", listWarehouseStock)

	webserver.ApiPOST("/inventory/warehouses/:id/stock", addStock)
	webserver.ApiPOST("/inventory/warehouses/:id/stock/decrease", decreaseStock)
	webserver.ApiDELETE("/inventory/warehouses/:id/stock/:part_id", removeStockRow)

	webserver.ApiGET("/inventory/parts/:id/stock", listPartStock)
	webserver.ApiPOST("/inventory/sweep", runSweep)
}

func listWarehouses(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.Warehouse{})
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		if strings.EqualFold(db.Name(), "postgres") { //nolint:staticcheck
			db = db.Where("name ILIKE ? OR location ILIKE ?", "%"+q+"%", "%"+q+"%")
		} else {
			db = db.Where("LOWER(name) LIKE ? OR LOWER(location) LIKE ?",
				"%"+strings.ToLower(q)+"%", "%"+strings.ToLower(q)+"%")
		}
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query warehouses", err.Error())
	}

	var warehouses []domain.Warehouse
	if err := db.Order("id DESC").Offset((page-1)*pageSize).Limit(pageSize).Find(&warehouses).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query warehouses", err.Error())
	}

	return paged(c, warehouses, total, page, pageSize)
}

func getWarehouse(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid warehouse ID", nil)
	}

	var w domain.Warehouse
	if err := GetDB(c).Where("id = ?", id).First(&w).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return failDomain(c, domain.ErrWarehouseNotFound)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query warehouse", err.Error())
	}

	return ok(c, w)
}

func createWarehouse(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}

	var payload warehousePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse warehouse parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	payload.Name = strings.TrimSpace(payload.Name)
	payload.Location = strings.TrimSpace(payload.Location)

	var exists int64
	GetDB(c).Model(&domain.Warehouse{}).
		Where("name = ? AND location = ?", payload.Name, payload.Location).Count(&exists)
	if exists > 0 {
		return failDomain(c, domain.ErrDuplicateWarehouse)
	}

	warehouse := domain.Warehouse{
		ID:        common.UUIDint64(),
		Name:      payload.Name,
		Location:  payload.Location,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := GetDB(c).Create(&warehouse).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create warehouse", err.Error())
	}

	return ok(c, warehouse)
}

func deleteWarehouse(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid warehouse ID", nil)
	}

	db := GetDB(c)

	var w domain.Warehouse
	if err := db.Where("id = ?", id).First(&w).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return failDomain(c, domain.ErrWarehouseNotFound)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query warehouse", err.Error())
	}

	// Refuse while any stock row remains, even at quantity zero
	var stockRows int64
	db.Model(&domain.WarehouseStock{}).Where("warehouse_id = ?", id).Count(&stockRows)
	if stockRows > 0 {
		return failDomain(c, domain.ErrWarehouseNotEmpty)
	}

	if err := db.Where("id = ?", id).Delete(&domain.Warehouse{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete warehouse", err.Error())
	}

	return ok(c, map[string]interface{}{"id": id})
}

func listWarehouseStock(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid warehouse ID", nil)
	}

	db := GetDB(c)

	var count int64
	db.Model(&domain.Warehouse{}).Where("id = ?", id).Count(&count)
	if count == 0 {
		return failDomain(c, domain.ErrWarehouseNotFound)
	}

	var rows []domain.WarehouseStock
	if err := db.Where("warehouse_id = ?", id).Order("part_id ASC").Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query stock rows", err.Error())
	}

	return ok(c, rows)
}

func addStock(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid warehouse ID", nil)
	}

	var payload stockPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse stock parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	change, err := GetApp(c).InventoryService().AddStock(c.Request().Context(), id, payload.PartID, payload.Quantity)
	if err != nil {
		return failDomain(c, err)
	}
	return ok(c, change)
}

func decreaseStock(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid warehouse ID", nil)
	}

	var payload stockPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse stock parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	change, err := GetApp(c).InventoryService().DecreaseStock(c.Request().Context(), id, payload.PartID, payload.Quantity)
	if err != nil {
		return failDomain(c, err)
	}
	return ok(c, change)
}

func removeStockRow(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid warehouse ID", nil)
	}
	partID, err := parseIDParam(c, "part_id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid part ID", nil)
	}

	change, err := GetApp(c).InventoryService().RemoveStockRow(c.Request().Context(), id, partID)
	if err != nil {
		return failDomain(c, err)
	}
	return ok(c, change)
}

func listPartStock(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid part ID", nil)
	}

	db := GetDB(c)

	var p domain.Part
	if err := db.Where("id = ?", id).First(&p).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return failDomain(c, domain.ErrPartNotFound)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query part", err.Error())
	}

	var rows []domain.WarehouseStock
	if err := db.Where("part_id = ?", id).
		Order("quantity DESC, warehouse_id ASC").Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query stock rows", err.Error())
	}

	return ok(c, map[string]interface{}{
		"part_id":        p.ID,
		"total_in_stock": p.StockTotal,
		"rows":           rows,
	})
}

func runSweep(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}

	drifted, err := GetApp(c).RunConsistencySweep()
	if err != nil {
		return fail(c, http.StatusInternalServerError, "SWEEP_ERROR", "Consistency sweep failed", err.Error())
	}
	return ok(c, map[string]interface{}{"drifted": drifted})
}
