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

type partPayload struct {
	Name                   string  `json:"name" validate:"required,min=1,max=128"`
	PartNumber             string  `json:"part_number" validate:"omitempty,max=64"`
	ManufacturerPartNumber string  `json:"manufacturer_part_number" validate:"required,min=1,max=64"`
	Description            string  `json:"description" validate:"omitempty,max=4000"`
	Price                  float64 `json:"price" validate:"gte=0"`
	CategoryID             *int64  `json:"category_id,string" validate:"omitempty"`
	ManufacturerIDs        []int64 `json:"manufacturer_ids" validate:"omitempty,dive,gt=0"`
	CarIDs                 []int64 `json:"car_ids" validate:"omitempty,dive,gt=0"`
}

type partUpdatePayload struct {
	Name                   *string  `json:"name" validate:"omitempty,min=1,max=128"`
	PartNumber             *string  `json:"part_number" validate:"omitempty,max=64"`
	ManufacturerPartNumber *string  `json:"manufacturer_part_number" validate:"omitempty,min=1,max=64"`
	Description            *string  `json:"description" validate:"omitempty,max=4000"`
	Price                  *float64 `json:"price" validate:"omitempty,gte=0"`
	CategoryID             *int64   `json:"category_id,string" validate:"omitempty"`
}

// registerPartRoutes registers part CRUD routes
func registerPartRoutes() {
	webserver.ApiGET("/catalog/parts", listParts)
	webserver.ApiGET("/catalog/parts/:id", getPart)
	webserver.ApiPOST("/catalog/parts", createPart)
	webserver.ApiPUT("/catalog/parts/:id", updatePart)
	webserver.ApiDELETE("/catalog/parts/:id", deletePart)
}

func listParts(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.Part{})
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		if strings.EqualFold(db.Name(), "postgres") { //nolint:staticcheck
			db = db.Where("name ILIKE ? OR manufacturer_part_number ILIKE ?", "%"+q+"%", "%"+q+"%")
		} else {
			db = db.Where("LOWER(name) LIKE ? OR LOWER(manufacturer_part_number) LIKE ?",
				"%"+strings.ToLower(q)+"%", "%"+strings.ToLower(q)+"%")
		}
	}
	if cid := strings.TrimSpace(c.QueryParam("category_id")); cid != "" {
		db = db.Where("category_id = ?", cid)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query parts", err.Error())
	}

	var parts []domain.Part
	if err := db.Order("id DESC").Offset((page-1)*pageSize).Limit(pageSize).Find(&parts).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query parts", err.Error())
	}

	return paged(c, parts, total, page, pageSize)
}

func getPart(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid part ID", nil)
	}

	var p domain.Part
	err = GetDB(c).Preload("Manufacturers").Preload("Cars").Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return failDomain(c, domain.ErrPartNotFound)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query part", err.Error())
	}

	return ok(c, p)
}

func createPart(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}

	var payload partPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse part parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	payload.Name = strings.TrimSpace(payload.Name)
	payload.ManufacturerPartNumber = strings.TrimSpace(payload.ManufacturerPartNumber)

	db := GetDB(c)

	var exists int64
	db.Model(&domain.Part{}).Where("manufacturer_part_number = ?", payload.ManufacturerPartNumber).Count(&exists)
	if exists > 0 {
		return failDomain(c, domain.ErrDuplicatePart)
	}

	if payload.CategoryID != nil {
		var count int64
		db.Model(&domain.Category{}).Where("id = ?", *payload.CategoryID).Count(&count)
		if count == 0 {
			return failDomain(c, domain.ErrCategoryNotFound)
		}
	}

	manufacturers, cars, herr := loadPartLinks(c, db, payload.ManufacturerIDs, payload.CarIDs)
	if herr != nil {
		return herr
	}

	part := domain.Part{
		ID:                     common.UUIDint64(),
		Name:                   payload.Name,
		PartNumber:             strings.TrimSpace(payload.PartNumber),
		ManufacturerPartNumber: payload.ManufacturerPartNumber,
		Description:            payload.Description,
		Price:                  payload.Price,
		CategoryID:             payload.CategoryID,
		CreatedAt:              time.Now(),
		UpdatedAt:              time.Now(),
		Manufacturers:          manufacturers,
		Cars:                   cars,
	}

	if err := db.Create(&part).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create part", err.Error())
	}

	return ok(c, part)
}

// loadPartLinks resolves manufacturer and car references, rejecting unknown
// ids before anything is written.
func loadPartLinks(c echo.Context, db *gorm.DB, manufacturerIDs, carIDs []int64) ([]domain.Manufacturer, []domain.Car, error) {
	var manufacturers []domain.Manufacturer
	if len(manufacturerIDs) > 0 {
		if err := db.Where("id IN ?", manufacturerIDs).Find(&manufacturers).Error; err != nil {
			return nil, nil, fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query manufacturers", err.Error())
		}
		if len(manufacturers) != len(manufacturerIDs) {
			return nil, nil, fail(c, http.StatusNotFound, "MANUFACTURER_NOT_FOUND", "One or more manufacturers not found", nil)
		}
	}

	var cars []domain.Car
	if len(carIDs) > 0 {
		if err := db.Where("id IN ?", carIDs).Find(&cars).Error; err != nil {
			return nil, nil, fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query cars", err.Error())
		}
		if len(cars) != len(carIDs) {
			return nil, nil, fail(c, http.StatusNotFound, "CAR_NOT_FOUND", "One or more cars not found", nil)
		}
	}

	return manufacturers, cars, nil
}

func updatePart(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid part ID", nil)
	}

	var payload partUpdatePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse part parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	db := GetDB(c)

	var p domain.Part
	if err := db.Where("id = ?", id).First(&p).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return failDomain(c, domain.ErrPartNotFound)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query part", err.Error())
	}

	if payload.ManufacturerPartNumber != nil {
		mpn := strings.TrimSpace(*payload.ManufacturerPartNumber)
		if mpn != p.ManufacturerPartNumber {
			var exists int64
			db.Model(&domain.Part{}).Where("manufacturer_part_number = ? AND id != ?", mpn, id).Count(&exists)
			if exists > 0 {
				return failDomain(c, domain.ErrDuplicatePart)
			}
			p.ManufacturerPartNumber = mpn
		}
	}
	if payload.Name != nil {
		p.Name = strings.TrimSpace(*payload.Name)
	}
	if payload.PartNumber != nil {
		p.PartNumber = strings.TrimSpace(*payload.PartNumber)
	}
	if payload.Description != nil {
		p.Description = *payload.Description
	}
	if payload.Price != nil {
		p.Price = *payload.Price
	}
	if payload.CategoryID != nil {
		var count int64
		db.Model(&domain.Category{}).Where("id = ?", *payload.CategoryID).Count(&count)
		if count == 0 {
			return failDomain(c, domain.ErrCategoryNotFound)
		}
		p.CategoryID = payload.CategoryID
	}
	p.UpdatedAt = time.Now()

	if err := db.Save(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update part", err.Error())
	}

	return ok(c, p)
}

func deletePart(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}

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

	// Prevent deletion while warehouse ledgers still reference the part
	var stockRows int64
	db.Model(&domain.WarehouseStock{}).Where("part_id = ?", id).Count(&stockRows)
	if stockRows > 0 {
		return fail(c, http.StatusConflict, "PART_IN_STOCK", "Part still has warehouse stock rows and cannot be deleted",
			map[string]interface{}{"stock_rows": stockRows})
	}

	if err := db.Where("id = ?", id).Delete(&domain.Part{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete part", err.Error())
	}

	return ok(c, map[string]interface{}{"id": id})
}
