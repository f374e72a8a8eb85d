package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/partdepot/partdepot/internal/domain"
	"github.com/partdepot/partdepot/internal/webserver"
	"github.com/partdepot/partdepot/pkg/common"
)

type manufacturerPayload struct {
	Name    string `json:"name" validate:"required,min=1,max=128"`
	Country string `json:"country" validate:"omitempty,max=64"`
}

type carPayload struct {
	Brand string `json:"brand" validate:"required,min=1,max=64"`
	Model string `json:"model" validate:"required,min=1,max=64"`
	Year  int    `json:"year" validate:"required,gte=1900,lte=2100"`
}

// registerCatalogRoutes registers manufacturer and car lookup routes
func registerCatalogRoutes() {
	webserver.ApiGET("/catalog/manufacturers", listManufacturers)
	webserver.ApiPOST("/catalog/manufacturers", createManufacturer)
	webserver.ApiGET("/catalog/cars", listCars)
	webserver.ApiPOST("/catalog/cars", createCar)
}

func listManufacturers(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.Manufacturer{})
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		db = db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query manufacturers", err.Error())
	}

	var items []domain.Manufacturer
	if err := db.Order("name ASC").Offset((page-1)*pageSize).Limit(pageSize).Find(&items).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query manufacturers", err.Error())
	}

	return paged(c, items, total, page, pageSize)
}

func createManufacturer(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}

	var payload manufacturerPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse manufacturer parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	payload.Name = strings.TrimSpace(payload.Name)

	var exists int64
	GetDB(c).Model(&domain.Manufacturer{}).Where("name = ?", payload.Name).Count(&exists)
	if exists > 0 {
		return failDomain(c, domain.ErrDuplicateName)
	}

	m := domain.Manufacturer{
		ID:        common.UUIDint64(),
		Name:      payload.Name,
		Country:   strings.TrimSpace(payload.Country),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := GetDB(c).Create(&m).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create manufacturer", err.Error())
	}

	return ok(c, m)
}

func listCars(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.Car{})
	if brand := strings.TrimSpace(c.QueryParam("brand")); brand != "" {
		db = db.Where("LOWER(brand) = ?", strings.ToLower(brand))
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query cars", err.Error())
	}

	var items []domain.Car
	if err := db.Order("brand ASC, model ASC, year DESC").
		Offset((page-1)*pageSize).Limit(pageSize).Find(&items).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query cars", err.Error())
	}

	return paged(c, items, total, page, pageSize)
}

func createCar(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}

	var payload carPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse car parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	car := domain.Car{
		ID:        common.UUIDint64(),
		Brand:     strings.TrimSpace(payload.Brand),
		Model:     strings.TrimSpace(payload.Model),
		Year:      payload.Year,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := GetDB(c).Create(&car).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create car", err.Error())
	}

	return ok(c, car)
}
