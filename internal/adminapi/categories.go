package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/partdepot/partdepot/internal/category"
	"github.com/partdepot/partdepot/internal/webserver"
)

type categoryPayload struct {
	Name     string `json:"name" validate:"required,min=1,max=64"`
	ParentID *int64 `json:"parent_id,string" validate:"omitempty"`
}

type categoryUpdatePayload struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=64"`
	ParentID     *int64  `json:"parent_id,string" validate:"omitempty"`
	DetachParent bool    `json:"detach_parent"`
}

// registerCategoryRoutes registers category hierarchy routes
func registerCategoryRoutes() {
	webserver.ApiGET("/catalog/categories", listCategoryTree)
	webserver.ApiGET("/catalog/categories/:id", getCategory)
	webserver.ApiPOST("/catalog/categories", createCategory)
	webserver.ApiPUT("/catalog/categories/:id", updateCategory)
	webserver.ApiDELETE("/catalog/categories/:id", deleteCategory)
}

func listCategoryTree(c echo.Context) error {
	tree, err := GetApp(c).CategoryService().Tree(c.Request().Context())
	if err != nil {
		return failDomain(c, err)
	}
	return ok(c, tree)
}

func getCategory(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID", nil)
	}

	cat, err := GetApp(c).CategoryService().Get(c.Request().Context(), id)
	if err != nil {
		return failDomain(c, err)
	}
	return ok(c, cat)
}

func createCategory(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}

	var payload categoryPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse category parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	cat, err := GetApp(c).CategoryService().Create(c.Request().Context(), payload.Name, payload.ParentID)
	if err != nil {
		return failDomain(c, err)
	}
	return ok(c, cat)
}

func updateCategory(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID", nil)
	}

	var payload categoryUpdatePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse category parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	cat, err := GetApp(c).CategoryService().Update(c.Request().Context(), id, category.UpdateRequest{
		Name:        payload.Name,
		ParentID:    payload.ParentID,
		ClearParent: payload.DetachParent,
	})
	if err != nil {
		return failDomain(c, err)
	}
	return ok(c, cat)
}

func deleteCategory(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID", nil)
	}

	if err := GetApp(c).CategoryService().Delete(c.Request().Context(), id); err != nil {
		return failDomain(c, err)
	}
	return ok(c, map[string]interface{}{"id": id})
}
