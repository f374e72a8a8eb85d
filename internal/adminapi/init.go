// Package adminapi exposes the REST surface: catalog, inventory, cart,
// checkout and order management.
package adminapi

// InitRouter registers all API routes. Must run after webserver.Init.
func InitRouter() {
	registerAuthRoutes()
	registerPartRoutes()
	registerCategoryRoutes()
	registerCatalogRoutes()
	registerWarehouseRoutes()
	registerCartRoutes()
	registerOrderRoutes()
	registerMetricsRoutes()
}
