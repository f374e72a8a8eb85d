package adminapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"

	"github.com/partdepot/partdepot/internal/webserver"
	"github.com/partdepot/partdepot/pkg/metrics"
)

// registerMetricsRoutes registers the operational metrics query route
func registerMetricsRoutes() {
	webserver.ApiGET("/metrics/:name", queryMetric)
}

func queryMetric(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}

	name := c.Param("name")

	end := time.Now()
	start := end.Add(-24 * time.Hour)
	if v := c.QueryParam("start"); v != "" {
		start = time.Unix(cast.ToInt64(v), 0)
	}
	if v := c.QueryParam("end"); v != "" {
		end = time.Unix(cast.ToInt64(v), 0)
	}

	points, err := metrics.Range(name, start, end)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "METRICS_ERROR", "Failed to query metric", err.Error())
	}

	return ok(c, map[string]interface{}{
		"name":   name,
		"start":  start.Unix(),
		"end":    end.Unix(),
		"points": points,
	})
}
