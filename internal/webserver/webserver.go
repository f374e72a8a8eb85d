package webserver

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/partdepot/partdepot/internal/app"
)

// WebServer hosts the admin REST API. All /api/v1 routes require a bearer
// token; the handful of public routes (login, health) are registered through
// the Pub* helpers.
type WebServer struct {
	root   *echo.Echo
	appCtx app.AppContext
	api    *echo.Group
}

var server *WebServer

func Init(appCtx app.AppContext) *WebServer {
	server = NewWebServer(appCtx)
	return server
}

func NewWebServer(appCtx app.AppContext) *WebServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = NewJsoniterSerializer()
	e.Validator = NewRequestValidator()

	e.Use(middleware.Recover())
	e.Use(ZapLoggerMiddleware())
	e.Use(injectDB(appCtx))

	s := &WebServer{root: e, appCtx: appCtx}

	s.api = e.Group("/api/v1")
	s.api.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(appCtx.Config().Web.JwtSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return jwt.MapClaims{}
		},
	}))

	return s
}

// injectDB makes the gorm handle available to handlers via c.Get("db").
func injectDB(appCtx app.AppContext) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("db", appCtx.DB())
			c.Set("app", appCtx)
			return next(c)
		}
	}
}

// ZapLoggerMiddleware logs one line per request through the global zap logger.
func ZapLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
				zap.L().Warn("http request", fields...)
				return nil
			}
			zap.L().Info("http request", fields...)
			return nil
		},
	})
}

// Listen starts the HTTP listener and blocks until shutdown.
func (s *WebServer) Listen() error {
	cfg := s.appCtx.Config().Web
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	zap.L().Info("starting web server", zap.String("addr", addr))
	return s.root.Start(addr)
}

func (s *WebServer) Shutdown() error {
	return s.root.Close()
}

// Root exposes the underlying echo instance.
func (s *WebServer) Root() *echo.Echo {
	return s.root
}

func normalizePath(path string) string {
	return "/" + strings.TrimPrefix(path, "/")
}

// ApiGET registers an authenticated GET route under /api/v1.
func ApiGET(path string, h echo.HandlerFunc) {
	server.api.GET(normalizePath(path), h)
}

// ApiPOST registers an authenticated POST route under /api/v1.
func ApiPOST(path string, h echo.HandlerFunc) {
	server.api.POST(normalizePath(path), h)
}

// ApiPUT registers an authenticated PUT route under /api/v1.
func ApiPUT(path string, h echo.HandlerFunc) {
	server.api.PUT(normalizePath(path), h)
}

// ApiDELETE registers an authenticated DELETE route under /api/v1.
func ApiDELETE(path string, h echo.HandlerFunc) {
	server.api.DELETE(normalizePath(path), h)
}

// PubGET registers an unauthenticated GET route at the server root.
func PubGET(path string, h echo.HandlerFunc) {
	server.root.GET(normalizePath(path), h)
}

// PubPOST registers an unauthenticated POST route at the server root.
func PubPOST(path string, h echo.HandlerFunc) {
	server.root.POST(normalizePath(path), h)
}
