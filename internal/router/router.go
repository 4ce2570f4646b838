package router

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"smp/internal/auth"
	"smp/internal/handler"
	"smp/internal/metrics"
	mw "smp/internal/middleware"
	"smp/internal/model"
	"smp/internal/repository"
)

// Deps is everything the routes need.
type Deps struct {
	Admins   repository.AdminStore
	Teachers repository.TeacherStore
	Tokens   auth.TokenIssuer
	Metrics  *metrics.Metrics
	// Gatherer backs /metrics; nil leaves the endpoint out.
	Gatherer prometheus.Gatherer
	Logger   zerolog.Logger
	// RequestLogging enables one log line per request.
	RequestLogging bool

	AdminHandler   *handler.AdminHandler
	TeacherHandler *handler.TeacherHandler
	HealthHandler  *handler.HealthHandler
}

// bodyLimit matches middleware.MaxBodyBytes.
const bodyLimit = "64K"

// Register wires routes and middleware.
func Register(e *echo.Echo, d Deps) {
	e.HTTPErrorHandler = handler.HTTPErrorHandler(d.Logger)

	e.Use(middleware.RequestID())
	if d.RequestLogging {
		e.Use(mw.RequestLogger(d.Logger))
	}
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(bodyLimit))

	e.GET("/healthz", d.HealthHandler.Health)
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	if d.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	adminByPath := mw.Resolve[model.Admin](d.Admins, mw.FromParam("id"), mw.AdminMessages, d.Logger)
	adminByBody := mw.Resolve[model.Admin](d.Admins, mw.FromBody("adminId"), mw.AdminMessages, d.Logger)
	adminGuard := mw.Guard[model.Admin](d.Tokens, d.Metrics)

	teacherByPath := mw.Resolve[model.Teacher](d.Teachers, mw.FromParam("id"), mw.TeacherMessages, d.Logger)
	teacherGuard := mw.Guard[model.Teacher](d.Tokens, d.Metrics)
	defaultGate := mw.DefaultPasswordGate(d.Metrics)

	api := e.Group("/api/v1")

	admin := api.Group("/admin")
	admin.POST("", d.AdminHandler.Create)
	admin.POST("/login", d.AdminHandler.Login)
	admin.GET("/:id", d.AdminHandler.Get, adminByPath, adminGuard)
	admin.PUT("/:id", d.AdminHandler.Update, adminByPath, adminGuard)
	admin.PUT("/password/:id", d.AdminHandler.ChangePassword, adminByPath, adminGuard)
	admin.DELETE("/:id", d.AdminHandler.Delete, adminByPath, adminGuard)

	teacher := api.Group("/teacher")
	teacher.POST("", d.TeacherHandler.Create, adminByBody, adminGuard)
	teacher.POST("/login", d.TeacherHandler.Login)
	teacher.GET("/:id", d.TeacherHandler.Get, teacherByPath, teacherGuard, defaultGate)
	teacher.PUT("/:id", d.TeacherHandler.Update, teacherByPath, teacherGuard, defaultGate)
	teacher.PUT("/password/:id", d.TeacherHandler.ChangePassword, teacherByPath, teacherGuard, defaultGate)
	teacher.PUT("/default-password/:id", d.TeacherHandler.ChangeDefaultPassword, teacherByPath, teacherGuard)
	teacher.DELETE("/:id", d.TeacherHandler.Delete, teacherByPath, teacherGuard, defaultGate)
}
