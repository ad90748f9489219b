package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/portops/backend/internal/config"
	"github.com/portops/backend/internal/db"
	"github.com/portops/backend/internal/http/handlers"
	"github.com/portops/backend/internal/http/middleware"
	"github.com/portops/backend/internal/service"

	_ "github.com/portops/backend/docs"
)

func Router(cfg config.Config, store *db.Store, reports *service.Service, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.MaxMultipartMemory = cfg.MaxUploadSizeMB << 20

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id", "X-Role", "X-Company-Ids"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:     store,
		Reports:   reports,
		Validator: validator.New(),
		Logger:    logger,
		AdminKey:  cfg.AdminKey,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	api.Use(middleware.Viewer())
	{
		api.GET("/vessel-calls", h.VesselCallsList)
		api.GET("/vessel-calls/:id", h.VesselCallDetails)
		api.GET("/appointments", h.AppointmentsList)
		api.GET("/gate-events", h.GateEventsList)
		api.GET("/tramites", h.TramitesList)
		api.GET("/tramites/:id", h.TramiteDetails)
		api.GET("/berths", h.BerthsList)
		api.GET("/companies", h.CompaniesList)
		api.GET("/alerts", h.AlertsList)

		api.GET("/kpis/turnaround/:id", h.KpiTurnaround)
		api.GET("/kpis/espera/:id", h.KpiWaitingTime)
		api.GET("/kpis/cumplimiento/:id", h.KpiCompliance)
		api.GET("/kpis/despacho/:id", h.KpiCustomsLeadTime)

		rg := api.Group("/reports")
		{
			rg.GET("/r1", h.ReportR1)
			rg.GET("/r3", h.ReportR3)
			rg.GET("/r4", h.ReportR4)
			rg.GET("/r5", h.ReportR5)
			rg.GET("/r6", h.ReportR6)
			rg.GET("/r7", h.ReportR7)
			rg.GET("/r8", h.ReportR8)
			rg.GET("/r9", h.ReportR9)
			rg.GET("/r10", h.ReportR10)
			rg.GET("/r11", h.ReportR11)
			rg.GET("/r12", h.ReportR12)
		}
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/import", h.Import)
		admin.POST("/alerts/scan", h.AlertScan)
		admin.POST("/alerts/:id/ack", h.AlertAck)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
