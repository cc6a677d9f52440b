package handler

import (
	"github.com/vidshelf/youtube-list-ingestion-go/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig collects everything the API router wires together.
type RouterConfig struct {
	Auth     *middleware.Auth
	Health   *HealthHandler
	Lists    *ListHandler
	Ingest   *IngestHandler
	Videos   *VideoHandler
	Values   *ValueHandler
	Fields   *FieldHandler
	Schemas  *SchemaHandler
	Tags     *TagHandler
	Backups  *BackupHandler
	Progress *ProgressHandler
	ServeWS  gin.HandlerFunc
}

// NewRouter builds the gin engine. Health, metrics and the websocket are
// public; the websocket authenticates in-band with its auth frame. Everything
// else sits behind bearer auth.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Metrics())

	r.GET("/healthz", cfg.Health.ReadinessProbe)
	r.GET("/livez", cfg.Health.LivenessProbe)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", cfg.ServeWS)

	api := r.Group("/", cfg.Auth.RequireAuth())

	// Lists
	api.POST("/lists", cfg.Lists.CreateList)
	api.GET("/lists", cfg.Lists.GetLists)
	api.GET("/lists/:list_id", cfg.Lists.GetList)
	api.PUT("/lists/:list_id", cfg.Lists.RenameList)
	api.DELETE("/lists/:list_id", cfg.Lists.DeleteList)
	api.PUT("/lists/:list_id/schema", cfg.Lists.SetWorkspaceSchema)

	// Ingestion
	api.POST("/lists/:list_id/videos/bulk", cfg.Ingest.SubmitBulk)
	api.POST("/lists/:list_id/videos/import", cfg.Ingest.SubmitImport)
	api.GET("/lists/:list_id/videos", cfg.Videos.ListVideos)

	// Custom fields
	api.POST("/lists/:list_id/custom-fields", cfg.Fields.CreateField)
	api.GET("/lists/:list_id/custom-fields", cfg.Fields.GetFields)
	api.POST("/lists/:list_id/custom-fields/check-duplicate", cfg.Fields.CheckDuplicate)
	api.GET("/lists/:list_id/custom-fields/:field_id", cfg.Fields.GetField)
	api.PUT("/lists/:list_id/custom-fields/:field_id", cfg.Fields.UpdateField)
	api.DELETE("/lists/:list_id/custom-fields/:field_id", cfg.Fields.DeleteField)

	// Schemas
	api.POST("/lists/:list_id/schemas", cfg.Schemas.CreateSchema)
	api.GET("/lists/:list_id/schemas", cfg.Schemas.GetSchemas)
	api.GET("/lists/:list_id/schemas/:schema_id", cfg.Schemas.GetSchema)
	api.PUT("/lists/:list_id/schemas/:schema_id", cfg.Schemas.UpdateSchema)
	api.PUT("/lists/:list_id/schemas/:schema_id/reorder", cfg.Schemas.ReorderFields)
	api.DELETE("/lists/:list_id/schemas/:schema_id", cfg.Schemas.DeleteSchema)

	// Videos
	api.GET("/videos/:id", cfg.Videos.GetVideo)
	api.DELETE("/videos/:id", cfg.Videos.DeleteVideo)
	api.PATCH("/videos/:id/progress", cfg.Videos.UpdateWatchPosition)
	api.POST("/videos/:id/retry", cfg.Ingest.RetryVideo)

	// Field values and backups
	api.GET("/videos/:id/fields", cfg.Values.GetValues)
	api.PUT("/videos/:id/fields", cfg.Values.UpdateValues)
	api.GET("/videos/:id/backups", cfg.Backups.GetBackups)
	api.POST("/videos/:id/fields/restore", cfg.Backups.Restore)

	// Tags
	api.POST("/tags", cfg.Tags.CreateTag)
	api.GET("/tags", cfg.Tags.GetTags)
	api.PUT("/tags/:tag_id", cfg.Tags.UpdateTag)
	api.DELETE("/tags/:tag_id", cfg.Tags.DeleteTag)
	api.GET("/videos/:id/tags", cfg.Tags.GetVideoTags)
	api.PUT("/videos/:id/tags/:tag_id", cfg.Tags.AttachTag)
	api.DELETE("/videos/:id/tags/:tag_id", cfg.Tags.DetachTag)

	// Job progress replay, registered for POST and GET alike so reconnecting
	// websocket clients and plain pollers share one endpoint.
	api.POST("/jobs/:job_id/progress", cfg.Progress.JobProgress)
	api.GET("/jobs/:job_id/progress", cfg.Progress.JobProgress)

	return r
}
