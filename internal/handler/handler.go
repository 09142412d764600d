package handler

import (
	"context"
	"strconv"

	"recruitment-service/internal/apperr"
	"recruitment-service/internal/audit"
	"recruitment-service/internal/lifecycle"
	"recruitment-service/internal/middleware"
	"recruitment-service/internal/model"
	"recruitment-service/pkg/database"
	"recruitment-service/prometheus"

	"github.com/labstack/echo/v4"
)

var (
	jobService         *lifecycle.JobService
	applicationService *lifecycle.ApplicationService
)

// Init wires the lifecycle services used by the action handlers.
func Init(jobs *lifecycle.JobService, applications *lifecycle.ApplicationService) {
	jobService = jobs
	applicationService = applications
}

// actorFromEcho builds the lifecycle actor for the current request.
func actorFromEcho(c echo.Context) lifecycle.Actor {
	return lifecycle.Actor{
		Principal: middleware.PrincipalFromEcho(c),
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}

// respondError maps coded errors to HTTP responses with a stable error code.
func respondError(c echo.Context, err error) error {
	code := apperr.CodeOf(err)
	if code == apperr.CodePermissionDenied {
		prometheus.PermissionDeniedCounter.Inc()
	}
	return c.JSON(apperr.HTTPStatus(err), echo.Map{
		"error": apperr.MessageOf(err),
		"code":  string(code),
	})
}

// recordActivity appends an audit row for handler-level actions (CRUD,
// login/logout). Lifecycle transitions record their own entries inside
// their transactions.
func recordActivity(c echo.Context, actorID *uint, action model.Action, kind model.EntityKind, entityID *uint, description string) error {
	recorder := audit.NewGormRecorder(database.GetDB())
	return recorder.Record(c.Request().Context(), audit.Entry{
		ActorID:     actorID,
		Action:      action,
		EntityKind:  kind,
		EntityID:    entityID,
		Description: description,
		IPAddress:   c.RealIP(),
		UserAgent:   c.Request().UserAgent(),
	})
}

// paramID parses the :id route parameter.
func paramID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, apperr.New(apperr.CodeValidation, "invalid id")
	}
	return uint(id), nil
}

// pagination extracts page/limit query parameters, capping limit at 100.
func pagination(c echo.Context) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return page, limit, (page - 1) * limit
}

// requestCtx shortens pulling the request context in handlers.
func requestCtx(c echo.Context) context.Context {
	return c.Request().Context()
}

// SyncPublishedJobsGauge recounts jobs currently open for applications and
// updates the gauge. Called at startup, after the deadline sweep and after
// handler actions that publish or close a posting.
func SyncPublishedJobsGauge() {
	var count int64
	if err := database.GetDB().Model(&model.Job{}).
		Where("job_status = ?", model.JobStatusPublished).
		Count(&count).Error; err != nil {
		return
	}
	prometheus.SetPublishedJobs(float64(count))
}
