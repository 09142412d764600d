package handler

import (
	"net/http"
	"time"

	"recruitment-service/internal/apperr"
	"recruitment-service/internal/model"
	"recruitment-service/pkg/database"
	"recruitment-service/prometheus"

	"github.com/labstack/echo/v4"
)

// ListActivityLogs is the read-only audit trail view for administrators.
// The log is append-only; there are no mutation endpoints.
func ListActivityLogs(c echo.Context) error {
	principal := actorFromEcho(c).Principal
	if principal == nil ||
		(principal.Role != model.RoleSuperAdmin && principal.Role != model.RoleInstitutionAdmin) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	page, limit, offset := pagination(c)
	query := database.GetDB().Model(&model.ActivityLog{})

	if action := c.QueryParam("action"); action != "" {
		query = query.Where("action = ?", action)
	}
	if kind := c.QueryParam("entity_kind"); kind != "" {
		query = query.Where("entity_kind = ?", kind)
	}
	if entityID := c.QueryParam("entity_id"); entityID != "" {
		query = query.Where("entity_id = ?", entityID)
	}
	if userID := c.QueryParam("user_id"); userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if from := c.QueryParam("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			query = query.Where("created_at >= ?", t)
		}
	}
	if to := c.QueryParam("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			query = query.Where("created_at <= ?", t)
		}
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var logs []model.ActivityLog
	var total int64
	query.Count(&total)
	if err := query.Preload("User").Order("created_at desc").
		Limit(limit).Offset(offset).Find(&logs).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve activity logs"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"activity_logs": logs,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
		},
	})
}

// EntityActivityLogs lists the audit trail for one entity.
func EntityActivityLogs(c echo.Context) error {
	principal := actorFromEcho(c).Principal
	if principal == nil ||
		(principal.Role != model.RoleSuperAdmin && principal.Role != model.RoleInstitutionAdmin) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	kind := model.EntityKind(c.Param("kind"))
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var logs []model.ActivityLog
	if err := database.GetDB().
		Where("entity_kind = ? AND entity_id = ?", kind, id).
		Order("created_at asc").
		Find(&logs).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve activity logs"})
	}
	return c.JSON(http.StatusOK, logs)
}
