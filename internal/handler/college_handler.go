package handler

import (
	"net/http"
	"time"

	"recruitment-service/internal/apperr"
	"recruitment-service/internal/model"
	"recruitment-service/internal/policy"
	"recruitment-service/pkg/database"
	"recruitment-service/pkg/logger"
	"recruitment-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CollegeRequest defines the payload for college creation/update.
type CollegeRequest struct {
	Name          string             `json:"college_name"`
	Code          string             `json:"college_code"`
	InstitutionID uint               `json:"institution_id"`
	Status        model.EntityStatus `json:"status"`
}

// CreateCollege creates a college inside an institution the principal
// administers.
func CreateCollege(c echo.Context) error {
	log := logger.FromContext(c)

	principal := actorFromEcho(c).Principal
	if principal == nil ||
		(principal.Role != model.RoleSuperAdmin && principal.Role != model.RoleInstitutionAdmin) {
		return respondError(c, apperr.PermissionDenied("only administrators can create colleges"))
	}

	var req CollegeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.Name == "" || req.Code == "" || req.InstitutionID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "college_name, college_code and institution_id are required"})
	}

	var inst model.Institution
	if err := database.GetDB().First(&inst, req.InstitutionID).Error; err != nil {
		return respondError(c, apperr.NotFound("institution"))
	}
	if !policy.CanAccessInstitution(principal, &inst) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	// Code is unique within the institution, not globally.
	var count int64
	database.GetDB().Model(&model.College{}).
		Where("college_code = ? AND institution_id = ?", req.Code, req.InstitutionID).
		Count(&count)
	if count > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "college with this code already exists in the institution"})
	}

	status := req.Status
	if status == "" {
		status = model.EntityStatusActive
	}
	if !status.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	college := model.College{
		Name:          req.Name,
		Code:          req.Code,
		InstitutionID: req.InstitutionID,
		Status:        status,
		CreatedByID:   userIDPtr(principal),
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&college).Error; err != nil {
		log.Error("Failed to create college", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create college"})
	}

	if err := recordActivity(c, userIDPtr(principal), model.ActionCreate, model.EntityCollege, &college.ID,
		"Created college: "+college.Name); err != nil {
		log.Error("Failed to record activity", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create college"})
	}

	return c.JSON(http.StatusCreated, college)
}

// ListColleges returns colleges in the principal's jurisdiction.
func ListColleges(c echo.Context) error {
	principal := actorFromEcho(c).Principal
	if principal == nil {
		return respondError(c, apperr.PermissionDenied(""))
	}

	page, limit, offset := pagination(c)
	query := database.GetDB().Model(&model.College{})

	switch principal.Role {
	case model.RoleSuperAdmin:
		// unrestricted
	case model.RoleInstitutionAdmin:
		if principal.InstitutionID == nil {
			return c.JSON(http.StatusOK, echo.Map{"colleges": []model.College{}, "total": 0})
		}
		query = query.Where("institution_id = ?", *principal.InstitutionID)
	case model.RoleHR, model.RoleHOD:
		ids := keys(principal.AssignedCollegeIDs)
		if len(ids) == 0 {
			return c.JSON(http.StatusOK, echo.Map{"colleges": []model.College{}, "total": 0})
		}
		query = query.Where("id IN ?", ids)
	default:
		return respondError(c, apperr.PermissionDenied(""))
	}

	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if institutionID := c.QueryParam("institution_id"); institutionID != "" {
		query = query.Where("institution_id = ?", institutionID)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var colleges []model.College
	var total int64
	query.Count(&total)
	if err := query.Order("created_at desc").Limit(limit).Offset(offset).Find(&colleges).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve colleges"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"colleges": colleges,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
		},
	})
}

// GetCollege retrieves one college by id.
func GetCollege(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	var college model.College
	if err := database.GetDB().First(&college, id).Error; err != nil {
		return respondError(c, apperr.NotFound("college"))
	}

	if !policy.CanAccessCollege(actorFromEcho(c).Principal, &college) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	return c.JSON(http.StatusOK, college)
}

// UpdateCollege updates a college's fields.
func UpdateCollege(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	var college model.College
	if err := database.GetDB().First(&college, id).Error; err != nil {
		return respondError(c, apperr.NotFound("college"))
	}

	principal := actorFromEcho(c).Principal
	if principal == nil ||
		(principal.Role != model.RoleSuperAdmin && principal.Role != model.RoleInstitutionAdmin) ||
		!policy.CanAccessCollege(principal, &college) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	var req CollegeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	if req.Code != "" && req.Code != college.Code {
		var count int64
		database.GetDB().Model(&model.College{}).
			Where("college_code = ? AND institution_id = ? AND id != ?", req.Code, college.InstitutionID, college.ID).
			Count(&count)
		if count > 0 {
			return c.JSON(http.StatusConflict, echo.Map{"error": "college with this code already exists in the institution"})
		}
		college.Code = req.Code
	}
	if req.Name != "" {
		college.Name = req.Name
	}
	if req.Status != "" {
		if !req.Status.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
		college.Status = req.Status
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Save(&college).Error; err != nil {
		log.Error("Failed to update college", zap.Uint("id", college.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update college"})
	}

	if err := recordActivity(c, userIDPtr(principal), model.ActionUpdate, model.EntityCollege, &college.ID,
		"Updated college: "+college.Name); err != nil {
		log.Error("Failed to record activity", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update college"})
	}

	return c.JSON(http.StatusOK, college)
}

// DeleteCollege soft-deletes a college.
func DeleteCollege(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	var college model.College
	if err := database.GetDB().First(&college, id).Error; err != nil {
		return respondError(c, apperr.NotFound("college"))
	}

	principal := actorFromEcho(c).Principal
	if principal == nil ||
		(principal.Role != model.RoleSuperAdmin && principal.Role != model.RoleInstitutionAdmin) ||
		!policy.CanAccessCollege(principal, &college) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&college).Error; err != nil {
		log.Error("Failed to delete college", zap.Uint("id", college.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete college"})
	}

	if err := recordActivity(c, userIDPtr(principal), model.ActionDelete, model.EntityCollege, &college.ID,
		"Deleted college: "+college.Name); err != nil {
		log.Error("Failed to record activity", zap.Error(err))
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "College deleted successfully"})
}

// CollegeDepartments lists departments under a college.
func CollegeDepartments(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	var college model.College
	if err := database.GetDB().First(&college, id).Error; err != nil {
		return respondError(c, apperr.NotFound("college"))
	}
	if !policy.CanAccessCollege(actorFromEcho(c).Principal, &college) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	var departments []model.Department
	if err := database.GetDB().Where("college_id = ?", college.ID).Order("created_at desc").Find(&departments).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve departments"})
	}
	return c.JSON(http.StatusOK, departments)
}

func keys(set map[uint]bool) []uint {
	out := make([]uint, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
