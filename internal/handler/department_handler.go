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

// DepartmentRequest defines the payload for department creation/update.
type DepartmentRequest struct {
	Name      string             `json:"department_name"`
	Code      string             `json:"department_code"`
	CollegeID uint               `json:"college_id"`
	Status    model.EntityStatus `json:"status"`
}

// CreateDepartment creates a department inside a college. The institution FK
// is denormalized from the parent college.
func CreateDepartment(c echo.Context) error {
	log := logger.FromContext(c)

	principal := actorFromEcho(c).Principal
	if principal == nil ||
		(principal.Role != model.RoleSuperAdmin && principal.Role != model.RoleInstitutionAdmin) {
		return respondError(c, apperr.PermissionDenied("only administrators can create departments"))
	}

	var req DepartmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.Name == "" || req.Code == "" || req.CollegeID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "department_name, department_code and college_id are required"})
	}

	var college model.College
	if err := database.GetDB().First(&college, req.CollegeID).Error; err != nil {
		return respondError(c, apperr.NotFound("college"))
	}
	if !policy.CanAccessCollege(principal, &college) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	var count int64
	database.GetDB().Model(&model.Department{}).
		Where("department_code = ? AND college_id = ?", req.Code, req.CollegeID).
		Count(&count)
	if count > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "department with this code already exists in the college"})
	}

	status := req.Status
	if status == "" {
		status = model.EntityStatusActive
	}
	if !status.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	dept := model.Department{
		Name:          req.Name,
		Code:          req.Code,
		CollegeID:     college.ID,
		InstitutionID: college.InstitutionID,
		Status:        status,
		CreatedByID:   userIDPtr(principal),
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&dept).Error; err != nil {
		log.Error("Failed to create department", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create department"})
	}

	if err := recordActivity(c, userIDPtr(principal), model.ActionCreate, model.EntityDepartment, &dept.ID,
		"Created department: "+dept.Name); err != nil {
		log.Error("Failed to record activity", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create department"})
	}

	return c.JSON(http.StatusCreated, dept)
}

// ListDepartments returns departments in the principal's jurisdiction.
func ListDepartments(c echo.Context) error {
	principal := actorFromEcho(c).Principal
	if principal == nil {
		return respondError(c, apperr.PermissionDenied(""))
	}

	page, limit, offset := pagination(c)
	query := database.GetDB().Model(&model.Department{})

	switch principal.Role {
	case model.RoleSuperAdmin:
		// unrestricted
	case model.RoleInstitutionAdmin:
		if principal.InstitutionID == nil {
			return c.JSON(http.StatusOK, echo.Map{"departments": []model.Department{}, "total": 0})
		}
		query = query.Where("institution_id = ?", *principal.InstitutionID)
	case model.RoleHR, model.RoleHOD:
		deptIDs := keys(principal.AssignedDepartmentIDs)
		collegeIDs := keys(principal.AssignedCollegeIDs)
		if len(deptIDs) == 0 && len(collegeIDs) == 0 {
			return c.JSON(http.StatusOK, echo.Map{"departments": []model.Department{}, "total": 0})
		}
		switch {
		case len(deptIDs) > 0 && len(collegeIDs) > 0:
			query = query.Where("id IN ? OR college_id IN ?", deptIDs, collegeIDs)
		case len(deptIDs) > 0:
			query = query.Where("id IN ?", deptIDs)
		default:
			query = query.Where("college_id IN ?", collegeIDs)
		}
	default:
		return respondError(c, apperr.PermissionDenied(""))
	}

	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if collegeID := c.QueryParam("college_id"); collegeID != "" {
		query = query.Where("college_id = ?", collegeID)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var departments []model.Department
	var total int64
	query.Count(&total)
	if err := query.Order("created_at desc").Limit(limit).Offset(offset).Find(&departments).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve departments"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"departments": departments,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
		},
	})
}

// GetDepartment retrieves one department by id.
func GetDepartment(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	var dept model.Department
	if err := database.GetDB().First(&dept, id).Error; err != nil {
		return respondError(c, apperr.NotFound("department"))
	}

	if !policy.CanAccessDepartment(actorFromEcho(c).Principal, &dept) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	return c.JSON(http.StatusOK, dept)
}

// UpdateDepartment updates a department's fields.
func UpdateDepartment(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	var dept model.Department
	if err := database.GetDB().First(&dept, id).Error; err != nil {
		return respondError(c, apperr.NotFound("department"))
	}

	principal := actorFromEcho(c).Principal
	if principal == nil ||
		(principal.Role != model.RoleSuperAdmin && principal.Role != model.RoleInstitutionAdmin) ||
		!policy.CanAccessDepartment(principal, &dept) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	var req DepartmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	if req.Code != "" && req.Code != dept.Code {
		var count int64
		database.GetDB().Model(&model.Department{}).
			Where("department_code = ? AND college_id = ? AND id != ?", req.Code, dept.CollegeID, dept.ID).
			Count(&count)
		if count > 0 {
			return c.JSON(http.StatusConflict, echo.Map{"error": "department with this code already exists in the college"})
		}
		dept.Code = req.Code
	}
	if req.Name != "" {
		dept.Name = req.Name
	}
	if req.Status != "" {
		if !req.Status.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
		dept.Status = req.Status
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Save(&dept).Error; err != nil {
		log.Error("Failed to update department", zap.Uint("id", dept.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update department"})
	}

	if err := recordActivity(c, userIDPtr(principal), model.ActionUpdate, model.EntityDepartment, &dept.ID,
		"Updated department: "+dept.Name); err != nil {
		log.Error("Failed to record activity", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update department"})
	}

	return c.JSON(http.StatusOK, dept)
}

// DeleteDepartment soft-deletes a department.
func DeleteDepartment(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	var dept model.Department
	if err := database.GetDB().First(&dept, id).Error; err != nil {
		return respondError(c, apperr.NotFound("department"))
	}

	principal := actorFromEcho(c).Principal
	if principal == nil ||
		(principal.Role != model.RoleSuperAdmin && principal.Role != model.RoleInstitutionAdmin) ||
		!policy.CanAccessDepartment(principal, &dept) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&dept).Error; err != nil {
		log.Error("Failed to delete department", zap.Uint("id", dept.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete department"})
	}

	if err := recordActivity(c, userIDPtr(principal), model.ActionDelete, model.EntityDepartment, &dept.ID,
		"Deleted department: "+dept.Name); err != nil {
		log.Error("Failed to record activity", zap.Error(err))
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Department deleted successfully"})
}
