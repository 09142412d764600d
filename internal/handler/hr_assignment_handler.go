package handler

import (
	"net/http"
	"time"

	"recruitment-service/internal/apperr"
	"recruitment-service/internal/model"
	"recruitment-service/pkg/database"
	"recruitment-service/pkg/logger"
	"recruitment-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// HRAssignmentRequest grants an hr/hod user jurisdiction over an
// institution, optionally narrowed to one college or department.
type HRAssignmentRequest struct {
	HRUserID      uint  `json:"hr_user_id"`
	InstitutionID uint  `json:"institution_id"`
	CollegeID     *uint `json:"college_id"`
	DepartmentID  *uint `json:"department_id"`
}

// CreateHRAssignment records the assignment and syncs the user's college and
// department associations so jurisdiction checks see the grant immediately.
func CreateHRAssignment(c echo.Context) error {
	log := logger.FromContext(c)

	principal := actorFromEcho(c).Principal
	if principal == nil ||
		(principal.Role != model.RoleSuperAdmin && principal.Role != model.RoleInstitutionAdmin) {
		return respondError(c, apperr.PermissionDenied("only administrators can assign hr jurisdiction"))
	}

	var req HRAssignmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.HRUserID == 0 || req.InstitutionID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "hr_user_id and institution_id are required"})
	}

	if principal.Role == model.RoleInstitutionAdmin &&
		(principal.InstitutionID == nil || *principal.InstitutionID != req.InstitutionID) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	var hrUser model.User
	if err := database.GetDB().First(&hrUser, req.HRUserID).Error; err != nil {
		return respondError(c, apperr.NotFound("user"))
	}
	if hrUser.Role != model.RoleHR && hrUser.Role != model.RoleHOD {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "assignments apply to hr and hod accounts only"})
	}

	var count int64
	database.GetDB().Model(&model.HRAssignment{}).
		Where("hr_user_id = ? AND institution_id = ?", req.HRUserID, req.InstitutionID).
		Count(&count)
	if count > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "user already has an assignment for this institution"})
	}

	if req.CollegeID != nil {
		var college model.College
		if err := database.GetDB().First(&college, *req.CollegeID).Error; err != nil {
			return respondError(c, apperr.NotFound("college"))
		}
		if college.InstitutionID != req.InstitutionID {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "college does not belong to the institution"})
		}
	}
	if req.DepartmentID != nil {
		var dept model.Department
		if err := database.GetDB().First(&dept, *req.DepartmentID).Error; err != nil {
			return respondError(c, apperr.NotFound("department"))
		}
		if dept.InstitutionID != req.InstitutionID {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "department does not belong to the institution"})
		}
	}

	assignment := model.HRAssignment{
		HRUserID:      req.HRUserID,
		InstitutionID: req.InstitutionID,
		CollegeID:     req.CollegeID,
		DepartmentID:  req.DepartmentID,
		AssignedByID:  userIDPtr(principal),
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&assignment).Error; err != nil {
		log.Error("Failed to create hr assignment", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create assignment"})
	}

	if err := syncUserJurisdiction(&hrUser, req.InstitutionID, req.CollegeID, req.DepartmentID); err != nil {
		log.Error("Failed to sync user jurisdiction", zap.Uint("user_id", hrUser.ID), zap.Error(err))
	}

	if err := recordActivity(c, userIDPtr(principal), model.ActionCreate, model.EntityHRAssignment, &assignment.ID,
		"Assigned "+hrUser.Username+" to institution"); err != nil {
		log.Error("Failed to record activity", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create assignment"})
	}

	return c.JSON(http.StatusCreated, assignment)
}

// syncUserJurisdiction mirrors an assignment onto the user row: institution
// membership plus the college/department association rows the policy layer
// loads per request.
func syncUserJurisdiction(user *model.User, institutionID uint, collegeID, departmentID *uint) error {
	db := database.GetDB()
	if user.InstitutionID == nil {
		if err := db.Model(user).Update("institution_id", institutionID).Error; err != nil {
			return err
		}
	}
	if collegeID != nil {
		var college model.College
		if err := db.First(&college, *collegeID).Error; err != nil {
			return err
		}
		if err := db.Model(user).Association("AssignedColleges").Append(&college); err != nil {
			return err
		}
	}
	if departmentID != nil {
		var dept model.Department
		if err := db.First(&dept, *departmentID).Error; err != nil {
			return err
		}
		if err := db.Model(user).Association("AssignedDepartments").Append(&dept); err != nil {
			return err
		}
	}
	return nil
}

// ListHRAssignments returns assignments visible to the principal.
func ListHRAssignments(c echo.Context) error {
	principal := actorFromEcho(c).Principal
	if principal == nil ||
		(principal.Role != model.RoleSuperAdmin && principal.Role != model.RoleInstitutionAdmin) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	page, limit, offset := pagination(c)
	query := database.GetDB().Model(&model.HRAssignment{})

	if principal.Role == model.RoleInstitutionAdmin {
		if principal.InstitutionID == nil {
			return c.JSON(http.StatusOK, echo.Map{"assignments": []model.HRAssignment{}, "total": 0})
		}
		query = query.Where("institution_id = ?", *principal.InstitutionID)
	}
	if userID := c.QueryParam("hr_user_id"); userID != "" {
		query = query.Where("hr_user_id = ?", userID)
	}
	if institutionID := c.QueryParam("institution_id"); institutionID != "" && principal.Role == model.RoleSuperAdmin {
		query = query.Where("institution_id = ?", institutionID)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var assignments []model.HRAssignment
	var total int64
	query.Count(&total)
	if err := query.Preload("HRUser").Preload("Institution").
		Order("assigned_at desc").Limit(limit).Offset(offset).Find(&assignments).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve assignments"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"assignments": assignments,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
		},
	})
}

// GetHRAssignment retrieves one assignment.
func GetHRAssignment(c echo.Context) error {
	principal := actorFromEcho(c).Principal
	if principal == nil ||
		(principal.Role != model.RoleSuperAdmin && principal.Role != model.RoleInstitutionAdmin) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	var assignment model.HRAssignment
	if err := database.GetDB().
		Preload("HRUser").
		Preload("Institution").
		Preload("College").
		Preload("Department").
		First(&assignment, id).Error; err != nil {
		return respondError(c, apperr.NotFound("assignment"))
	}

	if principal.Role == model.RoleInstitutionAdmin &&
		(principal.InstitutionID == nil || *principal.InstitutionID != assignment.InstitutionID) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	return c.JSON(http.StatusOK, assignment)
}

// DeleteHRAssignment revokes an assignment and removes the matching
// college/department associations from the user.
func DeleteHRAssignment(c echo.Context) error {
	log := logger.FromContext(c)

	principal := actorFromEcho(c).Principal
	if principal == nil ||
		(principal.Role != model.RoleSuperAdmin && principal.Role != model.RoleInstitutionAdmin) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	var assignment model.HRAssignment
	if err := database.GetDB().First(&assignment, id).Error; err != nil {
		return respondError(c, apperr.NotFound("assignment"))
	}

	if principal.Role == model.RoleInstitutionAdmin &&
		(principal.InstitutionID == nil || *principal.InstitutionID != assignment.InstitutionID) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&assignment).Error; err != nil {
		log.Error("Failed to delete hr assignment", zap.Uint("id", assignment.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete assignment"})
	}

	var hrUser model.User
	if err := database.GetDB().First(&hrUser, assignment.HRUserID).Error; err == nil {
		if assignment.CollegeID != nil {
			college := model.College{ID: *assignment.CollegeID}
			if err := database.GetDB().Model(&hrUser).Association("AssignedColleges").Delete(&college); err != nil {
				log.Error("Failed to remove college association", zap.Error(err))
			}
		}
		if assignment.DepartmentID != nil {
			dept := model.Department{ID: *assignment.DepartmentID}
			if err := database.GetDB().Model(&hrUser).Association("AssignedDepartments").Delete(&dept); err != nil {
				log.Error("Failed to remove department association", zap.Error(err))
			}
		}
	}

	if err := recordActivity(c, userIDPtr(principal), model.ActionDelete, model.EntityHRAssignment, &assignment.ID,
		"Revoked hr assignment"); err != nil {
		log.Error("Failed to record activity", zap.Error(err))
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Assignment revoked"})
}
