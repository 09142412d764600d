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
	"golang.org/x/crypto/bcrypt"
)

// UserRequest is the admin payload for creating/updating staff accounts.
type UserRequest struct {
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	Password      string     `json:"password"`
	Phone         string     `json:"phone"`
	Role          model.Role `json:"role"`
	InstitutionID *uint      `json:"institution_id"`
	CollegeIDs    []uint     `json:"college_ids"`
	DepartmentIDs []uint     `json:"department_ids"`
}

// CreateUser creates a staff account. Super admins may create any role;
// institution admins may create hr/hod inside their own institution.
func CreateUser(c echo.Context) error {
	log := logger.FromContext(c)

	principal := actorFromEcho(c).Principal
	if !policy.CanManageUsers(principal) {
		return respondError(c, apperr.PermissionDenied("only administrators can create users"))
	}

	var req UserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username, email and password are required"})
	}
	if !req.Role.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
	}

	if principal.Role == model.RoleInstitutionAdmin {
		if req.Role != model.RoleHR && req.Role != model.RoleHOD {
			return respondError(c, apperr.PermissionDenied("institution admins may only create hr and hod accounts"))
		}
		req.InstitutionID = principal.InstitutionID
	}
	if (req.Role == model.RoleInstitutionAdmin || req.Role == model.RoleHR || req.Role == model.RoleHOD) &&
		req.InstitutionID == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "institution_id is required for this role"})
	}

	var count int64
	database.GetDB().Model(&model.User{}).
		Where("username = ? OR email = ?", req.Username, req.Email).Count(&count)
	if count > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "username or email already registered"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create user"})
	}

	user := model.User{
		Username:      req.Username,
		Email:         req.Email,
		Password:      string(hashed),
		Phone:         req.Phone,
		Role:          req.Role,
		InstitutionID: req.InstitutionID,
		Status:        model.UserStatusActive,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&user).Error; err != nil {
		log.Error("Failed to create user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create user"})
	}

	if len(req.CollegeIDs) > 0 {
		var colleges []model.College
		database.GetDB().Find(&colleges, req.CollegeIDs)
		if err := database.GetDB().Model(&user).Association("AssignedColleges").Replace(colleges); err != nil {
			log.Error("Failed to assign colleges", zap.Error(err))
		}
	}
	if len(req.DepartmentIDs) > 0 {
		var departments []model.Department
		database.GetDB().Find(&departments, req.DepartmentIDs)
		if err := database.GetDB().Model(&user).Association("AssignedDepartments").Replace(departments); err != nil {
			log.Error("Failed to assign departments", zap.Error(err))
		}
	}

	if err := recordActivity(c, userIDPtr(principal), model.ActionCreate, model.EntityUser, &user.ID,
		"Created user "+user.Username+" with role "+string(user.Role)); err != nil {
		log.Error("Failed to record activity", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create user"})
	}

	return c.JSON(http.StatusCreated, user)
}

// ListUsers returns user accounts visible to the principal.
func ListUsers(c echo.Context) error {
	principal := actorFromEcho(c).Principal
	if !policy.CanManageUsers(principal) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	page, limit, offset := pagination(c)
	query := database.GetDB().Model(&model.User{})

	if principal.Role == model.RoleInstitutionAdmin {
		if principal.InstitutionID == nil {
			return c.JSON(http.StatusOK, echo.Map{"users": []model.User{}, "total": 0})
		}
		query = query.Where("institution_id = ?", *principal.InstitutionID)
	}

	if role := c.QueryParam("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var users []model.User
	var total int64
	query.Count(&total)
	if err := query.Order("created_at desc").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve users"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"users": users,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
		},
	})
}

// GetUser retrieves one user account.
func GetUser(c echo.Context) error {
	principal := actorFromEcho(c).Principal
	if !policy.CanManageUsers(principal) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	var user model.User
	if err := database.GetDB().
		Preload("AssignedColleges").
		Preload("AssignedDepartments").
		First(&user, id).Error; err != nil {
		return respondError(c, apperr.NotFound("user"))
	}

	if principal.Role == model.RoleInstitutionAdmin &&
		(user.InstitutionID == nil || principal.InstitutionID == nil || *user.InstitutionID != *principal.InstitutionID) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	return c.JSON(http.StatusOK, user)
}

// UpdateUser updates a user's contact details, role and assignments.
func UpdateUser(c echo.Context) error {
	log := logger.FromContext(c)

	principal := actorFromEcho(c).Principal
	if !policy.CanManageUsers(principal) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	var user model.User
	if err := database.GetDB().First(&user, id).Error; err != nil {
		return respondError(c, apperr.NotFound("user"))
	}

	if principal.Role == model.RoleInstitutionAdmin {
		if user.InstitutionID == nil || principal.InstitutionID == nil || *user.InstitutionID != *principal.InstitutionID {
			return respondError(c, apperr.PermissionDenied(""))
		}
		if user.Role != model.RoleHR && user.Role != model.RoleHOD {
			return respondError(c, apperr.PermissionDenied("institution admins may only manage hr and hod accounts"))
		}
	}

	var req UserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	if req.Email != "" && req.Email != user.Email {
		var count int64
		database.GetDB().Model(&model.User{}).
			Where("email = ? AND id != ?", req.Email, user.ID).Count(&count)
		if count > 0 {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		user.Email = req.Email
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.Role != "" && principal.Role == model.RoleSuperAdmin {
		if !req.Role.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
		}
		user.Role = req.Role
	}
	if req.InstitutionID != nil && principal.Role == model.RoleSuperAdmin {
		user.InstitutionID = req.InstitutionID
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Save(&user).Error; err != nil {
		log.Error("Failed to update user", zap.Uint("id", user.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update user"})
	}

	if req.CollegeIDs != nil {
		var colleges []model.College
		if len(req.CollegeIDs) > 0 {
			database.GetDB().Find(&colleges, req.CollegeIDs)
		}
		if err := database.GetDB().Model(&user).Association("AssignedColleges").Replace(colleges); err != nil {
			log.Error("Failed to update college assignments", zap.Error(err))
		}
	}
	if req.DepartmentIDs != nil {
		var departments []model.Department
		if len(req.DepartmentIDs) > 0 {
			database.GetDB().Find(&departments, req.DepartmentIDs)
		}
		if err := database.GetDB().Model(&user).Association("AssignedDepartments").Replace(departments); err != nil {
			log.Error("Failed to update department assignments", zap.Error(err))
		}
	}

	if err := recordActivity(c, userIDPtr(principal), model.ActionUpdate, model.EntityUser, &user.ID,
		"Updated user "+user.Username); err != nil {
		log.Error("Failed to record activity", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update user"})
	}

	return c.JSON(http.StatusOK, user)
}

// ChangeUserStatus activates, deactivates or archives an account. Accounts
// are never hard-deleted.
func ChangeUserStatus(c echo.Context) error {
	log := logger.FromContext(c)

	principal := actorFromEcho(c).Principal
	if !policy.CanManageUsers(principal) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Status model.UserStatus `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if !req.Status.Valid() {
		return respondError(c, apperr.InvalidStatus(string(req.Status)))
	}

	var user model.User
	if err := database.GetDB().First(&user, id).Error; err != nil {
		return respondError(c, apperr.NotFound("user"))
	}

	if principal.Role == model.RoleInstitutionAdmin {
		if user.InstitutionID == nil || principal.InstitutionID == nil || *user.InstitutionID != *principal.InstitutionID {
			return respondError(c, apperr.PermissionDenied(""))
		}
	}
	if user.ID == principal.UserID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot change own account status"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&user).Update("status", req.Status).Error; err != nil {
		log.Error("Failed to change user status", zap.Uint("id", user.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to change user status"})
	}

	action := model.ActionUpdate
	if req.Status == model.UserStatusArchived {
		action = model.ActionArchive
	}
	if err := recordActivity(c, userIDPtr(principal), action, model.EntityUser, &user.ID,
		"Changed status of "+user.Username+" to "+string(req.Status)); err != nil {
		log.Error("Failed to record activity", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to change user status"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "User status updated", "status": req.Status})
}

// UsersByRole lists accounts holding a given role.
func UsersByRole(c echo.Context) error {
	principal := actorFromEcho(c).Principal
	if !policy.CanManageUsers(principal) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	role := model.Role(c.Param("role"))
	if !role.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
	}

	query := database.GetDB().Where("role = ?", role)
	if principal.Role == model.RoleInstitutionAdmin {
		if principal.InstitutionID == nil {
			return c.JSON(http.StatusOK, []model.User{})
		}
		query = query.Where("institution_id = ?", *principal.InstitutionID)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var users []model.User
	if err := query.Order("username asc").Find(&users).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve users"})
	}
	return c.JSON(http.StatusOK, users)
}
