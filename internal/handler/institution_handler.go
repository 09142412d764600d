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

// InstitutionRequest defines the payload for institution creation/update.
type InstitutionRequest struct {
	Name    string             `json:"institution_name"`
	Code    string             `json:"institution_code"`
	Email   string             `json:"institution_email"`
	Phone   string             `json:"institution_phone"`
	Address string             `json:"address"`
	Status  model.EntityStatus `json:"status"`
}

// CreateInstitution creates a new institution (super admin only).
func CreateInstitution(c echo.Context) error {
	log := logger.FromContext(c)

	principal := actorFromEcho(c).Principal
	if principal == nil || principal.Role != model.RoleSuperAdmin {
		return respondError(c, apperr.PermissionDenied("only super admin can create institutions"))
	}

	var req InstitutionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.Name == "" || req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "institution_name and institution_code are required"})
	}

	var count int64
	database.GetDB().Model(&model.Institution{}).Where("institution_code = ?", req.Code).Count(&count)
	if count > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "institution with this code already exists"})
	}

	status := req.Status
	if status == "" {
		status = model.EntityStatusActive
	}
	if !status.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	inst := model.Institution{
		Name:        req.Name,
		Code:        req.Code,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		Status:      status,
		CreatedByID: userIDPtr(principal),
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&inst).Error; err != nil {
		log.Error("Failed to create institution", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create institution"})
	}

	if err := recordActivity(c, userIDPtr(principal), model.ActionCreate, model.EntityInstitution, &inst.ID,
		"Created institution: "+inst.Name); err != nil {
		log.Error("Failed to record activity", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create institution"})
	}

	log.Info("Institution created", zap.Uint("id", inst.ID), zap.String("code", inst.Code))
	return c.JSON(http.StatusCreated, inst)
}

// ListInstitutions returns institutions visible to the principal.
func ListInstitutions(c echo.Context) error {
	principal := actorFromEcho(c).Principal
	if principal == nil {
		return respondError(c, apperr.PermissionDenied(""))
	}

	page, limit, offset := pagination(c)
	query := database.GetDB().Model(&model.Institution{})

	switch principal.Role {
	case model.RoleSuperAdmin:
		// unrestricted
	default:
		if principal.InstitutionID == nil {
			return c.JSON(http.StatusOK, echo.Map{"institutions": []model.Institution{}, "total": 0})
		}
		query = query.Where("id = ?", *principal.InstitutionID)
	}

	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var institutions []model.Institution
	var total int64
	query.Count(&total)
	if err := query.Order("created_at desc").Limit(limit).Offset(offset).Find(&institutions).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve institutions"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"institutions": institutions,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
		},
	})
}

// GetInstitution retrieves one institution by id.
func GetInstitution(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	var inst model.Institution
	if err := database.GetDB().First(&inst, id).Error; err != nil {
		return respondError(c, apperr.NotFound("institution"))
	}

	principal := actorFromEcho(c).Principal
	if !policy.CanAccessInstitution(principal, &inst) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	return c.JSON(http.StatusOK, inst)
}

// UpdateInstitution updates an institution's fields.
func UpdateInstitution(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	var inst model.Institution
	if err := database.GetDB().First(&inst, id).Error; err != nil {
		return respondError(c, apperr.NotFound("institution"))
	}

	principal := actorFromEcho(c).Principal
	if principal == nil ||
		(principal.Role != model.RoleSuperAdmin && principal.Role != model.RoleInstitutionAdmin) ||
		!policy.CanAccessInstitution(principal, &inst) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	var req InstitutionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	if req.Code != "" && req.Code != inst.Code {
		var count int64
		database.GetDB().Model(&model.Institution{}).
			Where("institution_code = ? AND id != ?", req.Code, inst.ID).Count(&count)
		if count > 0 {
			return c.JSON(http.StatusConflict, echo.Map{"error": "institution with this code already exists"})
		}
		inst.Code = req.Code
	}
	if req.Name != "" {
		inst.Name = req.Name
	}
	if req.Email != "" {
		inst.Email = req.Email
	}
	if req.Phone != "" {
		inst.Phone = req.Phone
	}
	if req.Address != "" {
		inst.Address = req.Address
	}
	if req.Status != "" {
		if !req.Status.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
		inst.Status = req.Status
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Save(&inst).Error; err != nil {
		log.Error("Failed to update institution", zap.Uint("id", inst.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update institution"})
	}

	if err := recordActivity(c, userIDPtr(principal), model.ActionUpdate, model.EntityInstitution, &inst.ID,
		"Updated institution: "+inst.Name); err != nil {
		log.Error("Failed to record activity", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update institution"})
	}

	return c.JSON(http.StatusOK, inst)
}

// DeleteInstitution soft-deletes an institution (super admin only).
func DeleteInstitution(c echo.Context) error {
	log := logger.FromContext(c)

	principal := actorFromEcho(c).Principal
	if principal == nil || principal.Role != model.RoleSuperAdmin {
		return respondError(c, apperr.PermissionDenied("only super admin can delete institutions"))
	}

	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	var inst model.Institution
	if err := database.GetDB().First(&inst, id).Error; err != nil {
		return respondError(c, apperr.NotFound("institution"))
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&inst).Error; err != nil {
		log.Error("Failed to delete institution", zap.Uint("id", inst.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete institution"})
	}

	if err := recordActivity(c, userIDPtr(principal), model.ActionDelete, model.EntityInstitution, &inst.ID,
		"Deleted institution: "+inst.Name); err != nil {
		log.Error("Failed to record activity", zap.Error(err))
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Institution deleted successfully"})
}

// InstitutionColleges lists colleges under an institution.
func InstitutionColleges(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	var inst model.Institution
	if err := database.GetDB().First(&inst, id).Error; err != nil {
		return respondError(c, apperr.NotFound("institution"))
	}
	if !policy.CanAccessInstitution(actorFromEcho(c).Principal, &inst) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	var colleges []model.College
	if err := database.GetDB().Where("institution_id = ?", inst.ID).Order("created_at desc").Find(&colleges).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve colleges"})
	}
	return c.JSON(http.StatusOK, colleges)
}

// InstitutionDepartments lists departments under an institution.
func InstitutionDepartments(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	var inst model.Institution
	if err := database.GetDB().First(&inst, id).Error; err != nil {
		return respondError(c, apperr.NotFound("institution"))
	}
	if !policy.CanAccessInstitution(actorFromEcho(c).Principal, &inst) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	var departments []model.Department
	if err := database.GetDB().Where("institution_id = ?", inst.ID).Order("created_at desc").Find(&departments).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve departments"})
	}
	return c.JSON(http.StatusOK, departments)
}

// InstitutionJobs lists jobs under an institution.
func InstitutionJobs(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	var inst model.Institution
	if err := database.GetDB().First(&inst, id).Error; err != nil {
		return respondError(c, apperr.NotFound("institution"))
	}
	if !policy.CanAccessInstitution(actorFromEcho(c).Principal, &inst) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	var jobs []model.Job
	if err := database.GetDB().Where("institution_id = ?", inst.ID).Order("created_at desc").Find(&jobs).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve jobs"})
	}
	return c.JSON(http.StatusOK, jobs)
}

func userIDPtr(p *policy.Principal) *uint {
	if p == nil {
		return nil
	}
	id := p.UserID
	return &id
}
