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

// ApplicantRequest is the profile update payload. Applicants edit their own
// profile; staff roles read profiles through application review.
type ApplicantRequest struct {
	FullName        string     `json:"full_name"`
	MobileNumber    string     `json:"mobile_number"`
	DateOfBirth     *time.Time `json:"date_of_birth"`
	Gender          string     `json:"gender"`
	CurrentLocation string     `json:"current_location"`
	ResumeURL       string     `json:"resume_url"`

	EducationQualification   string   `json:"education_qualification"`
	EducationSpecialization  string   `json:"education_specialization"`
	EducationInstitutionName string   `json:"education_institution_name"`
	EducationYearOfPassing   *int     `json:"education_year_of_passing"`
	EducationPercentage      *float64 `json:"education_percentage"`

	ExperienceOrganizationName string     `json:"experience_organization_name"`
	ExperienceDesignation      string     `json:"experience_designation"`
	ExperienceStartDate        *time.Time `json:"experience_start_date"`
	ExperienceEndDate          *time.Time `json:"experience_end_date"`
	ExperienceIsCurrent        *bool      `json:"experience_is_current"`
}

func canReadApplicants(c echo.Context) bool {
	p := actorFromEcho(c).Principal
	if p == nil {
		return false
	}
	switch p.Role {
	case model.RoleSuperAdmin, model.RoleInstitutionAdmin, model.RoleHR:
		return true
	}
	return false
}

// ownApplicant loads the applicant profile linked to the current principal,
// or nil for non-applicant roles.
func ownApplicant(c echo.Context) *model.Applicant {
	p := actorFromEcho(c).Principal
	if p == nil || p.ApplicantID == nil {
		return nil
	}
	var applicant model.Applicant
	if err := database.GetDB().First(&applicant, *p.ApplicantID).Error; err != nil {
		return nil
	}
	return &applicant
}

// ListApplicants returns applicant profiles (staff only).
func ListApplicants(c echo.Context) error {
	if !canReadApplicants(c) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	page, limit, offset := pagination(c)
	query := database.GetDB().Model(&model.Applicant{})

	if active := c.QueryParam("is_active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}
	if location := c.QueryParam("location"); location != "" {
		query = query.Where("current_location ILIKE ?", "%"+location+"%")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var applicants []model.Applicant
	var total int64
	query.Count(&total)
	if err := query.Order("created_at desc").Limit(limit).Offset(offset).Find(&applicants).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve applicants"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"applicants": applicants,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
		},
	})
}

// GetApplicant retrieves one applicant profile. Applicants may only read
// their own.
func GetApplicant(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	p := actorFromEcho(c).Principal
	if p == nil {
		return respondError(c, apperr.PermissionDenied(""))
	}
	if p.Role == model.RoleApplicant && (p.ApplicantID == nil || *p.ApplicantID != id) {
		return respondError(c, apperr.PermissionDenied(""))
	}
	if p.Role == model.RoleHOD {
		return respondError(c, apperr.PermissionDenied(""))
	}

	var applicant model.Applicant
	if err := database.GetDB().
		Preload("Education").
		Preload("Experience").
		First(&applicant, id).Error; err != nil {
		return respondError(c, apperr.NotFound("applicant"))
	}

	return c.JSON(http.StatusOK, applicant)
}

// MyProfile returns the current applicant's own profile with full history.
func MyProfile(c echo.Context) error {
	p := actorFromEcho(c).Principal
	if p == nil || p.ApplicantID == nil {
		return respondError(c, apperr.NotFound("applicant profile"))
	}

	var applicant model.Applicant
	if err := database.GetDB().
		Preload("Education").
		Preload("Experience").
		First(&applicant, *p.ApplicantID).Error; err != nil {
		return respondError(c, apperr.NotFound("applicant profile"))
	}
	return c.JSON(http.StatusOK, applicant)
}

// UpdateMyProfile lets an applicant update their own profile. Completion
// percentage is recomputed on every save.
func UpdateMyProfile(c echo.Context) error {
	log := logger.FromContext(c)

	applicant := ownApplicant(c)
	if applicant == nil {
		return respondError(c, apperr.NotFound("applicant profile"))
	}

	var req ApplicantRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	if req.FullName != "" {
		applicant.FullName = req.FullName
	}
	if req.MobileNumber != "" {
		applicant.MobileNumber = req.MobileNumber
	}
	if req.DateOfBirth != nil {
		applicant.DateOfBirth = req.DateOfBirth
	}
	if req.Gender != "" {
		applicant.Gender = model.Gender(req.Gender)
	}
	if req.CurrentLocation != "" {
		applicant.CurrentLocation = req.CurrentLocation
	}
	if req.ResumeURL != "" {
		applicant.ResumeURL = req.ResumeURL
	}
	if req.EducationQualification != "" {
		applicant.EducationQualification = req.EducationQualification
	}
	if req.EducationSpecialization != "" {
		applicant.EducationSpecialization = req.EducationSpecialization
	}
	if req.EducationInstitutionName != "" {
		applicant.EducationInstitutionName = req.EducationInstitutionName
	}
	if req.EducationYearOfPassing != nil {
		applicant.EducationYearOfPassing = req.EducationYearOfPassing
	}
	if req.EducationPercentage != nil {
		applicant.EducationPercentage = req.EducationPercentage
	}
	if req.ExperienceOrganizationName != "" {
		applicant.ExperienceOrganizationName = req.ExperienceOrganizationName
	}
	if req.ExperienceDesignation != "" {
		applicant.ExperienceDesignation = req.ExperienceDesignation
	}
	if req.ExperienceStartDate != nil {
		applicant.ExperienceStartDate = req.ExperienceStartDate
	}
	if req.ExperienceEndDate != nil {
		applicant.ExperienceEndDate = req.ExperienceEndDate
	}
	if req.ExperienceIsCurrent != nil {
		applicant.ExperienceIsCurrent = *req.ExperienceIsCurrent
	}

	applicant.ProfileCompletionPercentage = profileCompletion(applicant)

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Save(applicant).Error; err != nil {
		log.Error("Failed to update applicant profile", zap.Uint("id", applicant.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update profile"})
	}

	if err := recordActivity(c, userIDPtr(actorFromEcho(c).Principal), model.ActionUpdate, model.EntityApplicant,
		&applicant.ID, "Applicant updated profile"); err != nil {
		log.Error("Failed to record activity", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update profile"})
	}

	return c.JSON(http.StatusOK, applicant)
}

// ToggleApplicantStatus flips an applicant profile active/inactive (staff
// only). Inactive applicants cannot apply to jobs.
func ToggleApplicantStatus(c echo.Context) error {
	log := logger.FromContext(c)

	p := actorFromEcho(c).Principal
	if p == nil || (p.Role != model.RoleSuperAdmin && p.Role != model.RoleInstitutionAdmin) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	var applicant model.Applicant
	if err := database.GetDB().First(&applicant, id).Error; err != nil {
		return respondError(c, apperr.NotFound("applicant"))
	}

	applicant.IsActive = !applicant.IsActive

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&applicant).Update("is_active", applicant.IsActive).Error; err != nil {
		log.Error("Failed to toggle applicant status", zap.Uint("id", applicant.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update applicant"})
	}

	desc := "Deactivated applicant " + applicant.FullName
	if applicant.IsActive {
		desc = "Activated applicant " + applicant.FullName
	}
	if err := recordActivity(c, userIDPtr(p), model.ActionUpdate, model.EntityApplicant, &applicant.ID, desc); err != nil {
		log.Error("Failed to record activity", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update applicant"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Applicant status updated", "is_active": applicant.IsActive})
}

// ApplicantApplications lists one applicant's applications for staff review.
func ApplicantApplications(c echo.Context) error {
	if !canReadApplicants(c) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	var applicant model.Applicant
	if err := database.GetDB().First(&applicant, id).Error; err != nil {
		return respondError(c, apperr.NotFound("applicant"))
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var applications []model.Application
	if err := database.GetDB().
		Preload("Job").
		Where("applicant_id = ?", applicant.ID).
		Order("applied_date desc").
		Find(&applications).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve applications"})
	}
	return c.JSON(http.StatusOK, applications)
}

// AddEducation appends an education record to the applicant's own history.
func AddEducation(c echo.Context) error {
	log := logger.FromContext(c)

	applicant := ownApplicant(c)
	if applicant == nil {
		return respondError(c, apperr.NotFound("applicant profile"))
	}

	var req struct {
		Qualification   string  `json:"qualification"`
		Specialization  string  `json:"specialization"`
		InstitutionName string  `json:"institution_name"`
		YearOfPassing   int     `json:"year_of_passing"`
		Percentage      float64 `json:"percentage"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.Qualification == "" || req.InstitutionName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "qualification and institution_name are required"})
	}

	education := model.Education{
		ApplicantID:     applicant.ID,
		Qualification:   req.Qualification,
		Specialization:  req.Specialization,
		InstitutionName: req.InstitutionName,
		YearOfPassing:   req.YearOfPassing,
		Percentage:      req.Percentage,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&education).Error; err != nil {
		log.Error("Failed to add education record", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to add education record"})
	}

	return c.JSON(http.StatusCreated, education)
}

// DeleteEducation removes one of the applicant's own education records.
func DeleteEducation(c echo.Context) error {
	applicant := ownApplicant(c)
	if applicant == nil {
		return respondError(c, apperr.NotFound("applicant profile"))
	}

	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	var education model.Education
	if err := database.GetDB().
		Where("id = ? AND applicant_id = ?", id, applicant.ID).
		First(&education).Error; err != nil {
		return respondError(c, apperr.NotFound("education record"))
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&education).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete education record"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Education record deleted"})
}

// AddExperience appends a work-experience record to the applicant's history.
func AddExperience(c echo.Context) error {
	log := logger.FromContext(c)

	applicant := ownApplicant(c)
	if applicant == nil {
		return respondError(c, apperr.NotFound("applicant profile"))
	}

	var req struct {
		OrganizationName string     `json:"organization_name"`
		Designation      string     `json:"designation"`
		StartDate        time.Time  `json:"start_date"`
		EndDate          *time.Time `json:"end_date"`
		IsCurrent        bool       `json:"is_current"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.OrganizationName == "" || req.Designation == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "organization_name and designation are required"})
	}

	experience := model.Experience{
		ApplicantID:      applicant.ID,
		OrganizationName: req.OrganizationName,
		Designation:      req.Designation,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		IsCurrent:        req.IsCurrent,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&experience).Error; err != nil {
		log.Error("Failed to add experience record", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to add experience record"})
	}

	return c.JSON(http.StatusCreated, experience)
}

// DeleteExperience removes one of the applicant's own experience records.
func DeleteExperience(c echo.Context) error {
	applicant := ownApplicant(c)
	if applicant == nil {
		return respondError(c, apperr.NotFound("applicant profile"))
	}

	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	var experience model.Experience
	if err := database.GetDB().
		Where("id = ? AND applicant_id = ?", id, applicant.ID).
		First(&experience).Error; err != nil {
		return respondError(c, apperr.NotFound("experience record"))
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&experience).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete experience record"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Experience record deleted"})
}

// profileCompletion scores how much of the profile is filled in, weighting
// the fields recruiters rely on most.
func profileCompletion(a *model.Applicant) int {
	total := 0
	if a.FullName != "" {
		total += 15
	}
	if a.MobileNumber != "" {
		total += 10
	}
	if a.DateOfBirth != nil {
		total += 5
	}
	if a.Gender != "" {
		total += 5
	}
	if a.CurrentLocation != "" {
		total += 10
	}
	if a.ResumeURL != "" {
		total += 25
	}
	if a.EducationQualification != "" {
		total += 15
	}
	if a.ExperienceOrganizationName != "" {
		total += 15
	}
	return total
}
