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

// JobRequest is the payload for creating/updating a job posting.
type JobRequest struct {
	Title              string            `json:"job_title"`
	Description        string            `json:"job_description"`
	InstitutionID      uint              `json:"institution_id"`
	CollegeID          uint              `json:"college_id"`
	DepartmentID       *uint             `json:"department_id"`
	JobType            model.JobType     `json:"job_type"`
	ExperienceRequired string            `json:"experience_required"`
	Qualification      string            `json:"qualification"`
	LastDate           time.Time         `json:"last_date"`
	SalaryRange        string            `json:"salary_range"`
	Priority           model.JobPriority `json:"priority"`
}

// CreateJob creates a draft posting through the job workflow service.
func CreateJob(c echo.Context) error {
	var req JobRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.Title == "" || req.InstitutionID == 0 || req.CollegeID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "job_title, institution_id and college_id are required"})
	}
	if req.LastDate.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "last_date is required"})
	}

	job := &model.Job{
		Title:              req.Title,
		Description:        req.Description,
		InstitutionID:      req.InstitutionID,
		CollegeID:          req.CollegeID,
		DepartmentID:       req.DepartmentID,
		JobType:            req.JobType,
		ExperienceRequired: req.ExperienceRequired,
		Qualification:      req.Qualification,
		LastDate:           req.LastDate,
		SalaryRange:        req.SalaryRange,
		Priority:           req.Priority,
	}

	created, err := jobService.Create(requestCtx(c), actorFromEcho(c), job)
	if err != nil {
		return respondError(c, err)
	}

	prometheus.RecordJobOperation("create")
	return c.JSON(http.StatusCreated, created)
}

// ListJobs returns postings visible to the principal. Applicants and
// anonymous callers only see published postings via PublishedJobs.
func ListJobs(c echo.Context) error {
	principal := actorFromEcho(c).Principal
	if principal == nil {
		return respondError(c, apperr.PermissionDenied(""))
	}

	page, limit, offset := pagination(c)
	query := database.GetDB().Model(&model.Job{})

	switch principal.Role {
	case model.RoleSuperAdmin:
		// unrestricted
	case model.RoleInstitutionAdmin:
		if principal.InstitutionID == nil {
			return c.JSON(http.StatusOK, echo.Map{"jobs": []model.Job{}, "total": 0})
		}
		query = query.Where("institution_id = ?", *principal.InstitutionID)
	case model.RoleHR:
		collegeIDs := keys(principal.AssignedCollegeIDs)
		deptIDs := keys(principal.AssignedDepartmentIDs)
		switch {
		case len(collegeIDs) > 0 && len(deptIDs) > 0:
			query = query.Where("college_id IN ? OR department_id IN ? OR created_by_id = ?", collegeIDs, deptIDs, principal.UserID)
		case len(collegeIDs) > 0:
			query = query.Where("college_id IN ? OR created_by_id = ?", collegeIDs, principal.UserID)
		case len(deptIDs) > 0:
			query = query.Where("department_id IN ? OR created_by_id = ?", deptIDs, principal.UserID)
		default:
			query = query.Where("created_by_id = ?", principal.UserID)
		}
	case model.RoleHOD:
		deptIDs := keys(principal.AssignedDepartmentIDs)
		if len(deptIDs) > 0 {
			query = query.Where("created_by_id = ? OR department_id IN ?", principal.UserID, deptIDs)
		} else {
			query = query.Where("created_by_id = ?", principal.UserID)
		}
	case model.RoleApplicant:
		query = query.Where("job_status = ?", model.JobStatusPublished)
	default:
		return respondError(c, apperr.PermissionDenied(""))
	}

	if status := c.QueryParam("status"); status != "" {
		query = query.Where("job_status = ?", status)
	}
	if jobType := c.QueryParam("job_type"); jobType != "" {
		query = query.Where("job_type = ?", jobType)
	}
	if collegeID := c.QueryParam("college_id"); collegeID != "" {
		query = query.Where("college_id = ?", collegeID)
	}
	if departmentID := c.QueryParam("department_id"); departmentID != "" {
		query = query.Where("department_id = ?", departmentID)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var jobs []model.Job
	var total int64
	query.Count(&total)
	if err := query.Order("created_at desc").Limit(limit).Offset(offset).Find(&jobs).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve jobs"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"jobs": jobs,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
		},
	})
}

// PublishedJobs is the public listing of open postings. No authentication
// required; draft and pending postings are never exposed here.
func PublishedJobs(c echo.Context) error {
	page, limit, offset := pagination(c)
	query := database.GetDB().Model(&model.Job{}).Where("job_status = ?", model.JobStatusPublished)

	if jobType := c.QueryParam("job_type"); jobType != "" {
		query = query.Where("job_type = ?", jobType)
	}
	if institutionID := c.QueryParam("institution_id"); institutionID != "" {
		query = query.Where("institution_id = ?", institutionID)
	}
	if search := c.QueryParam("search"); search != "" {
		query = query.Where("job_title ILIKE ?", "%"+search+"%")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var jobs []model.Job
	var total int64
	query.Count(&total)
	if err := query.Preload("Institution").Preload("College").
		Order("published_at desc").Limit(limit).Offset(offset).Find(&jobs).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve jobs"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"jobs": jobs,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
		},
	})
}

// GetJob retrieves one posting. Anonymous callers see published postings
// only.
func GetJob(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	var job model.Job
	if err := database.GetDB().
		Preload("Institution").
		Preload("College").
		Preload("Department").
		First(&job, id).Error; err != nil {
		return respondError(c, apperr.NotFound("job"))
	}

	if !policy.CanViewJob(actorFromEcho(c).Principal, &job) {
		// Hide existence of unpublished postings from outsiders.
		return respondError(c, apperr.NotFound("job"))
	}

	return c.JSON(http.StatusOK, job)
}

// UpdateJob edits a posting's fields. Only draft postings are editable;
// everything after submission goes through the workflow endpoints.
func UpdateJob(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	var job model.Job
	if err := database.GetDB().First(&job, id).Error; err != nil {
		return respondError(c, apperr.NotFound("job"))
	}

	principal := actorFromEcho(c).Principal
	if !policy.CanManageJob(principal, &job) {
		return respondError(c, apperr.PermissionDenied(""))
	}
	if job.JobStatus != model.JobStatusDraft {
		return respondError(c, apperr.InvalidTransition("only draft jobs can be edited"))
	}

	var req JobRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	if req.Title != "" {
		job.Title = req.Title
	}
	if req.Description != "" {
		job.Description = req.Description
	}
	if req.JobType != "" {
		if !req.JobType.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid job type"})
		}
		job.JobType = req.JobType
	}
	if req.ExperienceRequired != "" {
		job.ExperienceRequired = req.ExperienceRequired
	}
	if req.Qualification != "" {
		job.Qualification = req.Qualification
	}
	if !req.LastDate.IsZero() {
		job.LastDate = req.LastDate
	}
	if req.SalaryRange != "" {
		job.SalaryRange = req.SalaryRange
	}
	if req.Priority != "" {
		if !req.Priority.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid priority"})
		}
		job.Priority = req.Priority
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Save(&job).Error; err != nil {
		log.Error("Failed to update job", zap.Uint("id", job.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update job"})
	}

	if err := recordActivity(c, userIDPtr(principal), model.ActionUpdate, model.EntityJob, &job.ID,
		"Updated job: "+job.Title); err != nil {
		log.Error("Failed to record activity", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update job"})
	}

	prometheus.RecordJobOperation("update")
	return c.JSON(http.StatusOK, job)
}

// DeleteJob soft-deletes a draft posting. Published history is archived, not
// deleted.
func DeleteJob(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	var job model.Job
	if err := database.GetDB().First(&job, id).Error; err != nil {
		return respondError(c, apperr.NotFound("job"))
	}

	principal := actorFromEcho(c).Principal
	if !policy.CanManageJob(principal, &job) {
		return respondError(c, apperr.PermissionDenied(""))
	}
	if job.JobStatus != model.JobStatusDraft {
		return respondError(c, apperr.InvalidTransition("only draft jobs can be deleted, archive instead"))
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&job).Error; err != nil {
		log.Error("Failed to delete job", zap.Uint("id", job.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete job"})
	}

	if err := recordActivity(c, userIDPtr(principal), model.ActionDelete, model.EntityJob, &job.ID,
		"Deleted job: "+job.Title); err != nil {
		log.Error("Failed to record activity", zap.Error(err))
	}

	prometheus.RecordJobOperation("delete")
	return c.JSON(http.StatusOK, echo.Map{"message": "Job deleted successfully"})
}

// SubmitJob moves a draft posting to pending_approval.
func SubmitJob(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	job, err := jobService.SubmitForApproval(requestCtx(c), actorFromEcho(c), id)
	if err != nil {
		return respondError(c, err)
	}

	prometheus.RecordJobOperation("submit")
	return c.JSON(http.StatusOK, job)
}

// ApproveJob approves and publishes a pending posting.
func ApproveJob(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	job, err := jobService.ApproveAndPublish(requestCtx(c), actorFromEcho(c), id)
	if err != nil {
		return respondError(c, err)
	}

	prometheus.RecordJobOperation("approve")
	SyncPublishedJobsGauge()
	return c.JSON(http.StatusOK, job)
}

// ArchiveJob is the administrative override moving a posting to archived.
func ArchiveJob(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	job, err := jobService.Archive(requestCtx(c), actorFromEcho(c), id)
	if err != nil {
		return respondError(c, err)
	}

	prometheus.RecordJobOperation("archive")
	SyncPublishedJobsGauge()
	return c.JSON(http.StatusOK, job)
}

// MarkJobSelected selects an applicant for the job. It resolves the
// application for the (job, applicant) pair and routes through the selection
// cascade so the application update and the job close commit together.
func MarkJobSelected(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		ApplicantID uint `json:"applicant_id"`
	}
	if err := c.Bind(&req); err != nil || req.ApplicantID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "applicant_id is required"})
	}

	var app model.Application
	if err := database.GetDB().
		Where("job_id = ? AND applicant_id = ?", id, req.ApplicantID).
		First(&app).Error; err != nil {
		return respondError(c, apperr.NotFound("application"))
	}

	selected, err := applicationService.MarkSelected(requestCtx(c), actorFromEcho(c), app.ID)
	if err != nil {
		return respondError(c, err)
	}

	prometheus.RecordJobOperation("select")
	SyncPublishedJobsGauge()
	return c.JSON(http.StatusOK, selected)
}

// JobApplications lists applications for one posting, visible to the roles
// that may review them.
func JobApplications(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	var job model.Job
	if err := database.GetDB().First(&job, id).Error; err != nil {
		return respondError(c, apperr.NotFound("job"))
	}

	principal := actorFromEcho(c).Principal
	if principal == nil {
		return respondError(c, apperr.PermissionDenied(""))
	}
	sample := model.Application{JobID: job.ID}
	if !policy.CanViewApplication(principal, &sample, &job) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	query := database.GetDB().Where("job_id = ?", job.ID)
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var applications []model.Application
	if err := query.Order("applied_date desc").Find(&applications).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve applications"})
	}
	return c.JSON(http.StatusOK, applications)
}

// PendingApprovalJobs lists postings awaiting HR approval in the caller's
// jurisdiction.
func PendingApprovalJobs(c echo.Context) error {
	principal := actorFromEcho(c).Principal
	if principal == nil {
		return respondError(c, apperr.PermissionDenied(""))
	}

	query := database.GetDB().Where("job_status = ?", model.JobStatusPendingApproval)

	switch principal.Role {
	case model.RoleSuperAdmin:
		// unrestricted
	case model.RoleInstitutionAdmin:
		if principal.InstitutionID == nil {
			return c.JSON(http.StatusOK, []model.Job{})
		}
		query = query.Where("institution_id = ?", *principal.InstitutionID)
	case model.RoleHR:
		collegeIDs := keys(principal.AssignedCollegeIDs)
		deptIDs := keys(principal.AssignedDepartmentIDs)
		switch {
		case len(collegeIDs) > 0 && len(deptIDs) > 0:
			query = query.Where("college_id IN ? OR department_id IN ?", collegeIDs, deptIDs)
		case len(collegeIDs) > 0:
			query = query.Where("college_id IN ?", collegeIDs)
		case len(deptIDs) > 0:
			query = query.Where("department_id IN ?", deptIDs)
		default:
			return c.JSON(http.StatusOK, []model.Job{})
		}
	default:
		return respondError(c, apperr.PermissionDenied(""))
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var jobs []model.Job
	if err := query.Order("priority desc, created_at asc").Find(&jobs).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve jobs"})
	}
	return c.JSON(http.StatusOK, jobs)
}

// JobStatistics returns posting counts by status for dashboards.
func JobStatistics(c echo.Context) error {
	principal := actorFromEcho(c).Principal
	if principal == nil ||
		(principal.Role != model.RoleSuperAdmin && principal.Role != model.RoleInstitutionAdmin) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	query := database.GetDB().Model(&model.Job{})
	if principal.Role == model.RoleInstitutionAdmin {
		if principal.InstitutionID == nil {
			return c.JSON(http.StatusOK, echo.Map{})
		}
		query = query.Where("institution_id = ?", *principal.InstitutionID)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var rows []struct {
		JobStatus model.JobStatus `json:"job_status"`
		Count     int64           `json:"count"`
	}
	if err := query.Select("job_status, count(*) as count").Group("job_status").Scan(&rows).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute statistics"})
	}

	stats := echo.Map{}
	var total int64
	for _, row := range rows {
		stats[string(row.JobStatus)] = row.Count
		total += row.Count
	}
	stats["total"] = total
	return c.JSON(http.StatusOK, stats)
}
