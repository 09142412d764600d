package handler

import (
	"net/http"
	"time"

	"recruitment-service/internal/apperr"
	"recruitment-service/internal/lifecycle"
	"recruitment-service/internal/model"
	"recruitment-service/internal/policy"
	"recruitment-service/pkg/database"
	"recruitment-service/prometheus"

	"github.com/labstack/echo/v4"
)

// Apply submits a new application for a published job.
func Apply(c echo.Context) error {
	var req struct {
		JobID       uint   `json:"job_id"`
		ResumeURL   string `json:"resume_url"`
		CoverLetter string `json:"cover_letter"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.JobID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "job_id is required"})
	}

	app, err := applicationService.Apply(requestCtx(c), actorFromEcho(c), lifecycle.ApplyInput{
		JobID:       req.JobID,
		ResumeURL:   req.ResumeURL,
		CoverLetter: req.CoverLetter,
	})
	if err != nil {
		return respondError(c, err)
	}

	prometheus.RecordApplicationOperation("apply")
	return c.JSON(http.StatusCreated, app)
}

// ListApplications returns applications in the principal's jurisdiction.
// Applicants get their own applications only.
func ListApplications(c echo.Context) error {
	principal := actorFromEcho(c).Principal
	if principal == nil {
		return respondError(c, apperr.PermissionDenied(""))
	}

	page, limit, offset := pagination(c)
	query := database.GetDB().Model(&model.Application{}).Joins("JOIN jobs ON jobs.id = applications.job_id")

	switch principal.Role {
	case model.RoleSuperAdmin:
		// unrestricted
	case model.RoleInstitutionAdmin:
		if principal.InstitutionID == nil {
			return c.JSON(http.StatusOK, echo.Map{"applications": []model.Application{}, "total": 0})
		}
		query = query.Where("jobs.institution_id = ?", *principal.InstitutionID)
	case model.RoleHR:
		collegeIDs := keys(principal.AssignedCollegeIDs)
		deptIDs := keys(principal.AssignedDepartmentIDs)
		switch {
		case len(collegeIDs) > 0 && len(deptIDs) > 0:
			query = query.Where("jobs.college_id IN ? OR jobs.department_id IN ? OR jobs.created_by_id = ?",
				collegeIDs, deptIDs, principal.UserID)
		case len(collegeIDs) > 0:
			query = query.Where("jobs.college_id IN ? OR jobs.created_by_id = ?", collegeIDs, principal.UserID)
		case len(deptIDs) > 0:
			query = query.Where("jobs.department_id IN ? OR jobs.created_by_id = ?", deptIDs, principal.UserID)
		default:
			query = query.Where("jobs.created_by_id = ?", principal.UserID)
		}
	case model.RoleHOD:
		query = query.Where("jobs.created_by_id = ?", principal.UserID)
	case model.RoleApplicant:
		if principal.ApplicantID == nil {
			return c.JSON(http.StatusOK, echo.Map{"applications": []model.Application{}, "total": 0})
		}
		query = query.Where("applications.applicant_id = ?", *principal.ApplicantID)
	default:
		return respondError(c, apperr.PermissionDenied(""))
	}

	if status := c.QueryParam("status"); status != "" {
		query = query.Where("applications.status = ?", status)
	}
	if jobID := c.QueryParam("job_id"); jobID != "" {
		query = query.Where("applications.job_id = ?", jobID)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var applications []model.Application
	var total int64
	query.Count(&total)
	if err := query.Order("applications.applied_date desc").
		Limit(limit).Offset(offset).Find(&applications).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve applications"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"applications": applications,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
		},
	})
}

// GetApplication retrieves one application with its owning job.
func GetApplication(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	var app model.Application
	if err := database.GetDB().Preload("Job").First(&app, id).Error; err != nil {
		return respondError(c, apperr.NotFound("application"))
	}

	var job model.Job
	if err := database.GetDB().First(&job, app.JobID).Error; err != nil {
		return respondError(c, apperr.NotFound("job"))
	}

	if !policy.CanViewApplication(actorFromEcho(c).Principal, &app, &job) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	return c.JSON(http.StatusOK, app)
}

// MyApplications lists the current applicant's own applications.
func MyApplications(c echo.Context) error {
	principal := actorFromEcho(c).Principal
	if principal == nil || principal.ApplicantID == nil {
		return respondError(c, apperr.NotFound("applicant profile"))
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var applications []model.Application
	if err := database.GetDB().
		Preload("Job").
		Where("applicant_id = ?", *principal.ApplicantID).
		Order("applied_date desc").
		Find(&applications).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve applications"})
	}
	return c.JSON(http.StatusOK, applications)
}

// UpdateApplicationStatus moves an application to the requested status.
// Moves to selected or rejected route through their dedicated flows.
func UpdateApplicationStatus(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Status  model.ApplicationStatus `json:"status"`
		Remarks string                  `json:"remarks"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	app, err := applicationService.UpdateStatus(requestCtx(c), actorFromEcho(c), id, req.Status, req.Remarks)
	if err != nil {
		return respondError(c, err)
	}

	prometheus.RecordApplicationOperation("status_change")
	if app.Status == model.ApplicationStatusSelected {
		SyncPublishedJobsGauge()
	}
	return c.JSON(http.StatusOK, app)
}

// MoveApplicationUnderReview marks the application as under review.
func MoveApplicationUnderReview(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	app, err := applicationService.MoveToUnderReview(requestCtx(c), actorFromEcho(c), id)
	if err != nil {
		return respondError(c, err)
	}

	prometheus.RecordApplicationOperation("under_review")
	return c.JSON(http.StatusOK, app)
}

// MoveApplicationToInterview moves the application to the interview stage.
func MoveApplicationToInterview(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	app, err := applicationService.MoveToInterviewing(requestCtx(c), actorFromEcho(c), id)
	if err != nil {
		return respondError(c, err)
	}

	prometheus.RecordApplicationOperation("interview")
	return c.JSON(http.StatusOK, app)
}

// ShortlistApplication marks the application as shortlisted.
func ShortlistApplication(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	app, err := applicationService.MoveToShortlisted(requestCtx(c), actorFromEcho(c), id)
	if err != nil {
		return respondError(c, err)
	}

	prometheus.RecordApplicationOperation("shortlist")
	return c.JSON(http.StatusOK, app)
}

// SelectApplication marks the application as selected and closes the owning
// job in the same transaction.
func SelectApplication(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	app, err := applicationService.MarkSelected(requestCtx(c), actorFromEcho(c), id)
	if err != nil {
		return respondError(c, err)
	}

	prometheus.RecordApplicationOperation("select")
	SyncPublishedJobsGauge()
	return c.JSON(http.StatusOK, app)
}

// RejectApplication marks the application as rejected with optional remarks.
func RejectApplication(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Remarks string `json:"remarks"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	app, err := applicationService.MarkRejected(requestCtx(c), actorFromEcho(c), id, req.Remarks)
	if err != nil {
		return respondError(c, err)
	}

	prometheus.RecordApplicationOperation("reject")
	return c.JSON(http.StatusOK, app)
}

// ApplicationStatistics returns application counts by status for dashboards.
func ApplicationStatistics(c echo.Context) error {
	principal := actorFromEcho(c).Principal
	if principal == nil ||
		(principal.Role != model.RoleSuperAdmin && principal.Role != model.RoleInstitutionAdmin) {
		return respondError(c, apperr.PermissionDenied(""))
	}

	query := database.GetDB().Model(&model.Application{}).
		Joins("JOIN jobs ON jobs.id = applications.job_id")
	if principal.Role == model.RoleInstitutionAdmin {
		if principal.InstitutionID == nil {
			return c.JSON(http.StatusOK, echo.Map{})
		}
		query = query.Where("jobs.institution_id = ?", *principal.InstitutionID)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var rows []struct {
		Status model.ApplicationStatus `json:"status"`
		Count  int64                   `json:"count"`
	}
	if err := query.Select("applications.status, count(*) as count").
		Group("applications.status").Scan(&rows).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute statistics"})
	}

	stats := echo.Map{}
	var total int64
	for _, row := range rows {
		stats[string(row.Status)] = row.Count
		total += row.Count
	}
	stats["total"] = total
	return c.JSON(http.StatusOK, stats)
}
