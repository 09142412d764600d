package middleware

import (
	"net/http"
	"strings"

	"recruitment-service/internal/model"
	"recruitment-service/internal/policy"
	"recruitment-service/pkg/database"
	"recruitment-service/pkg/jwtutil"
	"recruitment-service/pkg/logger"
	"recruitment-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const principalKey = "principal"

// AuthMiddleware validates the JWT token from the Authorization header and
// places the resolved principal (role, institution, jurisdiction) in the
// request context. Inactive accounts are rejected.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Warn("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Warn("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			log.Warn("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		principal, err := loadPrincipal(c, claims.UserID)
		if err != nil {
			log.Warn("Failed to resolve principal", zap.Uint("user_id", claims.UserID), zap.Error(err))
			prometheus.RecordAuthError("principal_not_resolved")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account is not active"})
		}

		c.Set(principalKey, principal)
		c.Set("user_id", principal.UserID)

		return next(c)
	}
}

// OptionalAuthMiddleware resolves a principal when a valid token is present
// but lets anonymous requests through. Used on public job listing/detail
// where authenticated callers get wider visibility.
func OptionalAuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return next(c)
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return next(c)
		}

		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			return next(c)
		}

		if principal, err := loadPrincipal(c, claims.UserID); err == nil {
			c.Set(principalKey, principal)
			c.Set("user_id", principal.UserID)
		}
		return next(c)
	}
}

// PrincipalFromEcho returns the resolved principal, or nil for anonymous
// requests.
func PrincipalFromEcho(c echo.Context) *policy.Principal {
	principal, ok := c.Get(principalKey).(*policy.Principal)
	if !ok {
		return nil
	}
	return principal
}

// loadPrincipal builds the policy principal for a user id: role, institution
// scope, hr/hod jurisdiction and the linked applicant profile.
func loadPrincipal(c echo.Context, userID uint) (*policy.Principal, error) {
	db := database.GetDB()
	ctx := c.Request().Context()

	var user model.User
	if err := db.WithContext(ctx).
		Preload("AssignedColleges").
		Preload("AssignedDepartments").
		First(&user, userID).Error; err != nil {
		return nil, err
	}
	if user.Status != model.UserStatusActive {
		return nil, echo.ErrUnauthorized
	}

	principal := &policy.Principal{
		UserID:                user.ID,
		Role:                  user.Role,
		InstitutionID:         user.InstitutionID,
		AssignedCollegeIDs:    make(map[uint]bool, len(user.AssignedColleges)),
		AssignedDepartmentIDs: make(map[uint]bool, len(user.AssignedDepartments)),
	}
	for _, college := range user.AssignedColleges {
		principal.AssignedCollegeIDs[college.ID] = true
	}
	for _, dept := range user.AssignedDepartments {
		principal.AssignedDepartmentIDs[dept.ID] = true
	}

	if user.Role == model.RoleApplicant {
		var applicant model.Applicant
		if err := db.WithContext(ctx).Where("user_id = ?", user.ID).First(&applicant).Error; err == nil {
			principal.ApplicantID = &applicant.ID
		}
	}

	return principal, nil
}
