package handler

import (
	"net/http"
	"time"

	"recruitment-service/internal/model"
	"recruitment-service/pkg/database"
	"recruitment-service/pkg/jwtutil"
	"recruitment-service/pkg/logger"
	"recruitment-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Login authenticates a user and issues a JWT. Inactive and archived
// accounts are refused. The login is recorded in the activity log together
// with the caller's IP.
func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	result := database.GetDB().Where("username = ? OR email = ?", req.Username, req.Username).First(&user)
	if result.Error != nil {
		log.Warn("User not found", zap.String("username", req.Username))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Warn("Invalid password", zap.String("username", req.Username))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if user.Status != model.UserStatusActive {
		log.Warn("Login attempt on non-active account",
			zap.String("username", user.Username),
			zap.String("status", string(user.Status)))
		prometheus.RecordAuthError("account_inactive")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user account is inactive"})
	}

	token, err := jwtutil.GenerateToken(&user)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	now := time.Now()
	ip := c.RealIP()
	user.LastLoginIP = ip
	user.LastAction = "login"
	user.LastActionTime = &now
	if err := database.GetDB().Model(&user).
		Updates(map[string]interface{}{
			"last_login_ip":    user.LastLoginIP,
			"last_action":      user.LastAction,
			"last_action_time": user.LastActionTime,
		}).Error; err != nil {
		log.Error("Failed to update login metadata", zap.Error(err))
	}

	if err := recordActivity(c, &user.ID, model.ActionLogin, model.EntityUser, &user.ID,
		user.Username+" logged in from "+ip); err != nil {
		log.Error("Failed to record login activity", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	log.Info("User logged in",
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)))

	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"user": echo.Map{
			"id":             user.ID,
			"username":       user.Username,
			"email":          user.Email,
			"role":           user.Role,
			"institution_id": user.InstitutionID,
		},
	})
}

// RegisterApplicant is the public applicant sign-up. It creates the login
// User (role applicant) and the linked Applicant profile in one transaction
// and returns a token straight away.
func RegisterApplicant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	var req struct {
		Username     string `json:"username"`
		Email        string `json:"email"`
		Password     string `json:"password"`
		FullName     string `json:"full_name"`
		MobileNumber string `json:"mobile_number"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Username == "" || req.Email == "" || req.Password == "" || req.FullName == "" {
		prometheus.RecordAuthError("incomplete_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username, email, password and full_name are required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var existing model.User
	if err := database.GetDB().Where("username = ? OR email = ?", req.Username, req.Email).First(&existing).Error; err == nil {
		log.Warn("User already exists", zap.String("email", req.Email))
		prometheus.RecordAuthError("already_registered")
		return c.JSON(http.StatusConflict, echo.Map{"error": "username or email already registered"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		prometheus.RecordAuthError("password_hash_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	user := model.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashedPassword),
		Role:     model.RoleApplicant,
		Status:   model.UserStatusActive,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		applicant := model.Applicant{
			UserID:       &user.ID,
			FullName:     req.FullName,
			Email:        req.Email,
			MobileNumber: req.MobileNumber,
			IsActive:     true,
		}
		return tx.Create(&applicant).Error
	})
	if err != nil {
		log.Error("Failed to create applicant account", zap.Error(err))
		prometheus.RecordAuthError("registration_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	if err := recordActivity(c, &user.ID, model.ActionCreate, model.EntityUser, &user.ID,
		"New applicant registered"); err != nil {
		log.Error("Failed to record registration activity", zap.Error(err))
	}

	token, err := jwtutil.GenerateToken(&user)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("Applicant registered", zap.String("username", user.Username))
	return c.JSON(http.StatusCreated, echo.Map{
		"token":   token,
		"message": "Registration successful",
		"user": echo.Map{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"role":     user.Role,
		},
	})
}

// Logout records the logout in the activity log. Tokens are stateless so
// there is nothing to revoke server-side.
func Logout(c echo.Context) error {
	log := logger.FromContext(c)

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var user model.User
	if err := database.GetDB().First(&user, userID).Error; err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	if err := recordActivity(c, &user.ID, model.ActionLogout, model.EntityUser, &user.ID,
		user.Username+" logged out"); err != nil {
		log.Error("Failed to record logout activity", zap.Error(err))
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}

// ChangePassword verifies the old password before setting the new one.
func ChangePassword(c echo.Context) error {
	log := logger.FromContext(c)

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "new_password is required"})
	}

	var user model.User
	if err := database.GetDB().First(&user, userID).Error; err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "old password is incorrect"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to change password"})
	}

	if err := database.GetDB().Model(&user).Update("password", string(hashed)).Error; err != nil {
		log.Error("Failed to update password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to change password"})
	}

	if err := recordActivity(c, &user.ID, model.ActionUpdate, model.EntityUser, &user.ID,
		"User changed password"); err != nil {
		log.Error("Failed to record password change activity", zap.Error(err))
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Password changed successfully"})
}

// Profile returns the current user's account.
func Profile(c echo.Context) error {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var user model.User
	if err := database.GetDB().
		Preload("AssignedColleges").
		Preload("AssignedDepartments").
		First(&user, userID).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	return c.JSON(http.StatusOK, user)
}
