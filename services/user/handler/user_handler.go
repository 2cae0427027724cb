package handler

import (
	"fmt"
	"net/http"

	model "auction-house/internal/models"
	"auction-house/services/user/helpers"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

type UserServiceInterface interface {
	Signup(username, email, password string) (string, model.User, error)
	Login(email, password string) (string, model.User, error)
	Profile(userID string) (model.User, error)
	ListUsers(adminID string) ([]model.User, error)
	UpdateUser(adminID, targetID, username, email, role string) (model.User, error)
	DeleteUser(adminID, targetID string) error
}

type UserHandler struct {
	service UserServiceInterface
}

func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// SignupHandler handles POST /auth/signup
func (h *UserHandler) SignupHandler(c *gin.Context) {
	var req helpers.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "SignupHandler", err)
		return
	}

	token, u, err := h.service.Signup(req.Username, req.Email, req.Password)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("SignupHandler: signup failed", map[string]any{"email": req.Email, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.TokenResponse{Token: token}, "user registered successfully")
	helpers.LogSuccess("SignupHandler", "user registered successfully", map[string]any{
		"user_id":  u.UserID,
		"username": u.Username,
	})
}

// LoginHandler handles POST /auth/login
func (h *UserHandler) LoginHandler(c *gin.Context) {
	var req helpers.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "LoginHandler", err)
		return
	}

	token, u, err := h.service.Login(req.Email, req.Password)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("LoginHandler: login failed", map[string]any{"email": req.Email, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.TokenResponse{Token: token}, "login successful")
	helpers.LogSuccess("LoginHandler", "login successful", map[string]any{"user_id": u.UserID})
}

// ProfileHandler handles GET /auth/me
func (h *UserHandler) ProfileHandler(c *gin.Context) {
	userID := utils.CurrentUserID(c)
	u, err := h.service.Profile(userID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("ProfileHandler: error retrieving profile", map[string]any{"user_id": userID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, u, "profile retrieved successfully")
	helpers.LogSuccess("ProfileHandler", "profile retrieved successfully", map[string]any{"user_id": userID})
}

// ListUsersHandler handles GET /auth/users (admin only)
func (h *UserHandler) ListUsersHandler(c *gin.Context) {
	adminID := utils.CurrentUserID(c)
	users, err := h.service.ListUsers(adminID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("ListUsersHandler: error listing users", map[string]any{"error": err.Error()})
		return
	}

	if users == nil {
		users = []model.User{}
	}

	utils.JSONResponse(c, http.StatusOK, users, "users retrieved successfully")
	helpers.LogSuccess("ListUsersHandler", "users retrieved successfully", map[string]any{
		"count": len(users),
	})
}

// UpdateUserHandler handles PUT /auth/users/:user_id (admin only)
func (h *UserHandler) UpdateUserHandler(c *gin.Context) {
	var req helpers.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "UpdateUserHandler", err)
		return
	}

	adminID := utils.CurrentUserID(c)
	targetID := c.Param("user_id")
	u, err := h.service.UpdateUser(adminID, targetID, req.Username, req.Email, req.Role)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("UpdateUserHandler: update failed", map[string]any{"target_user_id": targetID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, u, "user updated successfully")
	helpers.LogSuccess("UpdateUserHandler", "user updated successfully", map[string]any{
		"admin_id":       adminID,
		"target_user_id": targetID,
	})
}

// DeleteUserHandler handles DELETE /auth/users/:user_id (admin only)
func (h *UserHandler) DeleteUserHandler(c *gin.Context) {
	adminID := utils.CurrentUserID(c)
	targetID := c.Param("user_id")
	if err := h.service.DeleteUser(adminID, targetID); err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("DeleteUserHandler: delete failed", map[string]any{"target_user_id": targetID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, nil, "user deleted successfully")
	helpers.LogSuccess("DeleteUserHandler", "user deleted successfully", map[string]any{
		"admin_id":       adminID,
		"target_user_id": targetID,
	})
}
