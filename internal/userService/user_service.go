package user

import (
	"fmt"
	"time"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/auth"
	model "auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/utils"
)

// UserService covers signup, login, profile lookup and the admin-only user
// CRUD. Every operation leaves an audit trail entry.
type UserService struct {
	store repository.Store
	jwter *auth.JWTer
}

// NewUserService creates a new UserService instance.
func NewUserService(store repository.Store, jwter *auth.JWTer) *UserService {
	return &UserService{
		store: store,
		jwter: jwter,
	}
}

// Signup registers a new user and returns a bearer token for it. The
// password is stored only as a bcrypt hash.
func (s *UserService) Signup(username, email, password string) (string, model.User, error) {
	if username == "" || email == "" || password == "" {
		return "", model.User{}, fmt.Errorf("service: %w - missing signup fields", auctionerrors.ErrInvalidInput)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return "", model.User{}, fmt.Errorf("service: failed to hash password: %w", err)
	}

	u := model.User{
		UserID:       utils.GenerateID(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateUser(u); err != nil {
		return "", model.User{}, fmt.Errorf("service: failed to create user: %w", err)
	}

	token, err := s.jwter.Issue(u.UserID, u.Role)
	if err != nil {
		return "", model.User{}, fmt.Errorf("service: failed to issue token for user %s: %w", u.UserID, err)
	}

	s.audit("user_signup", u.UserID, nil)
	return token, u, nil
}

// Login verifies credentials and returns a bearer token.
func (s *UserService) Login(email, password string) (string, model.User, error) {
	u, err := s.store.GetUserByEmail(email)
	if err != nil {
		// Same error for unknown email and wrong password.
		return "", model.User{}, fmt.Errorf("service: %w", auctionerrors.ErrInvalidCredentials)
	}
	if !utils.CheckPassword(password, u.PasswordHash) {
		return "", model.User{}, fmt.Errorf("service: %w", auctionerrors.ErrInvalidCredentials)
	}

	token, err := s.jwter.Issue(u.UserID, u.Role)
	if err != nil {
		return "", model.User{}, fmt.Errorf("service: failed to issue token for user %s: %w", u.UserID, err)
	}
	return token, u, nil
}

// Profile returns the user's own record.
func (s *UserService) Profile(userID string) (model.User, error) {
	u, err := s.store.GetUser(userID)
	if err != nil {
		return model.User{}, fmt.Errorf("service: failed to get user %s: %w", userID, err)
	}
	s.audit("profile_viewed", userID, nil)
	return u, nil
}

// ListUsers returns all users. Admin only, enforced at the handler boundary.
func (s *UserService) ListUsers(adminID string) ([]model.User, error) {
	users, err := s.store.ListUsers()
	if err != nil {
		return nil, fmt.Errorf("service: failed to list users: %w", err)
	}
	s.audit("users_list_viewed", adminID, nil)
	return users, nil
}

// UpdateUser lets an admin change a user's username, email or role. Empty
// fields are left untouched.
func (s *UserService) UpdateUser(adminID, targetID, username, email, role string) (model.User, error) {
	if role != "" && role != model.RoleUser && role != model.RoleAdmin {
		return model.User{}, fmt.Errorf("service: %w - unknown role %q", auctionerrors.ErrInvalidInput, role)
	}

	u, err := s.store.GetUser(targetID)
	if err != nil {
		return model.User{}, fmt.Errorf("service: failed to get user %s: %w", targetID, err)
	}

	if username != "" {
		u.Username = username
	}
	if email != "" {
		u.Email = email
	}
	if role != "" {
		u.Role = role
	}
	if err := s.store.UpdateUser(u); err != nil {
		return model.User{}, fmt.Errorf("service: failed to update user %s: %w", targetID, err)
	}

	s.audit("user_update", adminID, map[string]any{"target_user_id": targetID})
	return u, nil
}

// DeleteUser removes a user. Admin only, enforced at the handler boundary.
func (s *UserService) DeleteUser(adminID, targetID string) error {
	if err := s.store.DeleteUser(targetID); err != nil {
		return fmt.Errorf("service: failed to delete user %s: %w", targetID, err)
	}
	s.audit("user_delete", adminID, map[string]any{"target_user_id": targetID})
	return nil
}

// GetUser exposes a plain lookup for the admin-role middleware.
func (s *UserService) GetUser(userID string) (model.User, error) {
	return s.store.GetUser(userID)
}

// audit appends an audit entry, log-and-continue on failure.
func (s *UserService) audit(action, userID string, details map[string]any) {
	entry := model.AuditLog{
		AuditID:   utils.GenerateID(),
		Action:    action,
		UserID:    userID,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.AppendAuditLog(entry); err != nil {
		utils.Warn("user: failed to append audit log", map[string]any{
			"action": action,
			"error":  err.Error(),
		})
	}
}
