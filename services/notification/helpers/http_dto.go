package helpers

// Request/Response DTOs
type CreateNotificationRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	Content string `json:"content" binding:"required"`
	Type    string `json:"type" binding:"omitempty,oneof=system message alert"`
}
