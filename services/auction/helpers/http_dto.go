package helpers

// Request/Response DTOs
type CreateAuctionRequest struct {
	Title       string   `json:"title" binding:"required,min=5"`
	Description string   `json:"description" binding:"required,min=10"`
	StartPrice  float64  `json:"start_price" binding:"gte=0"`
	EndTime     string   `json:"end_time" binding:"required"`
	Category    string   `json:"category" binding:"required"`
	Images      []string `json:"images"`
}
