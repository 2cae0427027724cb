package models

import "time"

// Auction statuses
const (
	AuctionStatusActive = "active"
	AuctionStatusClosed = "closed"
)

// Bid statuses
const (
	BidStatusActive    = "active"
	BidStatusRetracted = "retracted"
	BidStatusAccepted  = "accepted"
)

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Notification statuses and types
const (
	NotificationStatusUnread = "unread"
	NotificationStatusRead   = "read"

	NotificationTypeSystem  = "system"
	NotificationTypeMessage = "message"
	NotificationTypeAlert   = "alert"
)

// Auction represents a single auction listing. CurrentPrice never drops below
// StartPrice and Status only ever moves active -> closed.
type Auction struct {
	AuctionID    string    `gorm:"primaryKey;size:36" json:"auction_id"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	StartPrice   float64   `gorm:"not null" json:"start_price"`
	CurrentPrice float64   `gorm:"not null" json:"current_price"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Status       string    `gorm:"size:16;index" json:"status"`
	CreatorID    string    `gorm:"size:36;index" json:"creator_id"`
	Category     string    `gorm:"size:64;index" json:"category"`
	Images       []string  `gorm:"serializer:json" json:"images"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BidHistoryEntry is one append-only (amount, timestamp) pair on a bid.
type BidHistoryEntry struct {
	Amount     float64   `json:"amount"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Bid represents a user's bid on an auction.
type Bid struct {
	BidID     string            `gorm:"primaryKey;size:36" json:"bid_id"`
	AuctionID string            `gorm:"size:36;index" json:"auction_id"`
	BidderID  string            `gorm:"size:36;index" json:"bidder_id"`
	Amount    float64           `gorm:"not null" json:"amount"`
	Status    string            `gorm:"size:16" json:"status"`
	History   []BidHistoryEntry `gorm:"serializer:json" json:"history"`
	CreatedAt time.Time         `json:"created_at"`
}

// User represents a registered participant. PasswordHash is write-only and is
// never serialized into API responses.
type User struct {
	UserID          string    `gorm:"primaryKey;size:36" json:"user_id"`
	Username        string    `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Email           string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash    string    `gorm:"size:100;not null" json:"-"`
	Role            string    `gorm:"size:16;not null;default:user" json:"role"`
	CreatedAuctions []string  `gorm:"serializer:json" json:"created_auctions"`
	Bids            []string  `gorm:"serializer:json" json:"bids"`
	CreatedAt       time.Time `json:"created_at"`
}

// Notification is a per-user message. Status moves unread -> read and the
// record is deletable.
type Notification struct {
	NotificationID string    `gorm:"primaryKey;size:36" json:"notification_id"`
	UserID         string    `gorm:"size:36;index" json:"user_id"`
	Content        string    `gorm:"type:text" json:"content"`
	Status         string    `gorm:"size:16;index" json:"status"`
	Type           string    `gorm:"size:16" json:"type"`
	CreatedAt      time.Time `json:"created_at"`
}

// AuditLog is an append-only record of a user-visible action. Never mutated or
// deleted.
type AuditLog struct {
	AuditID   string         `gorm:"primaryKey;size:36" json:"audit_id"`
	Action    string         `gorm:"size:64;index" json:"action"`
	UserID    string         `gorm:"size:36;index" json:"user_id"`
	Details   map[string]any `gorm:"serializer:json" json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// AuctionView is an auction with its creator reference resolved by the store's
// read-side join. Detail reads also carry the auction's bids; list reads leave
// them empty.
type AuctionView struct {
	Auction
	CreatorUsername string    `gorm:"-" json:"creator_username"`
	Bids            []BidView `gorm:"-" json:"bids,omitempty"`
}

// BidView is a bid with its bidder reference resolved by the store's read-side
// join.
type BidView struct {
	Bid
	BidderUsername string `gorm:"-" json:"bidder_username"`
}
