package repository

import (
	"time"

	model "auction-house/internal/models"
)

// AuctionFilter narrows ListAuctions. Empty fields match everything.
type AuctionFilter struct {
	Status   string
	Category string
}

// AuctionStore defines auction persistence. CompareAndSwapPrice is the
// mechanism the bidding path depends on to prevent lost updates under
// concurrent bidding: the write succeeds only while the stored price still
// equals the snapshot the caller validated against.
type AuctionStore interface {
	CreateAuction(a model.Auction) error
	GetAuction(auctionID string) (model.Auction, error)
	GetAuctionView(auctionID string) (model.AuctionView, error)
	ListAuctions(filter AuctionFilter) ([]model.AuctionView, error)
	CompareAndSwapPrice(auctionID string, expected, newPrice float64) error
	SetAuctionStatus(auctionID, status string, endTime time.Time) error
}

// BidStore defines bid persistence. Bids are append-only.
type BidStore interface {
	CreateBid(bid model.Bid) error
	GetBidsByAuction(auctionID string) ([]model.BidView, error)
	GetHighestBid(auctionID string) (model.Bid, error)
}

// UserStore defines user persistence. The auction/bid back-references are
// lookup-only and maintained by the write side.
type UserStore interface {
	CreateUser(u model.User) error
	GetUser(userID string) (model.User, error)
	GetUserByEmail(email string) (model.User, error)
	ListUsers() ([]model.User, error)
	UpdateUser(u model.User) error
	DeleteUser(userID string) error
	AppendCreatedAuction(userID, auctionID string) error
	AppendBidRef(userID, bidID string) error
}

// NotificationStore defines per-user notification persistence.
type NotificationStore interface {
	CreateNotification(n model.Notification) error
	ListNotificationsByUser(userID string, limit int) ([]model.Notification, error)
	MarkNotificationRead(notificationID string) (model.Notification, error)
	DeleteNotification(notificationID string) error
}

// AuditStore is an append-only audit sink. Entries are never mutated or
// deleted.
type AuditStore interface {
	AppendAuditLog(entry model.AuditLog) error
}

// Store bundles every store the services need. Both the in-memory and the
// GORM-backed implementations satisfy it.
type Store interface {
	AuctionStore
	BidStore
	UserStore
	NotificationStore
	AuditStore
}
