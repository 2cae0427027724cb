package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"
)

// GormStore is a SQL-backed implementation of Store for postgres and mysql.
type GormStore struct {
	db *gorm.DB
}

// OpenGorm opens a gorm connection for the configured driver.
func OpenGorm(driver, dsn string) (*gorm.DB, error) {
	var dial gorm.Dialector
	switch driver {
	case "postgres":
		dial = postgres.Open(dsn)
	case "mysql":
		dial = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("open database: unsupported driver %q", driver)
	}

	db, err := gorm.Open(dial, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// NewGormStore wraps an open connection and migrates the schema.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(
		&model.Auction{},
		&model.Bid{},
		&model.User{},
		&model.Notification{},
		&model.AuditLog{},
	); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// CreateAuction stores a new auction record.
func (s *GormStore) CreateAuction(a model.Auction) error {
	return s.db.Create(&a).Error
}

// GetAuction returns the auction snapshot for an ID.
func (s *GormStore) GetAuction(auctionID string) (model.Auction, error) {
	var a model.Auction
	err := s.db.First(&a, "auction_id = ?", auctionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return a, err
}

// GetAuctionView returns an auction with its creator username and bids
// resolved.
func (s *GormStore) GetAuctionView(auctionID string) (model.AuctionView, error) {
	a, err := s.GetAuction(auctionID)
	if err != nil {
		return model.AuctionView{}, err
	}
	views, err := s.resolveAuctions([]model.Auction{a})
	if err != nil {
		return model.AuctionView{}, err
	}

	view := views[0]
	view.Bids, err = s.GetBidsByAuction(auctionID)
	if err != nil {
		return model.AuctionView{}, err
	}
	return view, nil
}

// ListAuctions returns auctions matching the filter, sorted by end time
// ascending, with creator usernames resolved.
func (s *GormStore) ListAuctions(filter AuctionFilter) ([]model.AuctionView, error) {
	tx := s.db.Model(&model.Auction{})
	if filter.Status != "" {
		tx = tx.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		tx = tx.Where("category = ?", filter.Category)
	}

	var auctions []model.Auction
	if err := tx.Order("end_time asc").Find(&auctions).Error; err != nil {
		return nil, err
	}
	return s.resolveAuctions(auctions)
}

// CompareAndSwapPrice updates the current price only while the stored price
// still equals expected and the auction is still active. Zero rows affected
// means the caller lost a race and must re-read.
func (s *GormStore) CompareAndSwapPrice(auctionID string, expected, newPrice float64) error {
	res := s.db.Model(&model.Auction{}).
		Where("auction_id = ? AND current_price = ? AND status = ?", auctionID, expected, model.AuctionStatusActive).
		Updates(map[string]any{"current_price": newPrice, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return fmt.Errorf("swap price for auction %s: %w", auctionID, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// Distinguish the conflict cause for the caller.
	a, err := s.GetAuction(auctionID)
	if err != nil {
		return err
	}
	if a.Status != model.AuctionStatusActive {
		return fmt.Errorf("swap price for auction %s: %w", auctionID, auctionerrors.ErrAuctionClosed)
	}
	return fmt.Errorf("swap price for auction %s: %w", auctionID, auctionerrors.ErrPriceConflict)
}

// SetAuctionStatus transitions an auction's status and stamps its end time.
func (s *GormStore) SetAuctionStatus(auctionID, status string, endTime time.Time) error {
	res := s.db.Model(&model.Auction{}).
		Where("auction_id = ? AND status <> ?", auctionID, model.AuctionStatusClosed).
		Updates(map[string]any{"status": status, "end_time": endTime, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return fmt.Errorf("set status for auction %s: %w", auctionID, res.Error)
	}
	if res.RowsAffected == 0 {
		var a model.Auction
		if err := s.db.Where("auction_id = ?", auctionID).First(&a).Error; err != nil {
			return fmt.Errorf("set status for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
		}
		return fmt.Errorf("set status for auction %s: %w", auctionID, auctionerrors.ErrAuctionClosed)
	}
	return nil
}

// CreateBid appends a bid record.
func (s *GormStore) CreateBid(bid model.Bid) error {
	return s.db.Create(&bid).Error
}

// GetBidsByAuction returns all bids for an auction sorted by amount
// descending, with bidder usernames resolved.
func (s *GormStore) GetBidsByAuction(auctionID string) ([]model.BidView, error) {
	var bids []model.Bid
	if err := s.db.Where("auction_id = ?", auctionID).Order("amount desc").Find(&bids).Error; err != nil {
		return nil, err
	}

	names, err := s.usernamesFor(collect(bids, func(b model.Bid) string { return b.BidderID }))
	if err != nil {
		return nil, err
	}

	views := make([]model.BidView, 0, len(bids))
	for _, b := range bids {
		views = append(views, model.BidView{Bid: b, BidderUsername: names[b.BidderID]})
	}
	return views, nil
}

// GetHighestBid returns the highest bid for an auction.
func (s *GormStore) GetHighestBid(auctionID string) (model.Bid, error) {
	var b model.Bid
	err := s.db.Where("auction_id = ?", auctionID).Order("amount desc, created_at asc").First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Bid{}, fmt.Errorf("get highest bid for auction %s: %w", auctionID, auctionerrors.ErrNoBids)
	}
	return b, err
}

// CreateUser stores a new user, mapping unique-index violations to the
// domain's uniqueness errors.
func (s *GormStore) CreateUser(u model.User) error {
	err := s.db.Create(&u).Error
	if err != nil && isDuplicateKey(err) {
		if strings.Contains(strings.ToLower(err.Error()), "username") {
			return fmt.Errorf("create user %s: %w", u.Username, auctionerrors.ErrUsernameTaken)
		}
		return fmt.Errorf("create user %s: %w", u.Email, auctionerrors.ErrEmailTaken)
	}
	return err
}

// GetUser returns a user by ID.
func (s *GormStore) GetUser(userID string) (model.User, error) {
	var u model.User
	err := s.db.First(&u, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	return u, err
}

// GetUserByEmail returns a user by email.
func (s *GormStore) GetUserByEmail(email string) (model.User, error) {
	var u model.User
	err := s.db.First(&u, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.User{}, fmt.Errorf("get user by email: %w", auctionerrors.ErrUserNotFound)
	}
	return u, err
}

// ListUsers returns all users sorted by creation time ascending.
func (s *GormStore) ListUsers() ([]model.User, error) {
	var users []model.User
	err := s.db.Order("created_at asc").Find(&users).Error
	return users, err
}

// UpdateUser replaces a user record.
func (s *GormStore) UpdateUser(u model.User) error {
	res := s.db.Model(&model.User{}).Where("user_id = ?", u.UserID).Select("*").Omit("created_at").Updates(&u)
	if res.Error != nil {
		if isDuplicateKey(res.Error) {
			return fmt.Errorf("update user %s: %w", u.UserID, auctionerrors.ErrEmailTaken)
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update user %s: %w", u.UserID, auctionerrors.ErrUserNotFound)
	}
	return nil
}

// DeleteUser removes a user.
func (s *GormStore) DeleteUser(userID string) error {
	res := s.db.Delete(&model.User{}, "user_id = ?", userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete user %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	return nil
}

// AppendCreatedAuction records an auction reference on its creator.
func (s *GormStore) AppendCreatedAuction(userID, auctionID string) error {
	return s.appendRef(userID, func(u *model.User) {
		u.CreatedAuctions = append(u.CreatedAuctions, auctionID)
	})
}

// AppendBidRef records a bid reference on its bidder.
func (s *GormStore) AppendBidRef(userID, bidID string) error {
	return s.appendRef(userID, func(u *model.User) {
		u.Bids = append(u.Bids, bidID)
	})
}

// CreateNotification stores a new notification.
func (s *GormStore) CreateNotification(n model.Notification) error {
	return s.db.Create(&n).Error
}

// ListNotificationsByUser returns a user's notifications, newest first.
func (s *GormStore) ListNotificationsByUser(userID string, limit int) ([]model.Notification, error) {
	tx := s.db.Where("user_id = ?", userID).Order("created_at desc")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	var out []model.Notification
	err := tx.Find(&out).Error
	return out, err
}

// MarkNotificationRead transitions a notification to read and returns it.
func (s *GormStore) MarkNotificationRead(notificationID string) (model.Notification, error) {
	res := s.db.Model(&model.Notification{}).
		Where("notification_id = ?", notificationID).
		Update("status", model.NotificationStatusRead)
	if res.Error != nil {
		return model.Notification{}, res.Error
	}
	if res.RowsAffected == 0 {
		return model.Notification{}, fmt.Errorf("mark notification %s read: %w", notificationID, auctionerrors.ErrNotificationNotFound)
	}

	var n model.Notification
	err := s.db.First(&n, "notification_id = ?", notificationID).Error
	return n, err
}

// DeleteNotification removes a notification.
func (s *GormStore) DeleteNotification(notificationID string) error {
	res := s.db.Delete(&model.Notification{}, "notification_id = ?", notificationID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete notification %s: %w", notificationID, auctionerrors.ErrNotificationNotFound)
	}
	return nil
}

// AppendAuditLog appends an audit entry.
func (s *GormStore) AppendAuditLog(entry model.AuditLog) error {
	return s.db.Create(&entry).Error
}

func (s *GormStore) appendRef(userID string, mutate func(*model.User)) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var u model.User
		if err := tx.First(&u, "user_id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("append ref for user %s: %w", userID, auctionerrors.ErrUserNotFound)
			}
			return err
		}
		mutate(&u)
		return tx.Save(&u).Error
	})
}

// resolveAuctions performs the read-side join of creator usernames.
func (s *GormStore) resolveAuctions(auctions []model.Auction) ([]model.AuctionView, error) {
	names, err := s.usernamesFor(collect(auctions, func(a model.Auction) string { return a.CreatorID }))
	if err != nil {
		return nil, err
	}

	views := make([]model.AuctionView, 0, len(auctions))
	for _, a := range auctions {
		views = append(views, model.AuctionView{Auction: a, CreatorUsername: names[a.CreatorID]})
	}
	return views, nil
}

// usernamesFor maps user IDs to usernames in a single query.
func (s *GormStore) usernamesFor(ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []struct {
		UserID   string
		Username string
	}
	if err := s.db.Model(&model.User{}).Where("user_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.UserID] = r.Username
	}
	return out, nil
}

// collect gathers the distinct keys of a slice.
func collect[T any](items []T, key func(T) string) []string {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, it := range items {
		k := key(it)
		if k != "" && !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// isDuplicateKey detects unique-constraint violations without depending on
// driver-specific error types.
func isDuplicateKey(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
