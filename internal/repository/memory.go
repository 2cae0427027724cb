package repository

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"
)

// MemoryStore is a concurrency-safe in-memory implementation of Store. It is
// the default driver and the substrate for tests.
type MemoryStore struct {
	mu            sync.RWMutex
	auctions      map[string]model.Auction      // key: auctionID
	bids          map[string][]model.Bid        // key: auctionID -> bids in arrival order
	users         map[string]model.User         // key: userID
	emailIndex    map[string]string             // key: email -> userID
	usernameIndex map[string]string             // key: username -> userID
	notifications map[string]model.Notification // key: notificationID
	auditLogs     []model.AuditLog
}

// NewMemoryStore creates a new in-memory store instance.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		auctions:      make(map[string]model.Auction),
		bids:          make(map[string][]model.Bid),
		users:         make(map[string]model.User),
		emailIndex:    make(map[string]string),
		usernameIndex: make(map[string]string),
		notifications: make(map[string]model.Notification),
	}
}

// CreateAuction stores a new auction record.
func (s *MemoryStore) CreateAuction(a model.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.AuctionID == "" {
		return fmt.Errorf("create auction: %w - missing auction ID", auctionerrors.ErrInvalidInput)
	}
	s.auctions[a.AuctionID] = a
	return nil
}

// GetAuction returns the auction snapshot for an ID.
func (s *MemoryStore) GetAuction(auctionID string) (model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return a, nil
}

// GetAuctionView returns an auction with its creator username and bids
// resolved.
func (s *MemoryStore) GetAuctionView(auctionID string) (model.AuctionView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.auctions[auctionID]
	if !ok {
		return model.AuctionView{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	view := s.resolveAuction(a)
	view.Bids = s.resolveBids(auctionID)
	return view, nil
}

// ListAuctions returns auctions matching the filter, sorted by end time
// ascending, with creator usernames resolved.
func (s *MemoryStore) ListAuctions(filter AuctionFilter) ([]model.AuctionView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	views := make([]model.AuctionView, 0, len(s.auctions))
	for _, a := range s.auctions {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.Category != "" && a.Category != filter.Category {
			continue
		}
		views = append(views, s.resolveAuction(a))
	}

	sort.Slice(views, func(i, j int) bool {
		return views[i].EndTime.Before(views[j].EndTime)
	})
	return views, nil
}

// CompareAndSwapPrice updates the auction's current price only while the
// stored price still equals expected. A mismatch means a concurrent bid won
// the race and the caller must re-read and re-validate.
func (s *MemoryStore) CompareAndSwapPrice(auctionID string, expected, newPrice float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[auctionID]
	if !ok {
		return fmt.Errorf("swap price for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if a.Status != model.AuctionStatusActive {
		return fmt.Errorf("swap price for auction %s: %w", auctionID, auctionerrors.ErrAuctionClosed)
	}
	if a.CurrentPrice != expected {
		return fmt.Errorf("swap price for auction %s: %w", auctionID, auctionerrors.ErrPriceConflict)
	}

	a.CurrentPrice = newPrice
	a.UpdatedAt = time.Now().UTC()
	s.auctions[auctionID] = a
	return nil
}

// SetAuctionStatus transitions an auction's status and stamps its end time.
func (s *MemoryStore) SetAuctionStatus(auctionID, status string, endTime time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[auctionID]
	if !ok {
		return fmt.Errorf("set status for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if a.Status == model.AuctionStatusClosed {
		return fmt.Errorf("set status for auction %s: %w", auctionID, auctionerrors.ErrAuctionClosed)
	}

	a.Status = status
	a.EndTime = endTime
	a.UpdatedAt = time.Now().UTC()
	s.auctions[auctionID] = a
	return nil
}

// CreateBid appends a bid record for its auction.
func (s *MemoryStore) CreateBid(bid model.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.auctions[bid.AuctionID]; !ok {
		return fmt.Errorf("create bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionNotFound)
	}
	s.bids[bid.AuctionID] = append(s.bids[bid.AuctionID], bid)
	return nil
}

// GetBidsByAuction returns all bids for an auction sorted by amount
// descending, with bidder usernames resolved.
func (s *MemoryStore) GetBidsByAuction(auctionID string) ([]model.BidView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolveBids(auctionID), nil
}

// resolveBids attaches bidder usernames and sorts by amount descending.
// Caller must hold the lock.
func (s *MemoryStore) resolveBids(auctionID string) []model.BidView {
	bids := s.bids[auctionID]
	views := make([]model.BidView, 0, len(bids))
	for _, b := range bids {
		view := model.BidView{Bid: b}
		if u, ok := s.users[b.BidderID]; ok {
			view.BidderUsername = u.Username
		}
		views = append(views, view)
	}

	sort.Slice(views, func(i, j int) bool {
		return views[i].Amount > views[j].Amount
	})
	return views
}

// GetHighestBid returns the highest bid for an auction.
func (s *MemoryStore) GetHighestBid(auctionID string) (model.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bids := s.bids[auctionID]
	if len(bids) == 0 {
		return model.Bid{}, fmt.Errorf("get highest bid for auction %s: %w", auctionID, auctionerrors.ErrNoBids)
	}

	highest := bids[0]
	for _, b := range bids[1:] {
		if b.Amount > highest.Amount || (b.Amount == highest.Amount && b.CreatedAt.Before(highest.CreatedAt)) {
			highest = b
		}
	}
	return highest, nil
}

// CreateUser stores a new user, enforcing email and username uniqueness.
func (s *MemoryStore) CreateUser(u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.emailIndex[u.Email]; taken {
		return fmt.Errorf("create user %s: %w", u.Email, auctionerrors.ErrEmailTaken)
	}
	if _, taken := s.usernameIndex[u.Username]; taken {
		return fmt.Errorf("create user %s: %w", u.Username, auctionerrors.ErrUsernameTaken)
	}

	s.users[u.UserID] = u
	s.emailIndex[u.Email] = u.UserID
	s.usernameIndex[u.Username] = u.UserID
	return nil
}

// GetUser returns a user by ID.
func (s *MemoryStore) GetUser(userID string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	return u, nil
}

// GetUserByEmail returns a user by email.
func (s *MemoryStore) GetUserByEmail(email string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emailIndex[email]
	if !ok {
		return model.User{}, fmt.Errorf("get user by email: %w", auctionerrors.ErrUserNotFound)
	}
	return s.users[id], nil
}

// ListUsers returns all users sorted by creation time ascending.
func (s *MemoryStore) ListUsers() ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

// UpdateUser replaces a user record and keeps the uniqueness indexes in step.
func (s *MemoryStore) UpdateUser(u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.users[u.UserID]
	if !ok {
		return fmt.Errorf("update user %s: %w", u.UserID, auctionerrors.ErrUserNotFound)
	}

	if u.Email != old.Email {
		if owner, taken := s.emailIndex[u.Email]; taken && owner != u.UserID {
			return fmt.Errorf("update user %s: %w", u.UserID, auctionerrors.ErrEmailTaken)
		}
		delete(s.emailIndex, old.Email)
		s.emailIndex[u.Email] = u.UserID
	}
	if u.Username != old.Username {
		if owner, taken := s.usernameIndex[u.Username]; taken && owner != u.UserID {
			return fmt.Errorf("update user %s: %w", u.UserID, auctionerrors.ErrUsernameTaken)
		}
		delete(s.usernameIndex, old.Username)
		s.usernameIndex[u.Username] = u.UserID
	}

	s.users[u.UserID] = u
	return nil
}

// DeleteUser removes a user and its index entries.
func (s *MemoryStore) DeleteUser(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("delete user %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	delete(s.users, userID)
	delete(s.emailIndex, u.Email)
	delete(s.usernameIndex, u.Username)
	return nil
}

// AppendCreatedAuction records an auction reference on its creator.
func (s *MemoryStore) AppendCreatedAuction(userID, auctionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("append auction ref for user %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	u.CreatedAuctions = append(u.CreatedAuctions, auctionID)
	s.users[userID] = u
	return nil
}

// AppendBidRef records a bid reference on its bidder.
func (s *MemoryStore) AppendBidRef(userID, bidID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("append bid ref for user %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	u.Bids = append(u.Bids, bidID)
	s.users[userID] = u
	return nil
}

// CreateNotification stores a new notification.
func (s *MemoryStore) CreateNotification(n model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications[n.NotificationID] = n
	return nil
}

// ListNotificationsByUser returns a user's notifications, newest first,
// capped at limit when limit > 0.
func (s *MemoryStore) ListNotificationsByUser(userID string, limit int) ([]model.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MarkNotificationRead transitions a notification to read and returns it.
func (s *MemoryStore) MarkNotificationRead(notificationID string) (model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[notificationID]
	if !ok {
		return model.Notification{}, fmt.Errorf("mark notification %s read: %w", notificationID, auctionerrors.ErrNotificationNotFound)
	}
	n.Status = model.NotificationStatusRead
	s.notifications[notificationID] = n
	return n, nil
}

// DeleteNotification removes a notification.
func (s *MemoryStore) DeleteNotification(notificationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notifications[notificationID]; !ok {
		return fmt.Errorf("delete notification %s: %w", notificationID, auctionerrors.ErrNotificationNotFound)
	}
	delete(s.notifications, notificationID)
	return nil
}

// AppendAuditLog appends an audit entry. Entries are write-once.
func (s *MemoryStore) AppendAuditLog(entry model.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

// AuditLogs returns a copy of the audit trail. Intended for tests.
func (s *MemoryStore) AuditLogs() []model.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.AuditLog(nil), s.auditLogs...)
}

// resolveAuction attaches the creator username. Caller must hold the lock.
func (s *MemoryStore) resolveAuction(a model.Auction) model.AuctionView {
	view := model.AuctionView{Auction: a}
	if u, ok := s.users[a.CreatorID]; ok {
		view.CreatorUsername = u.Username
	}
	return view
}
