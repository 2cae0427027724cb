package repository

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"

	"github.com/stretchr/testify/require"
)

// Helper to create a new Auction
func newAuction(auctionID, creatorID string, price float64, status string) model.Auction {
	now := time.Now().UTC()
	return model.Auction{
		AuctionID:    auctionID,
		Title:        fmt.Sprintf("%s title", auctionID),
		Description:  fmt.Sprintf("%s description", auctionID),
		StartPrice:   price,
		CurrentPrice: price,
		StartTime:    now,
		EndTime:      now.Add(24 * time.Hour),
		Status:       status,
		CreatorID:    creatorID,
		Category:     "art",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Helper to create a new User
func newUser(userID, username, email string) model.User {
	return model.User{
		UserID:    userID,
		Username:  username,
		Email:     email,
		Role:      model.RoleUser,
		CreatedAt: time.Now().UTC(),
	}
}

// Helper to create a new Bid
func newBid(bidID, auctionID, bidderID string, amount float64, createdAt time.Time) model.Bid {
	return model.Bid{
		BidID:     bidID,
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
		Status:    model.BidStatusAccepted,
		CreatedAt: createdAt,
	}
}

// Test CreateAuction / GetAuction
func TestMemoryStore_AuctionCRUD(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	require.NoError(t, store.CreateUser(newUser("user1", "alice", "alice@example.com")))

	a := newAuction("auction1", "user1", 100, model.AuctionStatusActive)
	require.NoError(t, store.CreateAuction(a))

	t.Run("get_existing", func(t *testing.T) {
		got, err := store.GetAuction("auction1")
		require.NoError(t, err)
		require.Equal(t, a, got)
	})

	t.Run("get_missing", func(t *testing.T) {
		_, err := store.GetAuction("nope")
		require.Error(t, err)
		require.True(t, errors.Is(err, auctionerrors.ErrAuctionNotFound))
	})

	t.Run("missing_auction_id_rejected", func(t *testing.T) {
		err := store.CreateAuction(model.Auction{})
		require.Error(t, err)
		require.True(t, errors.Is(err, auctionerrors.ErrInvalidInput))
	})

	t.Run("view_resolves_creator_username", func(t *testing.T) {
		view, err := store.GetAuctionView("auction1")
		require.NoError(t, err)
		require.Equal(t, "alice", view.CreatorUsername)
		require.Equal(t, a.AuctionID, view.AuctionID)
	})

	t.Run("view_embeds_bids_with_bidders", func(t *testing.T) {
		require.NoError(t, store.CreateUser(newUser("user2", "bob", "bob@example.com")))
		now := time.Now().UTC()
		require.NoError(t, store.CreateBid(newBid("bid1", "auction1", "user2", 120, now)))
		require.NoError(t, store.CreateBid(newBid("bid2", "auction1", "user2", 150, now.Add(time.Second))))

		view, err := store.GetAuctionView("auction1")
		require.NoError(t, err)
		require.Len(t, view.Bids, 2)
		require.Equal(t, "bid2", view.Bids[0].BidID, "highest amount first")
		require.Equal(t, "bob", view.Bids[0].BidderUsername)
		require.Equal(t, "bob", view.Bids[1].BidderUsername)
	})
}

// Test ListAuctions filtering and ordering
func TestMemoryStore_ListAuctions(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()

	early := newAuction("auction1", "user1", 100, model.AuctionStatusActive)
	early.EndTime = time.Now().UTC().Add(1 * time.Hour)
	late := newAuction("auction2", "user1", 200, model.AuctionStatusActive)
	late.EndTime = time.Now().UTC().Add(2 * time.Hour)
	late.Category = "books"
	done := newAuction("auction3", "user2", 300, model.AuctionStatusClosed)
	done.EndTime = time.Now().UTC().Add(3 * time.Hour)

	for _, a := range []model.Auction{late, done, early} {
		require.NoError(t, store.CreateAuction(a))
	}

	tests := []struct {
		name        string
		filter      AuctionFilter
		expectedIDs []string
	}{
		{name: "all_sorted_by_end_time", filter: AuctionFilter{}, expectedIDs: []string{"auction1", "auction2", "auction3"}},
		{name: "status_active", filter: AuctionFilter{Status: model.AuctionStatusActive}, expectedIDs: []string{"auction1", "auction2"}},
		{name: "status_closed", filter: AuctionFilter{Status: model.AuctionStatusClosed}, expectedIDs: []string{"auction3"}},
		{name: "category", filter: AuctionFilter{Category: "books"}, expectedIDs: []string{"auction2"}},
		{name: "status_and_category_no_match", filter: AuctionFilter{Status: model.AuctionStatusClosed, Category: "books"}, expectedIDs: []string{}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			views, err := store.ListAuctions(tc.filter)
			require.NoError(t, err)

			ids := make([]string, 0, len(views))
			for _, v := range views {
				ids = append(ids, v.AuctionID)
			}
			require.Equal(t, tc.expectedIDs, ids)
		})
	}
}

// Test CompareAndSwapPrice
func TestMemoryStore_CompareAndSwapPrice(t *testing.T) {
	t.Parallel()

	t.Run("swap_on_matching_price", func(t *testing.T) {
		t.Parallel()

		store := NewMemoryStore()
		require.NoError(t, store.CreateAuction(newAuction("auction1", "user1", 100, model.AuctionStatusActive)))

		require.NoError(t, store.CompareAndSwapPrice("auction1", 100, 150))

		a, err := store.GetAuction("auction1")
		require.NoError(t, err)
		require.Equal(t, 150.0, a.CurrentPrice)
	})

	t.Run("conflict_on_stale_price", func(t *testing.T) {
		t.Parallel()

		store := NewMemoryStore()
		require.NoError(t, store.CreateAuction(newAuction("auction1", "user1", 100, model.AuctionStatusActive)))
		require.NoError(t, store.CompareAndSwapPrice("auction1", 100, 150))

		err := store.CompareAndSwapPrice("auction1", 100, 120)
		require.Error(t, err)
		require.True(t, errors.Is(err, auctionerrors.ErrPriceConflict))

		// Loser must not have moved the price.
		a, err := store.GetAuction("auction1")
		require.NoError(t, err)
		require.Equal(t, 150.0, a.CurrentPrice)
	})

	t.Run("closed_auction_rejected", func(t *testing.T) {
		t.Parallel()

		store := NewMemoryStore()
		require.NoError(t, store.CreateAuction(newAuction("auction1", "user1", 100, model.AuctionStatusClosed)))

		err := store.CompareAndSwapPrice("auction1", 100, 150)
		require.Error(t, err)
		require.True(t, errors.Is(err, auctionerrors.ErrAuctionClosed))
	})

	t.Run("missing_auction", func(t *testing.T) {
		t.Parallel()

		store := NewMemoryStore()
		err := store.CompareAndSwapPrice("nope", 100, 150)
		require.Error(t, err)
		require.True(t, errors.Is(err, auctionerrors.ErrAuctionNotFound))
	})

	// concurrency test: out of N racers against the same snapshot exactly one
	// swap may win
	t.Run("concurrent_swaps_single_winner", func(t *testing.T) {
		t.Parallel()

		store := NewMemoryStore()
		require.NoError(t, store.CreateAuction(newAuction("auction1", "user1", 100, model.AuctionStatusActive)))

		var wg sync.WaitGroup
		var mu sync.Mutex
		wins := 0
		concurrentCount := 50

		for i := 0; i < concurrentCount; i++ {
			wg.Add(1)
			i := i
			go func() {
				defer wg.Done()
				if err := store.CompareAndSwapPrice("auction1", 100, float64(101+i)); err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		require.Equal(t, 1, wins)
	})
}

// Test SetAuctionStatus
func TestMemoryStore_SetAuctionStatus(t *testing.T) {
	t.Parallel()

	t.Run("closes_active_auction", func(t *testing.T) {
		t.Parallel()

		store := NewMemoryStore()
		require.NoError(t, store.CreateAuction(newAuction("auction1", "user1", 100, model.AuctionStatusActive)))

		closedAt := time.Now().UTC()
		require.NoError(t, store.SetAuctionStatus("auction1", model.AuctionStatusClosed, closedAt))

		got, err := store.GetAuction("auction1")
		require.NoError(t, err)
		require.Equal(t, model.AuctionStatusClosed, got.Status)
		require.WithinDuration(t, closedAt, got.EndTime, time.Second)
	})

	t.Run("closed_is_terminal", func(t *testing.T) {
		t.Parallel()

		store := NewMemoryStore()
		require.NoError(t, store.CreateAuction(newAuction("auction1", "user1", 100, model.AuctionStatusClosed)))

		err := store.SetAuctionStatus("auction1", model.AuctionStatusActive, time.Now().UTC())
		require.True(t, errors.Is(err, auctionerrors.ErrAuctionClosed))

		err = store.SetAuctionStatus("auction1", model.AuctionStatusClosed, time.Now().UTC())
		require.True(t, errors.Is(err, auctionerrors.ErrAuctionClosed))
	})

	t.Run("missing_auction", func(t *testing.T) {
		t.Parallel()

		store := NewMemoryStore()
		err := store.SetAuctionStatus("missing", model.AuctionStatusClosed, time.Now().UTC())
		require.True(t, errors.Is(err, auctionerrors.ErrAuctionNotFound))
	})
}

// Test CreateBid / GetBidsByAuction / GetHighestBid
func TestMemoryStore_Bids(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	require.NoError(t, store.CreateUser(newUser("user2", "bob", "bob@example.com")))
	require.NoError(t, store.CreateAuction(newAuction("auction1", "user1", 100, model.AuctionStatusActive)))

	now := time.Now().UTC()
	require.NoError(t, store.CreateBid(newBid("bid1", "auction1", "user2", 120, now)))
	require.NoError(t, store.CreateBid(newBid("bid2", "auction1", "user3", 180, now.Add(time.Second))))
	require.NoError(t, store.CreateBid(newBid("bid3", "auction1", "user4", 150, now.Add(2*time.Second))))

	t.Run("bid_for_missing_auction_rejected", func(t *testing.T) {
		err := store.CreateBid(newBid("bidX", "nope", "user2", 50, now))
		require.Error(t, err)
		require.True(t, errors.Is(err, auctionerrors.ErrAuctionNotFound))
	})

	t.Run("list_sorted_amount_desc", func(t *testing.T) {
		views, err := store.GetBidsByAuction("auction1")
		require.NoError(t, err)
		require.Len(t, views, 3)
		require.Equal(t, []float64{180, 150, 120}, []float64{views[0].Amount, views[1].Amount, views[2].Amount})
		// Read-side join resolves known bidders only.
		require.Equal(t, "bob", views[2].BidderUsername)
		require.Empty(t, views[0].BidderUsername)
	})

	t.Run("highest_bid", func(t *testing.T) {
		highest, err := store.GetHighestBid("auction1")
		require.NoError(t, err)
		require.Equal(t, "bid2", highest.BidID)
	})

	t.Run("highest_bid_no_bids", func(t *testing.T) {
		require.NoError(t, store.CreateAuction(newAuction("auction2", "user1", 10, model.AuctionStatusActive)))
		_, err := store.GetHighestBid("auction2")
		require.Error(t, err)
		require.True(t, errors.Is(err, auctionerrors.ErrNoBids))
	})

	// concurrency test
	t.Run("concurrent_bids", func(t *testing.T) {
		t.Parallel()

		store := NewMemoryStore()
		require.NoError(t, store.CreateAuction(newAuction("auction1", "user1", 100, model.AuctionStatusActive)))

		var wg sync.WaitGroup
		concurrentCount := 50
		for i := 0; i < concurrentCount; i++ {
			wg.Add(1)
			i := i
			go func() {
				defer wg.Done()
				b := newBid(fmt.Sprintf("bid-%d", i), "auction1", fmt.Sprintf("user-%d", i), float64(100+i), time.Now())
				require.NoError(t, store.CreateBid(b))
			}()
		}
		wg.Wait()

		views, err := store.GetBidsByAuction("auction1")
		require.NoError(t, err)
		require.Len(t, views, concurrentCount)
	})
}

// Test user CRUD and uniqueness indexes
func TestMemoryStore_Users(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	require.NoError(t, store.CreateUser(newUser("user1", "alice", "alice@example.com")))

	t.Run("duplicate_email", func(t *testing.T) {
		err := store.CreateUser(newUser("user2", "alice2", "alice@example.com"))
		require.Error(t, err)
		require.True(t, errors.Is(err, auctionerrors.ErrEmailTaken))
	})

	t.Run("duplicate_username", func(t *testing.T) {
		err := store.CreateUser(newUser("user2", "alice", "other@example.com"))
		require.Error(t, err)
		require.True(t, errors.Is(err, auctionerrors.ErrUsernameTaken))
	})

	t.Run("get_by_email", func(t *testing.T) {
		u, err := store.GetUserByEmail("alice@example.com")
		require.NoError(t, err)
		require.Equal(t, "user1", u.UserID)

		_, err = store.GetUserByEmail("nobody@example.com")
		require.True(t, errors.Is(err, auctionerrors.ErrUserNotFound))
	})

	t.Run("update_moves_indexes", func(t *testing.T) {
		u, err := store.GetUser("user1")
		require.NoError(t, err)
		u.Email = "new@example.com"
		require.NoError(t, store.UpdateUser(u))

		_, err = store.GetUserByEmail("alice@example.com")
		require.True(t, errors.Is(err, auctionerrors.ErrUserNotFound))

		got, err := store.GetUserByEmail("new@example.com")
		require.NoError(t, err)
		require.Equal(t, "user1", got.UserID)
	})

	t.Run("update_to_taken_email_rejected", func(t *testing.T) {
		require.NoError(t, store.CreateUser(newUser("user3", "carol", "carol@example.com")))

		u, err := store.GetUser("user3")
		require.NoError(t, err)
		u.Email = "new@example.com"
		err = store.UpdateUser(u)
		require.Error(t, err)
		require.True(t, errors.Is(err, auctionerrors.ErrEmailTaken))
	})

	t.Run("append_refs", func(t *testing.T) {
		require.NoError(t, store.AppendCreatedAuction("user1", "auction1"))
		require.NoError(t, store.AppendBidRef("user1", "bid1"))

		u, err := store.GetUser("user1")
		require.NoError(t, err)
		require.Contains(t, u.CreatedAuctions, "auction1")
		require.Contains(t, u.Bids, "bid1")
	})

	t.Run("delete_frees_indexes", func(t *testing.T) {
		require.NoError(t, store.CreateUser(newUser("user4", "dave", "dave@example.com")))
		require.NoError(t, store.DeleteUser("user4"))

		_, err := store.GetUser("user4")
		require.True(t, errors.Is(err, auctionerrors.ErrUserNotFound))

		// Freed username and email are reusable.
		require.NoError(t, store.CreateUser(newUser("user5", "dave", "dave@example.com")))
	})
}

// Test notifications
func TestMemoryStore_Notifications(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	base := time.Now().UTC()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.CreateNotification(model.Notification{
			NotificationID: fmt.Sprintf("n-%d", i),
			UserID:         "user1",
			Content:        fmt.Sprintf("message %d", i),
			Status:         model.NotificationStatusUnread,
			Type:           model.NotificationTypeSystem,
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
		}))
	}
	require.NoError(t, store.CreateNotification(model.Notification{
		NotificationID: "other",
		UserID:         "user2",
		Status:         model.NotificationStatusUnread,
		CreatedAt:      base,
	}))

	t.Run("list_newest_first_scoped_to_user", func(t *testing.T) {
		out, err := store.ListNotificationsByUser("user1", 0)
		require.NoError(t, err)
		require.Len(t, out, 5)
		require.Equal(t, "n-4", out[0].NotificationID)
		require.Equal(t, "n-0", out[4].NotificationID)
	})

	t.Run("list_respects_limit", func(t *testing.T) {
		out, err := store.ListNotificationsByUser("user1", 2)
		require.NoError(t, err)
		require.Len(t, out, 2)
		require.Equal(t, "n-4", out[0].NotificationID)
	})

	t.Run("mark_read", func(t *testing.T) {
		n, err := store.MarkNotificationRead("n-0")
		require.NoError(t, err)
		require.Equal(t, model.NotificationStatusRead, n.Status)

		_, err = store.MarkNotificationRead("missing")
		require.True(t, errors.Is(err, auctionerrors.ErrNotificationNotFound))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.DeleteNotification("n-1"))
		err := store.DeleteNotification("n-1")
		require.True(t, errors.Is(err, auctionerrors.ErrNotificationNotFound))
	})
}

// Test audit log append
func TestMemoryStore_AuditLog(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	require.NoError(t, store.AppendAuditLog(model.AuditLog{AuditID: "a1", Action: "user_signup", UserID: "user1", CreatedAt: time.Now().UTC()}))
	require.NoError(t, store.AppendAuditLog(model.AuditLog{AuditID: "a2", Action: "bid_placed", UserID: "user2", CreatedAt: time.Now().UTC()}))

	logs := store.AuditLogs()
	require.Len(t, logs, 2)
	require.Equal(t, "user_signup", logs[0].Action)
	require.Equal(t, "bid_placed", logs[1].Action)
}
