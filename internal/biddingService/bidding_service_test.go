package bidding

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/broadcast"
	model "auction-house/internal/models"
	"auction-house/internal/repository"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []broadcast.Event
}

func (p *recordingPublisher) Publish(room string, event broadcast.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	event.Room = room
	p.events = append(p.events, event)
}

func (p *recordingPublisher) named(name string) []broadcast.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []broadcast.Event
	for _, e := range p.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

func activeAuction(auctionID, creatorID string, price float64) model.Auction {
	now := time.Now().UTC()
	return model.Auction{
		AuctionID:    auctionID,
		Title:        "vintage lamp",
		CurrentPrice: price,
		StartPrice:   price,
		Status:       model.AuctionStatusActive,
		CreatorID:    creatorID,
		EndTime:      now.Add(24 * time.Hour),
		CreatedAt:    now,
	}
}

// Tests ValidateBid check ordering: closed beats self-bid beats too-low
func TestValidateBid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		auction       model.Auction
		amount        float64
		bidderID      string
		expectedError error
	}{
		{
			name:          "valid_bid",
			auction:       activeAuction("auction1", "creator", 100),
			amount:        150,
			bidderID:      "user1",
			expectedError: nil,
		},
		{
			name: "closed_auction",
			auction: model.Auction{
				AuctionID: "auction1",
				Status:    model.AuctionStatusClosed,
				CreatorID: "creator",
			},
			amount:        150,
			bidderID:      "user1",
			expectedError: auctionerrors.ErrAuctionClosed,
		},
		{
			name:          "self_bid",
			auction:       activeAuction("auction1", "creator", 100),
			amount:        150,
			bidderID:      "creator",
			expectedError: auctionerrors.ErrSelfBid,
		},
		{
			name:          "equal_amount_too_low",
			auction:       activeAuction("auction1", "creator", 100),
			amount:        100,
			bidderID:      "user1",
			expectedError: auctionerrors.ErrBidTooLow,
		},
		{
			name:          "lower_amount_too_low",
			auction:       activeAuction("auction1", "creator", 100),
			amount:        80,
			bidderID:      "user1",
			expectedError: auctionerrors.ErrBidTooLow,
		},
		{
			name: "closed_wins_over_self_bid",
			auction: model.Auction{
				AuctionID: "auction1",
				Status:    model.AuctionStatusClosed,
				CreatorID: "creator",
			},
			amount:        150,
			bidderID:      "creator",
			expectedError: auctionerrors.ErrAuctionClosed,
		},
		{
			name:          "self_bid_wins_over_too_low",
			auction:       activeAuction("auction1", "creator", 100),
			amount:        50,
			bidderID:      "creator",
			expectedError: auctionerrors.ErrSelfBid,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateBid(tc.auction, tc.amount, tc.bidderID)
			if tc.expectedError == nil {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				require.True(t, errors.Is(err, tc.expectedError), "expected error: %v, got: %v", tc.expectedError, err)
			}
		})
	}
}

// Tests PlaceBid
func TestBiddingService_PlaceBid(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := repository.NewMockStore(ctrl)
	events := &recordingPublisher{}
	service := NewBiddingService(mockStore, events)

	now := time.Now().UTC()

	// Table-driven test cases
	tests := []struct {
		name          string
		auctionID     string
		bidderID      string
		amount        float64
		mockSetup     func()
		expectError   bool
		expectedError error
	}{
		{
			name:      "valid_bid",
			auctionID: "auction1",
			bidderID:  "user1",
			amount:    150,
			mockSetup: func() {
				mockStore.EXPECT().GetAuction("auction1").Return(activeAuction("auction1", "creator", 100), nil)
				mockStore.EXPECT().CompareAndSwapPrice("auction1", 100.0, 150.0).Return(nil)
				mockStore.EXPECT().CreateBid(gomock.Any()).Return(nil)
				mockStore.EXPECT().AppendBidRef("user1", gomock.Any()).Return(nil)
				mockStore.EXPECT().CreateNotification(gomock.Any()).Return(nil)
				mockStore.EXPECT().AppendAuditLog(gomock.Any()).Return(nil)
			},
			expectError: false,
		},
		{
			name:          "empty_auctionID",
			auctionID:     "",
			bidderID:      "user1",
			amount:        50,
			mockSetup:     func() {},
			expectError:   true,
			expectedError: auctionerrors.ErrInvalidInput,
		},
		{
			name:          "empty_bidderID",
			auctionID:     "auction1",
			bidderID:      "",
			amount:        50,
			mockSetup:     func() {},
			expectError:   true,
			expectedError: auctionerrors.ErrInvalidInput,
		},
		{
			name:          "negative_amount",
			auctionID:     "auction1",
			bidderID:      "user1",
			amount:        -50,
			mockSetup:     func() {},
			expectError:   true,
			expectedError: auctionerrors.ErrInvalidInput,
		},
		{
			name:      "auction_not_found",
			auctionID: "missing",
			bidderID:  "user1",
			amount:    150,
			mockSetup: func() {
				mockStore.EXPECT().GetAuction("missing").Return(model.Auction{}, auctionerrors.ErrAuctionNotFound)
			},
			expectError:   true,
			expectedError: auctionerrors.ErrAuctionNotFound,
		},
		{
			name:      "closed_auction",
			auctionID: "auction1",
			bidderID:  "user1",
			amount:    150,
			mockSetup: func() {
				closed := activeAuction("auction1", "creator", 100)
				closed.Status = model.AuctionStatusClosed
				mockStore.EXPECT().GetAuction("auction1").Return(closed, nil)
			},
			expectError:   true,
			expectedError: auctionerrors.ErrAuctionClosed,
		},
		{
			name:      "self_bid",
			auctionID: "auction1",
			bidderID:  "creator",
			amount:    150,
			mockSetup: func() {
				mockStore.EXPECT().GetAuction("auction1").Return(activeAuction("auction1", "creator", 100), nil)
			},
			expectError:   true,
			expectedError: auctionerrors.ErrSelfBid,
		},
		{
			name:      "bid_too_low",
			auctionID: "auction1",
			bidderID:  "user1",
			amount:    100,
			mockSetup: func() {
				mockStore.EXPECT().GetAuction("auction1").Return(activeAuction("auction1", "creator", 100), nil)
			},
			expectError:   true,
			expectedError: auctionerrors.ErrBidTooLow,
		},
		{
			name:      "retries_after_price_conflict",
			auctionID: "auction1",
			bidderID:  "user1",
			amount:    200,
			mockSetup: func() {
				// First snapshot loses the race, second commits.
				mockStore.EXPECT().GetAuction("auction1").Return(activeAuction("auction1", "creator", 100), nil)
				mockStore.EXPECT().CompareAndSwapPrice("auction1", 100.0, 200.0).Return(auctionerrors.ErrPriceConflict)
				mockStore.EXPECT().GetAuction("auction1").Return(activeAuction("auction1", "creator", 150), nil)
				mockStore.EXPECT().CompareAndSwapPrice("auction1", 150.0, 200.0).Return(nil)
				mockStore.EXPECT().CreateBid(gomock.Any()).Return(nil)
				mockStore.EXPECT().AppendBidRef("user1", gomock.Any()).Return(nil)
				mockStore.EXPECT().CreateNotification(gomock.Any()).Return(nil)
				mockStore.EXPECT().AppendAuditLog(gomock.Any()).Return(nil)
			},
			expectError: false,
		},
		{
			name:      "revalidates_after_conflict",
			auctionID: "auction1",
			bidderID:  "user1",
			amount:    150,
			mockSetup: func() {
				// By the re-read the price has passed the bid, so it must
				// now be rejected rather than committed.
				mockStore.EXPECT().GetAuction("auction1").Return(activeAuction("auction1", "creator", 100), nil)
				mockStore.EXPECT().CompareAndSwapPrice("auction1", 100.0, 150.0).Return(auctionerrors.ErrPriceConflict)
				mockStore.EXPECT().GetAuction("auction1").Return(activeAuction("auction1", "creator", 180), nil)
			},
			expectError:   true,
			expectedError: auctionerrors.ErrBidTooLow,
		},
		{
			name:      "retries_exhausted",
			auctionID: "auction1",
			bidderID:  "user1",
			amount:    500,
			mockSetup: func() {
				for i := 0; i < maxPriceRetries; i++ {
					price := float64(100 + i)
					snapshot := activeAuction("auction1", "creator", price)
					mockStore.EXPECT().GetAuction("auction1").Return(snapshot, nil)
					mockStore.EXPECT().CompareAndSwapPrice("auction1", price, 500.0).Return(auctionerrors.ErrPriceConflict)
				}
			},
			expectError:   true,
			expectedError: auctionerrors.ErrPriceConflict,
		},
		{
			name:      "bid_write_fails",
			auctionID: "auction1",
			bidderID:  "user1",
			amount:    150,
			mockSetup: func() {
				mockStore.EXPECT().GetAuction("auction1").Return(activeAuction("auction1", "creator", 100), nil)
				mockStore.EXPECT().CompareAndSwapPrice("auction1", 100.0, 150.0).Return(nil)
				mockStore.EXPECT().CreateBid(gomock.Any()).Return(errors.New("store write failed"))
			},
			expectError:   true,
			expectedError: nil, // Service wraps store error, we don't match specific error here
		},
	}

	for _, tc := range tests {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			tc.mockSetup()

			bid, err := service.PlaceBid(tc.auctionID, tc.bidderID, tc.amount)

			if tc.expectError {
				require.Error(t, err)
				if tc.expectedError != nil {
					require.True(t, errors.Is(err, tc.expectedError), "expected error: %v, got: %v", tc.expectedError, err)
				}
			} else {
				require.NoError(t, err)

				// Validate generated BidID
				require.NotEmpty(t, bid.BidID)
				_, parseErr := uuid.Parse(bid.BidID)
				require.NoError(t, parseErr, "BidID should be a valid UUID")

				// Validate bid fields
				require.Equal(t, tc.auctionID, bid.AuctionID)
				require.Equal(t, tc.bidderID, bid.BidderID)
				require.Equal(t, tc.amount, bid.Amount)
				require.Equal(t, model.BidStatusAccepted, bid.Status)
				require.Len(t, bid.History, 1)
				require.Equal(t, tc.amount, bid.History[0].Amount)
				require.WithinDuration(t, now, bid.CreatedAt, 2*time.Second)
			}
		})
	}
}

// An accepted bid publishes new_bid to the auction room and new_notification
// to the creator room, in that order, strictly after the commit.
func TestBiddingService_PlaceBid_Publishes(t *testing.T) {
	t.Parallel()

	store := repository.NewMemoryStore()
	events := &recordingPublisher{}
	service := NewBiddingService(store, events)

	require.NoError(t, store.CreateUser(model.User{UserID: "creator", Username: "alice", Email: "alice@example.com"}))
	require.NoError(t, store.CreateUser(model.User{UserID: "user1", Username: "bob", Email: "bob@example.com"}))
	require.NoError(t, store.CreateAuction(activeAuction("auction1", "creator", 100)))

	bid, err := service.PlaceBid("auction1", "user1", 150)
	require.NoError(t, err)

	bidEvents := events.named(broadcast.EventNewBid)
	require.Len(t, bidEvents, 1)
	require.Equal(t, "auction1", bidEvents[0].Room)
	require.Equal(t, bid, bidEvents[0].Data)

	notifEvents := events.named(broadcast.EventNewNotification)
	require.Len(t, notifEvents, 1)
	require.Equal(t, "creator", notifEvents[0].Room)

	// Creator got a stored notification as well.
	notifications, err := store.ListNotificationsByUser("creator", 0)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	require.Equal(t, model.NotificationStatusUnread, notifications[0].Status)

	// Bidder's profile references the bid.
	u, err := store.GetUser("user1")
	require.NoError(t, err)
	require.Contains(t, u.Bids, bid.BidID)
}

// A rejected bid publishes nothing and records nothing.
func TestBiddingService_PlaceBid_RejectionIsSilent(t *testing.T) {
	t.Parallel()

	store := repository.NewMemoryStore()
	events := &recordingPublisher{}
	service := NewBiddingService(store, events)

	require.NoError(t, store.CreateAuction(activeAuction("auction1", "creator", 100)))

	_, err := service.PlaceBid("auction1", "user1", 100)
	require.True(t, errors.Is(err, auctionerrors.ErrBidTooLow))

	require.Empty(t, events.events)

	bids, err := store.GetBidsByAuction("auction1")
	require.NoError(t, err)
	require.Empty(t, bids)
}

// Tests ListBidsForAuction
func TestBiddingService_ListBidsForAuction(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := repository.NewMockStore(ctrl)
	service := NewBiddingService(mockStore, &recordingPublisher{})

	bidsExample := []model.BidView{
		{Bid: model.Bid{BidID: "bid2", AuctionID: "auction1", BidderID: "user2", Amount: 150}, BidderUsername: "bob"},
		{Bid: model.Bid{BidID: "bid1", AuctionID: "auction1", BidderID: "user1", Amount: 100}, BidderUsername: "alice"},
	}

	tests := []struct {
		name          string
		auctionID     string
		mockSetup     func()
		expectError   bool
		expectedError error
		expectedBids  []model.BidView
	}{
		{
			name:      "valid_auction_with_bids",
			auctionID: "auction1",
			mockSetup: func() {
				mockStore.EXPECT().GetAuction("auction1").Return(activeAuction("auction1", "creator", 100), nil)
				mockStore.EXPECT().GetBidsByAuction("auction1").Return(bidsExample, nil)
			},
			expectedBids: bidsExample,
		},
		{
			name:      "valid_auction_no_bids",
			auctionID: "auction2",
			mockSetup: func() {
				mockStore.EXPECT().GetAuction("auction2").Return(activeAuction("auction2", "creator", 100), nil)
				mockStore.EXPECT().GetBidsByAuction("auction2").Return([]model.BidView{}, nil)
			},
			expectedBids: []model.BidView{},
		},
		{
			name:          "empty_auctionID",
			auctionID:     "",
			mockSetup:     func() {},
			expectError:   true,
			expectedError: auctionerrors.ErrInvalidInput,
		},
		{
			name:      "auction_not_found",
			auctionID: "missing",
			mockSetup: func() {
				mockStore.EXPECT().GetAuction("missing").Return(model.Auction{}, auctionerrors.ErrAuctionNotFound)
			},
			expectError:   true,
			expectedError: auctionerrors.ErrAuctionNotFound,
		},
		{
			name:      "store_error",
			auctionID: "auction3",
			mockSetup: func() {
				mockStore.EXPECT().GetAuction("auction3").Return(activeAuction("auction3", "creator", 100), nil)
				mockStore.EXPECT().GetBidsByAuction("auction3").Return(nil, errors.New("db failure"))
			},
			expectError:   true,
			expectedError: nil, // Service wraps store error
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			tc.mockSetup()

			bids, err := service.ListBidsForAuction(tc.auctionID)

			if tc.expectError {
				require.Error(t, err)
				if tc.expectedError != nil {
					require.True(t, errors.Is(err, tc.expectedError), "expected error: %v, got: %v", tc.expectedError, err)
				}
			} else {
				require.NoError(t, err)
				require.Equal(t, tc.expectedBids, bids)
			}
		})
	}
}

// Concurrent bidders against the real store: accepted amounts must be
// strictly increasing in commit order and the final price must be the
// highest accepted amount.
func TestBiddingService_PlaceBid_ConcurrentMonotonicPrices(t *testing.T) {
	t.Parallel()

	store := repository.NewMemoryStore()
	service := NewBiddingService(store, &recordingPublisher{})

	require.NoError(t, store.CreateAuction(activeAuction("auction1", "creator", 100)))

	var wg sync.WaitGroup
	concurrentCount := 40

	for i := 0; i < concurrentCount; i++ {
		wg.Add(1)
		i := i
		go func() {
			defer wg.Done()
			// Rejections are expected under contention; only the store's
			// invariants are asserted afterwards.
			_, _ = service.PlaceBid("auction1", fmt.Sprintf("user-%d", i), float64(101+i))
		}()
	}
	wg.Wait()

	auction, err := store.GetAuction("auction1")
	require.NoError(t, err)

	views, err := store.GetBidsByAuction("auction1")
	require.NoError(t, err)
	require.NotEmpty(t, views, "at least one bid must have been accepted")

	// Sorted by amount descending, so the first is the highest accepted.
	require.Equal(t, views[0].Amount, auction.CurrentPrice)

	// No two accepted bids share an amount and all are above the start price.
	seen := make(map[float64]bool)
	for _, v := range views {
		require.Greater(t, v.Amount, 100.0)
		require.False(t, seen[v.Amount], "duplicate accepted amount %v", v.Amount)
		seen[v.Amount] = true
	}
}

// Walks a full auction: two valid bids, one stale bid, closure, then a late
// bid against the closed auction.
func TestBiddingService_AuctionLifecycleScenario(t *testing.T) {
	t.Parallel()

	store := repository.NewMemoryStore()
	service := NewBiddingService(store, &recordingPublisher{})

	require.NoError(t, store.CreateAuction(activeAuction("auction1", "creator", 100)))

	_, err := service.PlaceBid("auction1", "user1", 150)
	require.NoError(t, err)

	_, err = service.PlaceBid("auction1", "user2", 120)
	require.True(t, errors.Is(err, auctionerrors.ErrBidTooLow))

	_, err = service.PlaceBid("auction1", "user2", 200)
	require.NoError(t, err)

	require.NoError(t, store.SetAuctionStatus("auction1", model.AuctionStatusClosed, time.Now().UTC()))

	_, err = service.PlaceBid("auction1", "user3", 500)
	require.True(t, errors.Is(err, auctionerrors.ErrAuctionClosed))

	auction, err := store.GetAuction("auction1")
	require.NoError(t, err)
	require.Equal(t, 200.0, auction.CurrentPrice)
}
