package bidding

import (
	"errors"
	"fmt"
	"time"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/broadcast"
	model "auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/utils"
)

// maxPriceRetries bounds the compare-and-set retry loop. A conflict means a
// concurrent bid moved the price first; the next iteration re-reads and
// re-validates against the fresh snapshot.
const maxPriceRetries = 3

// BiddingService defines the business logic for placing and listing bids.
type BiddingService struct {
	store  repository.Store
	events broadcast.Publisher
}

// NewBiddingService creates a new BiddingService instance.
func NewBiddingService(store repository.Store, events broadcast.Publisher) *BiddingService {
	return &BiddingService{
		store:  store,
		events: events,
	}
}

// ValidateBid decides accept/reject for a proposed bid against an auction
// snapshot. Pure decision function; the caller is responsible for committing
// atomically against the same snapshot. Checks run in fixed order: closed
// auction, self-bid, then price.
func ValidateBid(auction model.Auction, amount float64, bidderID string) error {
	if auction.Status != model.AuctionStatusActive {
		return fmt.Errorf("auction %s: %w", auction.AuctionID, auctionerrors.ErrAuctionClosed)
	}
	if bidderID == auction.CreatorID {
		return fmt.Errorf("auction %s: %w", auction.AuctionID, auctionerrors.ErrSelfBid)
	}
	if amount <= auction.CurrentPrice {
		return fmt.Errorf("auction %s: %w - current price is %.2f", auction.AuctionID, auctionerrors.ErrBidTooLow, auction.CurrentPrice)
	}
	return nil
}

// PlaceBid validates and records a user's bid on an auction. Acceptance is
// linearized on the auction's current price: the price write succeeds only
// while the stored price still equals the validated snapshot, so accepted
// amounts per auction are strictly increasing even under concurrent bidding.
func (s *BiddingService) PlaceBid(auctionID, bidderID string, amount float64) (model.Bid, error) {
	if auctionID == "" || bidderID == "" {
		return model.Bid{}, fmt.Errorf("service: %w - missing auctionID or bidderID", auctionerrors.ErrInvalidInput)
	}
	if amount < 0 {
		return model.Bid{}, fmt.Errorf("service: %w - negative bid amount", auctionerrors.ErrInvalidInput)
	}

	var auction model.Auction
	committed := false
	for attempt := 0; attempt < maxPriceRetries; attempt++ {
		snapshot, err := s.store.GetAuction(auctionID)
		if err != nil {
			return model.Bid{}, fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
		}

		if err := ValidateBid(snapshot, amount, bidderID); err != nil {
			return model.Bid{}, fmt.Errorf("service: %w", err)
		}

		err = s.store.CompareAndSwapPrice(auctionID, snapshot.CurrentPrice, amount)
		if err == nil {
			auction = snapshot
			auction.CurrentPrice = amount
			committed = true
			break
		}
		if errors.Is(err, auctionerrors.ErrPriceConflict) {
			// Lost the race, re-read and re-validate.
			continue
		}
		return model.Bid{}, fmt.Errorf("service: failed to commit price for auction %s: %w", auctionID, err)
	}
	if !committed {
		return model.Bid{}, fmt.Errorf("service: retries exhausted for auction %s: %w", auctionID, auctionerrors.ErrPriceConflict)
	}

	now := time.Now().UTC()
	bid := model.Bid{
		BidID:     utils.GenerateID(),
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
		Status:    model.BidStatusAccepted,
		History:   []model.BidHistoryEntry{{Amount: amount, ModifiedAt: now}},
		CreatedAt: now,
	}

	if err := s.store.CreateBid(bid); err != nil {
		return model.Bid{}, fmt.Errorf("service: failed to record bid for auction %s by user %s: %w", auctionID, bidderID, err)
	}

	// Publication strictly follows the commit it reports. Side-channel
	// writes are log-and-continue: their failure never rolls back the bid.
	s.events.Publish(auctionID, broadcast.Event{Name: broadcast.EventNewBid, Data: bid})
	s.afterAccept(auction, bid)

	return bid, nil
}

// ListBidsForAuction returns all bids for an auction, highest amount first.
func (s *BiddingService) ListBidsForAuction(auctionID string) ([]model.BidView, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidInput)
	}

	if _, err := s.store.GetAuction(auctionID); err != nil {
		return nil, fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
	}

	bids, err := s.store.GetBidsByAuction(auctionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for auction %s: %w", auctionID, err)
	}
	return bids, nil
}

// afterAccept performs the non-transactional follow-ups of an accepted bid.
func (s *BiddingService) afterAccept(auction model.Auction, bid model.Bid) {
	if err := s.store.AppendBidRef(bid.BidderID, bid.BidID); err != nil {
		utils.Warn("bidding: failed to append bid reference", map[string]any{
			"bid_id":  bid.BidID,
			"user_id": bid.BidderID,
			"error":   err.Error(),
		})
	}

	notification := model.Notification{
		NotificationID: utils.GenerateID(),
		UserID:         auction.CreatorID,
		Content:        fmt.Sprintf("New bid of %.2f on %q", bid.Amount, auction.Title),
		Status:         model.NotificationStatusUnread,
		Type:           model.NotificationTypeAlert,
		CreatedAt:      bid.CreatedAt,
	}
	if err := s.store.CreateNotification(notification); err != nil {
		utils.Warn("bidding: failed to store bid notification", map[string]any{
			"auction_id": auction.AuctionID,
			"user_id":    auction.CreatorID,
			"error":      err.Error(),
		})
	} else {
		s.events.Publish(auction.CreatorID, broadcast.Event{Name: broadcast.EventNewNotification, Data: notification})
	}

	if err := s.store.AppendAuditLog(model.AuditLog{
		AuditID:   utils.GenerateID(),
		Action:    "bid_placed",
		UserID:    bid.BidderID,
		Details:   map[string]any{"auction_id": bid.AuctionID, "bid_id": bid.BidID, "amount": bid.Amount},
		CreatedAt: bid.CreatedAt,
	}); err != nil {
		utils.Warn("bidding: failed to append audit log", map[string]any{
			"bid_id": bid.BidID,
			"error":  err.Error(),
		})
	}
}
