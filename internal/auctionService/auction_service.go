package auction

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

// CreateAuctionInput carries the validated fields of an auction-creation
// request.
type CreateAuctionInput struct {
	Title       string
	Description string
	StartPrice  float64
	EndTime     time.Time
	Category    string
	Images      []string
}

// AuctionService manages auction lifecycle: creation, listing and the
// irreversible active -> closed transition.
type AuctionService struct {
	store  repository.Store
	events broadcast.Publisher
}

// NewAuctionService creates a new AuctionService instance.
func NewAuctionService(store repository.Store, events broadcast.Publisher) *AuctionService {
	return &AuctionService{
		store:  store,
		events: events,
	}
}

// CreateAuction creates a new active auction. The current price starts at the
// start price.
func (s *AuctionService) CreateAuction(creatorID string, in CreateAuctionInput) (model.Auction, error) {
	if creatorID == "" {
		return model.Auction{}, fmt.Errorf("service: %w - missing creator ID", auctionerrors.ErrInvalidInput)
	}
	if in.StartPrice < 0 {
		return model.Auction{}, fmt.Errorf("service: %w - negative start price", auctionerrors.ErrInvalidInput)
	}

	now := time.Now().UTC()
	auction := model.Auction{
		AuctionID:    utils.GenerateID(),
		Title:        in.Title,
		Description:  in.Description,
		StartPrice:   in.StartPrice,
		CurrentPrice: in.StartPrice,
		StartTime:    now,
		EndTime:      in.EndTime,
		Status:       model.AuctionStatusActive,
		CreatorID:    creatorID,
		Category:     in.Category,
		Images:       in.Images,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateAuction(auction); err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to create auction for user %s: %w", creatorID, err)
	}

	if err := s.store.AppendCreatedAuction(creatorID, auction.AuctionID); err != nil {
		utils.Warn("auction: failed to append auction reference", map[string]any{
			"auction_id": auction.AuctionID,
			"user_id":    creatorID,
			"error":      err.Error(),
		})
	}
	s.audit("auction_created", creatorID, map[string]any{"auction_id": auction.AuctionID})

	return auction, nil
}

// ListAuctions returns auctions matching the optional status/category filter,
// soonest-ending first.
func (s *AuctionService) ListAuctions(status, category string) ([]model.AuctionView, error) {
	if status != "" && status != model.AuctionStatusActive && status != model.AuctionStatusClosed {
		return nil, fmt.Errorf("service: %w - unknown status %q", auctionerrors.ErrInvalidInput, status)
	}

	views, err := s.store.ListAuctions(repository.AuctionFilter{Status: status, Category: category})
	if err != nil {
		return nil, fmt.Errorf("service: failed to list auctions: %w", err)
	}
	return views, nil
}

// GetAuction returns one auction with its creator resolved.
func (s *AuctionService) GetAuction(auctionID string) (model.AuctionView, error) {
	if auctionID == "" {
		return model.AuctionView{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidInput)
	}

	view, err := s.store.GetAuctionView(auctionID)
	if err != nil {
		return model.AuctionView{}, fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}
	return view, nil
}

// CloseAuction transitions an auction from active to closed. Only the
// creator may close, the transition is irreversible, and the end time is
// stamped with the close time. The closure event carries the final price and
// the winning bid when one exists.
func (s *AuctionService) CloseAuction(auctionID, requesterID string) (model.Auction, error) {
	if auctionID == "" || requesterID == "" {
		return model.Auction{}, fmt.Errorf("service: %w - missing auctionID or requesterID", auctionerrors.ErrInvalidInput)
	}

	auction, err := s.store.GetAuction(auctionID)
	if err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
	}
	if auction.CreatorID != requesterID {
		return model.Auction{}, fmt.Errorf("service: auction %s: %w", auctionID, auctionerrors.ErrNotCreator)
	}
	if auction.Status != model.AuctionStatusActive {
		return model.Auction{}, fmt.Errorf("service: auction %s: %w", auctionID, auctionerrors.ErrAuctionClosed)
	}

	closedAt := time.Now().UTC()
	if err := s.store.SetAuctionStatus(auctionID, model.AuctionStatusClosed, closedAt); err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to close auction %s: %w", auctionID, err)
	}
	auction.Status = model.AuctionStatusClosed
	auction.EndTime = closedAt
	auction.UpdatedAt = closedAt

	// A concurrent bid may have moved the price between the snapshot read
	// and the status write. Price swaps are rejected once the auction is
	// closed, so a fresh read is the definitive final state.
	if closed, err := s.store.GetAuction(auctionID); err == nil {
		auction = closed
	} else {
		utils.Warn("auction: failed to reload closed auction", map[string]any{
			"auction_id": auctionID,
			"error":      err.Error(),
		})
	}

	payload := map[string]any{
		"auction":     auction,
		"final_price": auction.CurrentPrice,
	}
	if winning, err := s.store.GetHighestBid(auctionID); err == nil {
		payload["winning_bid"] = winning
	} else if !errors.Is(err, auctionerrors.ErrNoBids) {
		utils.Warn("auction: failed to resolve winning bid", map[string]any{
			"auction_id": auctionID,
			"error":      err.Error(),
		})
	}

	s.events.Publish(auctionID, broadcast.Event{Name: broadcast.EventAuctionClosed, Data: payload})
	s.audit("auction_closed", requesterID, map[string]any{
		"auction_id":  auctionID,
		"final_price": auction.CurrentPrice,
	})

	return auction, nil
}

// audit appends an audit entry, log-and-continue on failure.
func (s *AuctionService) audit(action, userID string, details map[string]any) {
	entry := model.AuditLog{
		AuditID:   utils.GenerateID(),
		Action:    action,
		UserID:    userID,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.AppendAuditLog(entry); err != nil {
		utils.Warn("auction: failed to append audit log", map[string]any{
			"action": action,
			"error":  err.Error(),
		})
	}
}
