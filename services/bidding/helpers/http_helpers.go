package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"auction-house/internal/auctionerrors"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

// Machine-readable bid rejection reasons, returned alongside the HTTP status.
const (
	ReasonAuctionClosed    = "AuctionClosed"
	ReasonSelfBidForbidden = "SelfBidForbidden"
	ReasonBidTooLow        = "BidTooLow"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// RejectionReason maps a bid validation error to its machine-readable reason.
// The second return is false for errors that are not bid rejections.
func RejectionReason(err error) (string, bool) {
	switch {
	case errors.Is(err, auctionerrors.ErrAuctionClosed):
		return ReasonAuctionClosed, true
	case errors.Is(err, auctionerrors.ErrSelfBid):
		return ReasonSelfBidForbidden, true
	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return ReasonBidTooLow, true
	default:
		return "", false
	}
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, auctionerrors.ErrAuctionNotFound):
		return http.StatusNotFound, "auction not found"
	case errors.Is(err, auctionerrors.ErrAuctionClosed):
		return http.StatusBadRequest, "auction is not active"
	case errors.Is(err, auctionerrors.ErrSelfBid):
		return http.StatusForbidden, "cannot bid on your own auction"
	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return http.StatusBadRequest, "bid must be higher than current price"
	case errors.Is(err, auctionerrors.ErrInvalidInput):
		return http.StatusBadRequest, "invalid bid details"
	case errors.Is(err, auctionerrors.ErrPriceConflict):
		// Retries exhausted inside the service.
		return http.StatusInternalServerError, "bid could not be committed"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
