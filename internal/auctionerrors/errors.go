package auctionerrors

import "errors"

// Repository-level errors
var (
	ErrAuctionNotFound      = errors.New("auction not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNoBids               = errors.New("no bids found for auction")
	ErrPriceConflict        = errors.New("auction price changed concurrently")
	ErrEmailTaken           = errors.New("email already registered")
	ErrUsernameTaken        = errors.New("username already taken")
)

// Business logic errors
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrAuctionClosed      = errors.New("auction is not active")
	ErrSelfBid            = errors.New("creator cannot bid on own auction")
	ErrBidTooLow          = errors.New("bid must be higher than current price")
	ErrNotCreator         = errors.New("only the auction creator may close it")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
