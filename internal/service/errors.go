package service

import (
	"errors"

	"github.com/foodgram/backend/internal/store"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// Messages of client errors raised by the services.
const (
	MsgInvalidCredentials  = "Unable to log in with provided credentials."
	MsgWrongPassword       = "Current password is incorrect."
	MsgAlreadyFavorited    = "Recipe is already in favorites."
	MsgNotFavorited        = "Recipe is not in favorites."
	MsgAlreadyInCart       = "Recipe is already in the shopping cart."
	MsgNotInCart           = "Recipe is not in the shopping cart."
	MsgAlreadySubscribed   = "You are already subscribed to this user."
	MsgNotSubscribed       = "You are not subscribed to this user."
	MsgSelfSubscription    = "You cannot subscribe to yourself."
	MsgEmptyCart           = "Shopping cart is empty."
	MsgUsernameTaken       = "A user with that username already exists."
	MsgEmailTaken          = "A user with that email already exists."
	MsgInvalidImage        = "Upload a valid image as a base64 data URI."
)

// RequestError is a rejected request that is not tied to a single field.
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

func badRequest(msg string) error {
	return &RequestError{Message: msg}
}

// notFound maps store.ErrNotFound to ErrNotFound and passes other errors through.
func notFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
