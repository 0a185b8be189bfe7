/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import "errors"

// Error is a user-facing validation error. The action that produced it was
// rejected and the state left unchanged.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrEmptyName        Error = "please enter a name for every player"
	ErrDuplicateName    Error = "every player needs a different name"
	ErrNameCount        Error = "the number of names does not match the number of players"
	ErrPlayerCount      Error = "number of players must be between 2 and 8"
	ErrSecretNotInteger Error = "the secret number must be a whole number"
	ErrSecretOutOfRange Error = "the secret number must be between 0 and 100"
	ErrActionNotAllowed Error = "that action is not available right now"
	ErrUnknownAction    Error = "unknown action"
	ErrUnknownSetting   Error = "unknown setting"
)

// IsValidation reports whether err is a validation error rather than a
// storage or transport failure.
func IsValidation(err error) bool {
	var e Error
	return errors.As(err, &e)
}
