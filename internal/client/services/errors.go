package services

import "errors"

// Local validation errors. These fire before any network call so obviously
// bad input never reaches the backend.
var (
	ErrIdentifierRequired = errors.New("identifier is required")
	ErrNameRequired       = errors.New("device name is required")
	ErrLocationRequired   = errors.New("incident location is required")
	ErrDateRequired       = errors.New("incident date is required")
	ErrDateInFuture       = errors.New("incident date cannot be in the future")
	ErrRecipientRequired  = errors.New("recipient email or phone is required")
	ErrReferenceMissing   = errors.New("payment reference missing from return url")
)
