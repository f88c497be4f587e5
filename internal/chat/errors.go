package chat

import "errors"

// Error taxonomy for the conversation core. All of these are terminal for the
// current request; the calling layer decides how to surface them. Storage
// collaborator failures propagate unchanged and are not wrapped into this
// taxonomy.
var (
	// ErrEmptyInput is returned when the trimmed message text is empty. The
	// message is reported to the caller and never persisted.
	ErrEmptyInput = errors.New("chat: empty input")

	// ErrUnauthenticated is returned when no user or conversation identity
	// was supplied. Never silently treated as a guest.
	ErrUnauthenticated = errors.New("chat: not authenticated")

	// ErrProductNotFound is returned by AddToCart for an unresolvable
	// product ID.
	ErrProductNotFound = errors.New("chat: product not found")

	// ErrUnparsablePrice signals that no numeric token was found in a price
	// filter request. Surfaced to the user as a guidance reply, not a hard
	// failure.
	ErrUnparsablePrice = errors.New("chat: could not understand price")

	// ErrNoConversation is returned when an operation requires an existing
	// conversation and the token resolves to none. A caller-configuration
	// error; not retried.
	ErrNoConversation = errors.New("chat: no conversation found")
)
