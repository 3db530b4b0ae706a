package matching

import "errors"

var (
	// ErrInsufficientParticipants is returned for fewer than two participants.
	ErrInsufficientParticipants = errors.New("at least 2 participants are required for matching")

	// ErrInvalidInput is returned when participant IDs are empty or repeated.
	ErrInvalidInput = errors.New("invalid participant list")

	// ErrInternalFailure is returned when no derangement was found within the attempt cap.
	ErrInternalFailure = errors.New("matching did not converge")
)
