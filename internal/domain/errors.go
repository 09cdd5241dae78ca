package domain

import "errors"

var (
	// ErrSessionNotFound is returned when no live session matches the id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionEnded is returned for events addressed to a finished session.
	ErrSessionEnded = errors.New("session already ended")
	// ErrParticipantNotFound is returned when a player acts before joining.
	ErrParticipantNotFound = errors.New("participant not found in session")
	// ErrNameTaken is returned when a display name is already in the roster.
	ErrNameTaken = errors.New("display name already taken")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrValidation marks a submission whose payload does not fit the
	// question's declared type; wrap it with detail via fmt.Errorf and %w.
	ErrValidation = errors.New("invalid submission")
	// ErrStaleSubmission is returned for answers to a question that is no
	// longer the active one.
	ErrStaleSubmission = errors.New("submission targets a closed question")
	// ErrDuplicateSubmission is returned when a participant answers the same
	// question twice; the first accepted answer stands.
	ErrDuplicateSubmission = errors.New("question already answered")
	// ErrInvalidTransition is returned for host actions not legal from the
	// current phase.
	ErrInvalidTransition = errors.New("phase transition not allowed")
)
