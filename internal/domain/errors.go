package domain

import "errors"

var (
	// ErrSessionNotFound is returned when no game session has been started.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrSessionNotRunning is returned when a submission arrives outside Running.
	ErrSessionNotRunning = errors.New("game session is not running")
	// ErrSessionAlreadyRunning is returned when starting a session that is live.
	ErrSessionAlreadyRunning = errors.New("game session is already running")
	// ErrGameNotFound indicates an unknown game type.
	ErrGameNotFound = errors.New("game not found")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a submitted option ID is invalid.
	ErrOptionNotFound = errors.New("option not found")
	// ErrProfileNotFound indicates no stored profile document for a user.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrAssignmentNotFound indicates an unknown assignment ID.
	ErrAssignmentNotFound = errors.New("assignment not found")
	// ErrDoubtNotFound indicates an unknown doubt ID.
	ErrDoubtNotFound = errors.New("doubt not found")
	// ErrAccountExists is returned when registering an already-taken name.
	ErrAccountExists = errors.New("account already exists")
	// ErrAccountNotFound indicates no stored account for a name.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotTeacher guards teacher-only operations.
	ErrNotTeacher = errors.New("operation requires a teacher account")
)
