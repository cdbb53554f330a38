package shared

type Error string

// Implement the error interface
func (e Error) Error() string { return string(e) }

//------------
// Definitions
//------------

// cli errors
const (
	ErrorCreateFile         = Error("could not create the file")
	ErrorEncodeFile         = Error("could not encode to file")
	ErrConfirmationRequired = Error("destructive command requires --yes")
)

// repository errors
const (
	ErrNotFound       = Error("not found")
	ErrTableNotFound  = Error("table not found")
	ErrColumnNotFound = Error("column not found")
	ErrInvalidName    = Error("invalid name")
	ErrAlreadyMarked  = Error("migration already marked as applied")
	ErrNothingToDo    = Error("nothing to do")
)

// backend errors
const (
	ErrConflict     = Error("resource already exists")
	ErrNotLoggedIn  = Error("no session token, log in first")
	ErrMissingToken = Error("login response has no token")
)

// smoke errors
const (
	ErrUnknownScenario = Error("unknown smoke scenario")
	ErrCheckFailed     = Error("check failed")
)
