package accounts

import "net/http"

// Error codes returned to clients. Two codes may share one message.
const (
	CodeEmailInUse        = "auth/email-already-in-use"
	CodeInvalidEmail      = "auth/invalid-email"
	CodeWeakPassword      = "auth/weak-password"
	CodeUserNotFound      = "auth/user-not-found"
	CodeWrongPassword     = "auth/wrong-password"
	CodeInvalidAdminCode  = "auth/invalid-admin-code"
	CodePasswordsMismatch = "auth/passwords-mismatch"
	CodeMissingFields     = "auth/missing-fields"
	CodeInvalidRefresh    = "auth/invalid-refresh-token"
	CodeInvalidName       = "auth/invalid-name"
)

const fallbackMessage = "An error occurred. Please try again."

var messages = map[string]string{
	CodeEmailInUse:        "Email address is already in use",
	CodeInvalidEmail:      "Invalid email address",
	CodeWeakPassword:      "Password must be at least 6 characters",
	CodeUserNotFound:      "Invalid email or password",
	CodeWrongPassword:     "Invalid email or password",
	CodeInvalidAdminCode:  "Invalid admin code",
	CodePasswordsMismatch: "Passwords do not match",
	CodeMissingFields:     "Please fill all fields",
	CodeInvalidRefresh:    "Your session has expired. Please sign in again.",
	CodeInvalidName:       "Name contains invalid characters",
}

// Message returns the user facing text for code.
func Message(code string) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return fallbackMessage
}

type Error struct {
	Code string
}

func (e *Error) Error() string { return e.Code }

func (e *Error) Message() string { return Message(e.Code) }

func (e *Error) Status() int {
	switch e.Code {
	case CodeEmailInUse:
		return http.StatusConflict
	case CodeUserNotFound, CodeWrongPassword, CodeInvalidRefresh:
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}

func fail(code string) error {
	return &Error{Code: code}
}
