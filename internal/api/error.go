package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/avlasov/securevault/internal/common"
)

// Error is a rejection returned by the vault API (any 4xx/5xx status).
// Message holds the server-provided text, taken verbatim from the response
// body; it may be empty when the server sent none.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: server returned status %d", e.Status)
	}
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
}

// Unwrap maps unauthorized rejections onto the shared sentinel so callers can
// use errors.Is(err, common.ErrUnauthorized).
func (e *Error) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return common.ErrUnauthorized
	}
	return nil
}

// ErrorMessage extracts the server-provided message from err, falling back to
// the given text when err is not an API rejection or carries no message.
func ErrorMessage(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
