package catalog

import (
	"context"
	"errors"
	"net"

	"tubeshelf/models"
)

var (
	// ErrNotFound means the identifier or handle has no corresponding item.
	ErrNotFound = errors.New("catalog: not found")
	// ErrForbidden means the API rejected the call outright.
	ErrForbidden = errors.New("catalog: forbidden")
	// ErrQuotaExceeded means the API key ran out of quota.
	ErrQuotaExceeded = errors.New("catalog: quota exceeded")
	// ErrTimeout means the request exceeded its deadline.
	ErrTimeout = errors.New("catalog: timeout")
)

// Classify maps an error from a catalog call onto the coarse taxonomy the
// rest of the system reports.
func Classify(err error) models.ErrorKind {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return models.ErrKindNotFound
	case errors.Is(err, ErrQuotaExceeded):
		return models.ErrKindQuotaExceeded
	case errors.Is(err, ErrForbidden):
		return models.ErrKindForbidden
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return models.ErrKindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.ErrKindTimeout
	}
	return models.ErrKindUnknown
}
