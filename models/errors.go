package models

// ErrorKind classifies a failure coarsely enough for the presentation layer
// to explain a gap without seeing the underlying error.
type ErrorKind string

const (
	ErrKindNotFound      ErrorKind = "NotFound"
	ErrKindTimeout       ErrorKind = "Timeout"
	ErrKindForbidden     ErrorKind = "Forbidden"
	ErrKindQuotaExceeded ErrorKind = "QuotaExceeded"
	ErrKindCorrupt       ErrorKind = "Corrupt"
	ErrKindUnknown       ErrorKind = "Unknown"
)
