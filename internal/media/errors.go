package media

import "fmt"

// InvalidInputError rejects an upload before any record is created:
// unsupported type, empty payload, bad base64 or an undecodable image.
type InvalidInputError struct {
	Reason string
	Err    error
}

func (e *InvalidInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid image: %s: %v", e.Reason, e.Err)
	}
	return "invalid image: " + e.Reason
}

func (e *InvalidInputError) Unwrap() error { return e.Err }

// PayloadTooLargeError is returned when an upload exceeds the configured ceiling.
type PayloadTooLargeError struct {
	Size  int64
	Limit int64
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("image is %d bytes, limit is %d", e.Size, e.Limit)
}
