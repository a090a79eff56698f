package submission

import "fmt"

// InvalidSubmissionError reports a missing or malformed field in a beat
// submission. Recoverable by the caller; nothing has been persisted.
type InvalidSubmissionError struct {
	Field  string
	Reason string
}

func (e *InvalidSubmissionError) Error() string {
	return fmt.Sprintf("invalid submission: %s: %s", e.Field, e.Reason)
}

// PayloadTooLargeError reports a blob exceeding its size ceiling.
type PayloadTooLargeError struct {
	Field string
	Size  int64
	Limit int64
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("payload too large: %s is %d bytes, limit is %d bytes", e.Field, e.Size, e.Limit)
}
