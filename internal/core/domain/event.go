package domain

import "strings"

// CalendarEvent is the structured event produced by the remote extraction
// service and consumed by the calendar save call. Dates are carried as the
// extraction service returned them (RFC 3339 strings); the core does not
// reinterpret them.
type CalendarEvent struct {
	Title       string `json:"title"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate,omitempty"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
}

// ExtractionResult correlates an extracted event with the identifier used
// by the subsequent save call. Created by the extraction phase, consumed by
// the save phase, discarded on success or explicit cancellation.
type ExtractionResult struct {
	Event          CalendarEvent `json:"event"`
	ExtractionID   string        `json:"extractionId"`
	RemainingQuota int           `json:"remainingQuota"`
}

// ExtractionInput is the local input to an extraction. Exactly one of
// ImageBase64 and Text must be meaningfully present.
type ExtractionInput struct {
	// ImageBase64 is a base64-encoded image, or empty.
	ImageBase64 string
	// Text is free-form event text, or empty.
	Text string
}

// Validate enforces the one-of precondition before any network call.
func (in ExtractionInput) Validate() error {
	hasImage := in.ImageBase64 != ""
	hasText := strings.TrimSpace(in.Text) != ""

	switch {
	case !hasImage && !hasText:
		return ErrInvalidInput
	case hasImage && hasText:
		return ErrInvalidInput
	default:
		return nil
	}
}
