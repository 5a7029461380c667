package models

// DigestEntry is the display projection of an ad sent to notifiers.
// Field values keep whatever type the source reported them with; fields the
// source did not report are rendered as null.
type DigestEntry struct {
	Model       any `json:"model"`
	Color       any `json:"color"`
	City        any `json:"city"`
	Description any `json:"description"`
	Year        any `json:"year"`
	Km          any `json:"km"`
	Price       any `json:"price"`
}

// Notification is the channel agnostic message handed to every sink.
type Notification struct {
	Source     string
	Model      string
	Text       string
	Recipients []string
}
