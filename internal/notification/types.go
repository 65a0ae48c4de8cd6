// Package notification sends operator alerts, such as a stream that stopped
// producing segments, through shoutrrr service URLs (ntfy, gotify,
// telegram, smtp and others).
package notification

import "time"

// Type represents the category of a notification
type Type string

const (
	// TypeWarning is sent when a stream stalls
	TypeWarning Type = "warning"
	// TypeInfo is sent when a stalled stream recovers
	TypeInfo Type = "info"
)

// Notification is one message to deliver
type Notification struct {
	Type      Type
	Title     string
	Message   string
	Stream    string
	Timestamp time.Time
}
