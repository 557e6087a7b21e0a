package models

import "time"

// User represents an account able to sign in and keep watch history.
type User struct {
	ID       int64
	Username string
	Hash     []byte
	Salt     []byte
}

// Session binds an opaque token to a user until its absolute expiry.
type Session struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
}

// Video is one media file discovered in the media directory.
type Video struct {
	ID          int64
	Title       string
	Filename    string
	Description string
	// Duration is whole seconds; 0 means unknown.
	Duration int
}

// WatchEntry records the last playback position for a (user, video) pair.
type WatchEntry struct {
	VideoID   int64
	Position  float64
	UpdatedAt string
	Title     string
}
