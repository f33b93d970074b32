package video

import "errors"

// Sentinel kinds for video source errors.
var (
	ErrUnreadable = errors.New("video unreadable")
)
