package entity

import "time"

// Comment lives inside its parent post; its identity is (PostID, ID).
type Comment struct {
	ID        string
	PostID    string
	Author    string
	Body      string
	CreatedAt time.Time
}
