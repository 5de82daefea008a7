package workbench

import "time"

// Permission expresses what a caller may do within a conversation.
// 0 = read-only; 1 = read/write
type Permission int16

const (
	PermissionRead      Permission = 0
	PermissionReadWrite Permission = 1
)

func (p Permission) String() string {
	if p == PermissionReadWrite {
		return "read_write"
	}
	return "read"
}

// Conversation is a thread of messages among users and assistants.
// Permission is not a column on the conversation itself; repositories fill it
// in with the effective permission of the caller they loaded it for.
type Conversation struct {
	ID         string     `db:"id"`
	Title      string     `db:"title"`
	OwnerID    string     `db:"owner_id"`
	CreatedAt  time.Time  `db:"created_at"`
	Permission Permission `db:"-"`
}
