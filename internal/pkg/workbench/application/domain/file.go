package workbench

import "time"

// File is attachment metadata for a conversation. Files are versioned by
// filename: re-uploading the same name creates the next version, and reads
// default to the latest.
type File struct {
	ConversationID string    `db:"conversation_id"`
	Filename       string    `db:"filename"`
	Version        int       `db:"version"`
	ContentType    string    `db:"content_type"`
	Size           int64     `db:"size"`
	CreatedBy      string    `db:"created_by"`
	CreatedAt      time.Time `db:"created_at"`
}
