package model

import "time"

// HistoryEntry records one transition of the target buffer.
// PreviousText is the buffer immediately before the action that produced Text.
type HistoryEntry struct {
	ID                string    `json:"id"`
	Timestamp         time.Time `json:"timestamp"`
	Text              string    `json:"text"`
	PreviousText      string    `json:"previous_text"`
	ActionDescription string    `json:"action_description"`
}

// ShortID returns the first 8 characters for display.
func (e HistoryEntry) ShortID() string {
	if len(e.ID) >= 8 {
		return e.ID[:8]
	}
	return e.ID
}

// Clock formats the entry time the way undo descriptions reference it.
func (e HistoryEntry) Clock() string {
	return e.Timestamp.Local().Format("15:04:05")
}
