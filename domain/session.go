// Package domain contains core concepts of the relay system.
// No runtime, network, or UI logic should be added here.
package domain

type RoomID string

// Member is the public summary of a participant inside a room, in the shape
// clients receive in membership lists and join notices.
type Member struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Language string `json:"language"`
}

// Session ties a live connection to its room, display name and declared
// language tag. Created on join, never mutated, destroyed on leave or
// disconnect. Name or language changes require leave and rejoin.
type Session struct {
	ConnID   string
	Room     RoomID
	Username string
	Language string
}

func (s Session) Member() Member {
	return Member{ID: s.ConnID, Username: s.Username, Language: s.Language}
}
