package client

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortParticipantsByName orders participants by display name using the
// collation rules of the given locale, so lists render in the order the
// user's language expects. Ties break on participant ID for stability.
func SortParticipantsByName(participants []Participant, tag language.Tag) {
	cl := collate.New(tag, collate.IgnoreCase)
	sort.SliceStable(participants, func(i, j int) bool {
		if c := cl.CompareString(participants[i].Name, participants[j].Name); c != 0 {
			return c < 0
		}
		return participants[i].ID < participants[j].ID
	})
}

// SortAssistantsByName orders directory entries the same way.
func SortAssistantsByName(assistants []Assistant, tag language.Tag) {
	cl := collate.New(tag, collate.IgnoreCase)
	sort.SliceStable(assistants, func(i, j int) bool {
		if c := cl.CompareString(assistants[i].Name, assistants[j].Name); c != 0 {
			return c < 0
		}
		return assistants[i].ID < assistants[j].ID
	})
}
