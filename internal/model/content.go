package model

// FAQ is a question/answer pair shown on the student dashboard.
type FAQ struct {
	ID       uint64 `json:"id"`       // faqs.id
	Question string `json:"question"` // faqs.question
	Answer   string `json:"answer"`   // faqs.answer
}

// Announcement is a broadcast message from the admin team.
type Announcement struct {
	ID      uint64 `json:"id"`      // announcements.id
	Message string `json:"message"` // announcements.message
}

// Location is a named campus location with a map link, shown on the
// student dashboard's map tab.
type Location struct {
	ID      uint64 `json:"id"`       // locations.id
	Name    string `json:"name"`     // locations.name
	MapLink string `json:"map_link"` // locations.map_link
}
