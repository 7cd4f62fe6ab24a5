package models

// SearchQuery is the structured form of a free-text tutor search.
// Empty fields mean the category was not mentioned.
type SearchQuery struct {
	Text         string             `json:"text"`
	Subject      string             `json:"subject,omitempty"`
	Level        string             `json:"level,omitempty"`
	Mode         SessionMode        `json:"mode,omitempty"`
	Availability AvailabilityFilter `json:"availability"`
}

// AvailabilityFilter narrows a search to a day key and a time period key.
type AvailabilityFilter struct {
	Day  string `json:"day,omitempty"`
	Time string `json:"time,omitempty"`
}
