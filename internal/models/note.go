// Package models defines the entities persisted and synchronized by the
// note store core.
package models

import "github.com/google/uuid"

// Note categories. Category drives which optional fields are meaningful;
// Amount and Occurrence only apply to CategoryBill.
const (
	CategoryTask     = "task"
	CategoryBill     = "bill"
	CategoryBirthday = "birthday"
	CategoryMisc     = "misc"
)

// TypeIcon is a classification tag paired with the icon the UI renders
// for it.
type TypeIcon struct {
	Type string `json:"type"`
	Icon string `json:"icon"`
}

// Note is the core entity. ID is assigned at creation and never changes;
// it is unique across the in-memory collection.
//
// Date and Time are ISO-8601 instants; a present Time makes the note
// alarm-eligible (the platform scheduler consumes these fields, this
// core never mutates them on its own).
type Note struct {
	ID             string    `json:"id"`
	Category       string    `json:"category"`
	Title          string    `json:"title"`
	CategoryDetail *TypeIcon `json:"categoryDetail,omitempty"`
	Kind           TypeIcon  `json:"noteKind"`
	Description    string    `json:"description,omitempty"`
	Date           string    `json:"date,omitempty"`
	Time           string    `json:"time,omitempty"`
	Days           []string  `json:"days,omitempty"`
	Amount         string    `json:"amount,omitempty"`
	Occurrence     string    `json:"occurrence,omitempty"`
}

// NewNote returns a Note with a freshly assigned id.
func NewNote(category, title string) Note {
	return Note{
		ID:       uuid.NewString(),
		Category: category,
		Title:    title,
	}
}
