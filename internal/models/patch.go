package models

// NotePatch carries the fields of a partial note update. A nil field
// means "unchanged"; marshaling a patch therefore yields exactly the
// changed fields, which is the payload shape the remote document store
// expects for partial updates.
//
// Merge semantics live in the note repository, not here.
type NotePatch struct {
	Category       *string   `json:"category,omitempty"`
	Title          *string   `json:"title,omitempty"`
	CategoryDetail *TypeIcon `json:"categoryDetail,omitempty"`
	Kind           *TypeIcon `json:"noteKind,omitempty"`
	Description    *string   `json:"description,omitempty"`
	Date           *string   `json:"date,omitempty"`
	Time           *string   `json:"time,omitempty"`
	Days           *[]string `json:"days,omitempty"`
	Amount         *string   `json:"amount,omitempty"`
	Occurrence     *string   `json:"occurrence,omitempty"`
}

// IsZero reports whether the patch changes nothing.
func (p NotePatch) IsZero() bool {
	return p.Category == nil && p.Title == nil && p.CategoryDetail == nil &&
		p.Kind == nil && p.Description == nil && p.Date == nil &&
		p.Time == nil && p.Days == nil && p.Amount == nil && p.Occurrence == nil
}

// StringPtr is a convenience for building patches.
func StringPtr(s string) *string { return &s }
