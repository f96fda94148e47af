package models

// Operation identifies which remote mirror operation failed for a note.
type Operation string

const (
	OpUploaded Operation = "uploaded"
	OpUpdated  Operation = "updated"
	OpDeleted  Operation = "deleted"
)

// SyncFailedOperationRecord is the durable record of note ids whose
// remote mirror operation failed, partitioned by operation kind.
//
// Invariant: an id appears in at most one set after any write. Insert
// enforces it by stripping the id from the other sets; in particular a
// pending delete supersedes a pending create or update.
type SyncFailedOperationRecord struct {
	Uploaded []string `json:"uploaded"`
	Updated  []string `json:"updated"`
	Deleted  []string `json:"deleted"`
}

// NewSyncFailedOperationRecord returns an empty record.
func NewSyncFailedOperationRecord() *SyncFailedOperationRecord {
	return &SyncFailedOperationRecord{
		Uploaded: []string{},
		Updated:  []string{},
		Deleted:  []string{},
	}
}

// Insert records noteID under kind. The id is removed from the other two
// sets first; inserting an id already present under kind is a no-op.
func (r *SyncFailedOperationRecord) Insert(kind Operation, noteID string) {
	for _, other := range []Operation{OpUploaded, OpUpdated, OpDeleted} {
		if other != kind {
			*r.setFor(other) = removeID(*r.setFor(other), noteID)
		}
	}
	set := r.setFor(kind)
	if !containsID(*set, noteID) {
		*set = append(*set, noteID)
	}
}

// Subtract removes every id in resolved from the set for kind.
func (r *SyncFailedOperationRecord) Subtract(kind Operation, resolved []string) {
	set := r.setFor(kind)
	for _, id := range resolved {
		*set = removeID(*set, id)
	}
}

// Contains reports whether noteID is recorded under kind.
func (r *SyncFailedOperationRecord) Contains(kind Operation, noteID string) bool {
	return containsID(*r.setFor(kind), noteID)
}

// Empty reports whether no failed operation remains.
func (r *SyncFailedOperationRecord) Empty() bool {
	return len(r.Uploaded) == 0 && len(r.Updated) == 0 && len(r.Deleted) == 0
}

func (r *SyncFailedOperationRecord) setFor(kind Operation) *[]string {
	switch kind {
	case OpUploaded:
		return &r.Uploaded
	case OpUpdated:
		return &r.Updated
	default:
		return &r.Deleted
	}
}

func containsID(set []string, id string) bool {
	for _, v := range set {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(set []string, id string) []string {
	out := set[:0]
	for _, v := range set {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
