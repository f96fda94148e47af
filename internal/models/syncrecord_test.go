package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyncRecord_InsertIsIdempotent(t *testing.T) {
	r := NewSyncFailedOperationRecord()

	r.Insert(OpUploaded, "n1")
	r.Insert(OpUploaded, "n1")

	assert.Equal(t, []string{"n1"}, r.Uploaded)
}

func TestSyncRecord_DeleteSupersedesPendingUpload(t *testing.T) {
	r := NewSyncFailedOperationRecord()

	r.Insert(OpUploaded, "n1")
	r.Insert(OpDeleted, "n1")

	assert.True(t, r.Contains(OpDeleted, "n1"))
	assert.False(t, r.Contains(OpUploaded, "n1"))
	assert.False(t, r.Contains(OpUpdated, "n1"))
}

func TestSyncRecord_IDInAtMostOneSet(t *testing.T) {
	r := NewSyncFailedOperationRecord()

	ops := []Operation{OpUploaded, OpDeleted, OpUpdated, OpUploaded, OpDeleted}
	for _, op := range ops {
		r.Insert(op, "n1")

		count := 0
		for _, kind := range []Operation{OpUploaded, OpUpdated, OpDeleted} {
			if r.Contains(kind, "n1") {
				count++
			}
		}
		assert.Equal(t, 1, count, "after inserting into %s", op)
	}
}

func TestSyncRecord_SubtractAndEmpty(t *testing.T) {
	r := NewSyncFailedOperationRecord()
	r.Insert(OpUpdated, "n1")
	r.Insert(OpUpdated, "n2")

	r.Subtract(OpUpdated, []string{"n1", "n3"})

	assert.Equal(t, []string{"n2"}, r.Updated)
	assert.False(t, r.Empty())

	r.Subtract(OpUpdated, []string{"n2"})
	assert.True(t, r.Empty())
}
