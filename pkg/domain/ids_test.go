package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "cpdtrack/pkg/domain-errors"
)

// TestParseID_Invariants validates the boundary invariant: ids must be valid,
// non-empty, non-nil UUIDs.
func TestParseID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParsePractitionerID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParsePractitionerID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseUnitID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		raw := uuid.New()
		id, err := ParseCatalogID(raw.String())
		require.NoError(t, err)
		assert.Equal(t, CatalogID(raw), id)
	})
}

func TestIsNil(t *testing.T) {
	assert.True(t, PractitionerID{}.IsNil())
	assert.False(t, NewPractitionerID().IsNil())
	assert.True(t, SubmissionID{}.IsNil())
	assert.False(t, NewSubmissionID().IsNil())
}

// TestTypeDistinction documents that the compiler keeps entity ids apart.
// If this file compiles, the invariant holds.
func TestTypeDistinction(t *testing.T) {
	practitionerID := NewPractitionerID()
	unitID := NewUnitID()

	// var _ PractitionerID = unitID // would not compile
	assert.NotEqual(t, uuid.UUID(practitionerID), uuid.UUID(unitID))
}
