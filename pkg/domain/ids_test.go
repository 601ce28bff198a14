package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "examreg/pkg/domain-errors"
)

func TestParseStudentID(t *testing.T) {
	t.Run("normalizes case and whitespace", func(t *testing.T) {
		id, err := ParseStudentID("  b20dccn123 ")
		require.NoError(t, err)
		assert.Equal(t, StudentID("B20DCCN123"), id)
	})

	t.Run("rejects empty", func(t *testing.T) {
		_, err := ParseStudentID("   ")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects non-alphanumeric", func(t *testing.T) {
		_, err := ParseStudentID("20-123-456")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestSessionIDJSONRoundTrip(t *testing.T) {
	id := NewSessionID()

	encoded, err := json.Marshal(id)
	require.NoError(t, err)
	assert.JSONEq(t, `"`+id.String()+`"`, string(encoded))

	var decoded SessionID
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, id, decoded)
}

func TestParseSessionIDRejectsNil(t *testing.T) {
	_, err := ParseSessionID("00000000-0000-0000-0000-000000000000")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = ParseSessionID("not-a-uuid")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
