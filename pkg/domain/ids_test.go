package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "idproof/pkg/domain-errors"
)

const validUUID = "550e8400-e29b-41d4-a716-446655440000"

func TestParseUserID(t *testing.T) {
	t.Run("accepts a canonical uuid", func(t *testing.T) {
		id, err := ParseUserID(validUUID)
		require.NoError(t, err)
		assert.Equal(t, validUUID, id.String())
		assert.False(t, id.IsNil())
	})

	t.Run("rejects empty input", func(t *testing.T) {
		_, err := ParseUserID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := ParseUserID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects the nil uuid", func(t *testing.T) {
		_, err := ParseUserID("00000000-0000-0000-0000-000000000000")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestParseProfileID(t *testing.T) {
	id, err := ParseProfileID(validUUID)
	require.NoError(t, err)
	assert.Equal(t, validUUID, id.String())

	_, err = ParseProfileID("nope")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestParseResultID(t *testing.T) {
	id, err := ParseResultID(validUUID)
	require.NoError(t, err)
	assert.Equal(t, validUUID, id.String())

	_, err = ParseResultID("nope")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestNewResultID(t *testing.T) {
	a := NewResultID()
	b := NewResultID()
	assert.False(t, a.IsNil())
	assert.NotEqual(t, a, b)

	parsed, err := ParseResultID(a.String())
	require.NoError(t, err)
	assert.Equal(t, a, parsed)
}

func TestIDsRoundTripThroughJSON(t *testing.T) {
	type payload struct {
		User   UserID   `json:"user"`
		Result ResultID `json:"result"`
	}

	user, err := ParseUserID(validUUID)
	require.NoError(t, err)
	in := payload{User: user, Result: NewResultID()}

	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(raw), validUUID, "ids encode as canonical uuid strings")

	var out payload
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)
}

func TestUnmarshalTextRejectsGarbage(t *testing.T) {
	var id UserID
	assert.Error(t, id.UnmarshalText([]byte("not-a-uuid")))
}

func TestIsNil(t *testing.T) {
	assert.True(t, UserID{}.IsNil())
	assert.True(t, ProfileID{}.IsNil())
	assert.True(t, ResultID{}.IsNil())
}
