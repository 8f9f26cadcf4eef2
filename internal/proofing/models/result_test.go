package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "idproof/pkg/domain-errors"
)

func TestNewVendorResult(t *testing.T) {
	t.Run("rejects success with field errors", func(t *testing.T) {
		_, err := NewVendorResult(true, map[string][]string{"ssn": {"Unverified SSN."}}, nil, "sid", nil, false)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("normalizes nil collections", func(t *testing.T) {
		result, err := NewVendorResult(true, nil, nil, "sid", nil, false)
		require.NoError(t, err)
		assert.NotNil(t, result.Errors)
		assert.NotNil(t, result.Reasons)
		assert.Empty(t, result.Errors)
	})

	t.Run("allows failure with field errors", func(t *testing.T) {
		result, err := NewVendorResult(false, map[string][]string{"ssn": {"Unverified SSN."}}, []string{"Fail SSN"}, "sid", nil, false)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, []string{"Unverified SSN."}, result.Errors["ssn"])
	})
}

func TestVendorResultJSONRoundTrip(t *testing.T) {
	normalized := &Applicant{
		FirstName: "Pat",
		LastName:  "Doe",
		SSN:       "123-45-6789",
		State:     "VA",
	}
	original, err := NewVendorResult(true, nil, []string{"Everything looks good"}, "conv-123", normalized, false)
	require.NoError(t, err)

	payload, err := json.Marshal(original)
	require.NoError(t, err)

	decoded, err := DecodeVendorResult(payload)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
	require.NotNil(t, decoded.NormalizedApplicant)
	assert.Equal(t, "Pat", decoded.NormalizedApplicant.FirstName)
}

func TestVendorResultJSONOmitsNothing(t *testing.T) {
	// Zero values still encode errors/reasons as empty collections and the
	// applicant as an explicit null, so polling clients get a stable shape.
	payload, err := json.Marshal(VendorResult{})
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(payload, &raw))
	assert.JSONEq(t, `{}`, string(raw["errors"]))
	assert.JSONEq(t, `[]`, string(raw["reasons"]))
	assert.Equal(t, "null", string(raw["normalized_applicant"]))
}

func TestDecodeVendorResultRejectsContradiction(t *testing.T) {
	payload := `{"success":true,"errors":{"ssn":["Unverified SSN."]},"reasons":[],"session_id":"x","normalized_applicant":null,"timed_out":false}`
	_, err := DecodeVendorResult([]byte(payload))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestTimedOutAndFailedShapes(t *testing.T) {
	timedOut := TimedOutResult("sid-1")
	assert.False(t, timedOut.Success)
	assert.True(t, timedOut.TimedOut)
	assert.Empty(t, timedOut.Errors)

	failed := FailedResult("sid-2")
	assert.False(t, failed.Success)
	assert.False(t, failed.TimedOut)
	assert.Equal(t, "sid-2", failed.SessionID)
}

func TestProofingComponentsMerge(t *testing.T) {
	base := ProofingComponents{ResolutionCheck: "lexisnexis", ThreatMetrix: "lexisnexis"}
	merged := base.Merge(ProofingComponents{SourceCheck: "aamva", AddressCheck: "lexisnexis"})

	assert.Equal(t, "lexisnexis", merged.ResolutionCheck)
	assert.Equal(t, "aamva", merged.SourceCheck)
	assert.Equal(t, "lexisnexis", merged.AddressCheck)
	assert.Equal(t, "lexisnexis", merged.ThreatMetrix)
	// Merge returns a copy.
	assert.Empty(t, base.SourceCheck)
}
