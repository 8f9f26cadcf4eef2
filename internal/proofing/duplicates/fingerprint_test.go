package duplicates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "idproof/pkg/domain-errors"
)

func TestNormalizeSSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"123-45-6789", "123456789"},
		{"123456789", "123456789"},
		{"123-456789", "123456789"},
		{"12345-6789", "123456789"},
		{" 123 45 6789 ", "123456789"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeSSN(tt.in), "input %q", tt.in)
	}
}

func TestNewKeyRing(t *testing.T) {
	t.Run("rejects empty ring", func(t *testing.T) {
		_, err := NewKeyRing(nil)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConfiguration))
	})

	t.Run("rejects empty key", func(t *testing.T) {
		_, err := NewKeyRing([]string{"current", ""})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConfiguration))
	})
}

func TestFingerprintsIgnoreDashPlacement(t *testing.T) {
	ring, err := NewKeyRing([]string{"current-key"})
	require.NoError(t, err)

	canonical := ring.Current("123-45-6789")
	for _, variant := range []string{"123456789", "123-456789", "12345-6789"} {
		assert.Equal(t, canonical, ring.Current(variant), "variant %q", variant)
	}
	assert.NotEqual(t, canonical, ring.Current("987-65-4321"))
}

func TestAllCoversRotatedKeys(t *testing.T) {
	oldRing, err := NewKeyRing([]string{"old-key"})
	require.NoError(t, err)
	rotated, err := NewKeyRing([]string{"new-key", "old-key"})
	require.NoError(t, err)

	fps := rotated.All("123-45-6789")
	require.Len(t, fps, 2)
	assert.Equal(t, rotated.Current("123-45-6789"), fps[0], "current key comes first")
	assert.Contains(t, fps, oldRing.Current("123-45-6789"), "old fingerprints still match after rotation")
}
