package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/projectpulse/internal/apperr"
)

func TestStore_RoundTrip(t *testing.T) {
	s := NewStore(keyring.NewArrayKeyring(nil))
	key := DigestKey("pm", "imap.example.com")
	assert.Equal(t, "digest:pm@imap.example.com", key)

	_, err := s.Get(key)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, s.Set(key, "hunter2"))
	got, err := s.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", got)

	require.NoError(t, s.Delete(key))
	_, err = s.Get(key)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
