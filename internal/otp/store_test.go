package otp

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kycgate/pkg/sentinel"
)

func TestGenerateAndConsume(t *testing.T) {
	store := NewStore(time.Minute)

	code, err := store.Generate("merchant-1")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), code)

	require.NoError(t, store.Consume("merchant-1", code))

	// Consumed codes are single-use.
	assert.ErrorIs(t, store.Consume("merchant-1", code), sentinel.ErrNotFound)
}

func TestConsumeUnknownKey(t *testing.T) {
	store := NewStore(time.Minute)
	assert.ErrorIs(t, store.Consume("nobody", "123456"), sentinel.ErrNotFound)
}

func TestWrongCodeDoesNotConsume(t *testing.T) {
	store := NewStore(time.Minute)
	code, err := store.Generate("merchant-1")
	require.NoError(t, err)

	assert.ErrorIs(t, store.Consume("merchant-1", "000000x"), sentinel.ErrInvalidState)

	// The stored code survives a wrong guess.
	require.NoError(t, store.Consume("merchant-1", code))
}

func TestRegenerateReplacesCode(t *testing.T) {
	store := NewStore(time.Minute)
	first, err := store.Generate("merchant-1")
	require.NoError(t, err)
	second, err := store.Generate("merchant-1")
	require.NoError(t, err)

	if first != second {
		assert.ErrorIs(t, store.Consume("merchant-1", first), sentinel.ErrInvalidState)
	}
	require.NoError(t, store.Consume("merchant-1", second))
}

func TestExpiry(t *testing.T) {
	store := NewStore(-time.Second)
	code, err := store.Generate("merchant-1")
	require.NoError(t, err)

	assert.ErrorIs(t, store.Consume("merchant-1", code), sentinel.ErrExpired)
	// Expired entries are removed on first touch.
	assert.ErrorIs(t, store.Consume("merchant-1", code), sentinel.ErrNotFound)
}

func TestSweep(t *testing.T) {
	store := NewStore(time.Minute)
	code, err := store.Generate("merchant-1")
	require.NoError(t, err)

	store.Sweep(time.Now().Add(2 * time.Minute))
	assert.ErrorIs(t, store.Consume("merchant-1", code), sentinel.ErrNotFound)
}
