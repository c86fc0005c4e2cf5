package pass

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/fasttrack-cli/internal/domain"
)

const tokenKey = "fasttrack/api_token"

func failing(c command, stderr string) error {
	return &CommandError{Verb: c.verb, Entry: c.entry, Stderr: stderr, Err: errors.New("exit status 1")}
}

func TestStorePutUsesPassInsert(t *testing.T) {
	t.Parallel()

	called := false
	store := &Store{
		exec: func(ctx context.Context, c command) (string, error) {
			called = true
			assert.Equal(t, []string{"insert", "-m", "-f", tokenKey}, c.argv())
			assert.Equal(t, "top-secret\n", c.stdin)
			return "", nil
		},
	}

	require.NoError(t, store.Put(context.Background(), tokenKey, "top-secret"))
	assert.True(t, called)
}

func TestStoreGetReturnsFirstLine(t *testing.T) {
	t.Parallel()

	store := &Store{
		exec: func(ctx context.Context, c command) (string, error) {
			assert.Equal(t, []string{"show", tokenKey}, c.argv())
			assert.Empty(t, c.stdin)
			return "top-secret\r\nuser: me@example.com\n", nil
		},
	}

	value, err := store.Get(context.Background(), tokenKey)
	require.NoError(t, err)
	assert.Equal(t, "top-secret", value)
}

func TestStoreGetMapsMissingEntry(t *testing.T) {
	t.Parallel()

	store := &Store{
		exec: func(ctx context.Context, c command) (string, error) {
			return "", failing(c, "Error: fasttrack/api_token is not in the password store.")
		},
	}

	_, err := store.Get(context.Background(), tokenKey)
	require.ErrorIs(t, err, domain.ErrSecretNotFound)

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, "show", cmdErr.Verb)
}

func TestStoreGetReturnsClearError(t *testing.T) {
	t.Parallel()

	store := &Store{
		exec: func(ctx context.Context, c command) (string, error) {
			return "", failing(c, "gpg: decryption failed: No secret key")
		},
	}

	_, err := store.Get(context.Background(), tokenKey)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSecretNotFound)
	assert.EqualError(t, err, `pass show "fasttrack/api_token": exit status 1: gpg: decryption failed: No secret key`)
}

func TestStoreGetPassesUnavailableThrough(t *testing.T) {
	t.Parallel()

	store := &Store{
		exec: func(context.Context, command) (string, error) { return "", ErrUnavailable },
	}

	_, err := store.Get(context.Background(), tokenKey)
	require.ErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, domain.ErrSecretNotFound)
}

func TestStoreDeleteIgnoresMissingEntry(t *testing.T) {
	t.Parallel()

	store := &Store{
		exec: func(ctx context.Context, c command) (string, error) {
			assert.Equal(t, []string{"rm", "-f", tokenKey}, c.argv())
			return "", failing(c, "Error: fasttrack/api_token is not in the password store.")
		},
	}

	require.NoError(t, store.Delete(context.Background(), tokenKey))
}

func TestStoreDeleteReportsOtherFailures(t *testing.T) {
	t.Parallel()

	store := &Store{
		exec: func(ctx context.Context, c command) (string, error) {
			return "", failing(c, "")
		},
	}

	err := store.Delete(context.Background(), tokenKey)
	assert.EqualError(t, err, `pass rm "fasttrack/api_token": exit status 1`)
}

func TestStoreHonoursCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := &Store{exec: func(context.Context, command) (string, error) {
		t.Fatal("pass must not run")
		return "", nil
	}}

	_, err := store.Get(ctx, tokenKey)
	require.ErrorIs(t, err, context.Canceled)
}
