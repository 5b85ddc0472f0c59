package pass

import (
	"context"
	"errors"
	"testing"

	"github.com/bnema/botctl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "botctl/default-app-id/session"

func TestStoreSaveUsesMultilineInsert(t *testing.T) {
	t.Parallel()

	called := false
	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			called = true
			assert.Equal(t, []string{"insert", "-m", "-f", testKey}, args)
			assert.Contains(t, input, "local:anon:u1")
			assert.Contains(t, input, "anonymous = true")
			return "", "", nil
		},
	}

	err := store.Save(context.Background(), testKey, domain.Credential{UserID: "u1", RefreshToken: "local:anon:u1", Anonymous: true})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestStoreLoadDecodesEntry(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			assert.Equal(t, []string{"show", testKey}, args)
			assert.Empty(t, input)
			return "version = 1\nuser_id = 'u1'\nrefresh_token = 'r1'\nanonymous = false\n", "", nil
		},
	}

	credential, err := store.Load(context.Background(), testKey)
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("u1"), credential.UserID)
	assert.Equal(t, "r1", credential.RefreshToken)
	assert.False(t, credential.Anonymous)
}

func TestStoreLoadMissingEntryIsNotFound(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			return "", "Error: botctl/default-app-id/session is not in the password store.", errors.New("exit status 1")
		},
	}

	_, err := store.Load(context.Background(), testKey)
	require.ErrorIs(t, err, domain.ErrCredentialNotFound)
}

func TestStoreDeleteUsesPassRemove(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			assert.Equal(t, []string{"rm", "-f", testKey}, args)
			return "", "", nil
		},
	}

	require.NoError(t, store.Delete(context.Background(), testKey))
}

func TestStoreLoadReturnsClearError(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			return "", "gpg: decryption failed", errors.New("exit status 2")
		},
	}

	_, err := store.Load(context.Background(), testKey)
	require.Error(t, err)
	assert.ErrorContains(t, err, "pass load")
	assert.ErrorContains(t, err, testKey)
	assert.ErrorContains(t, err, "decryption failed")
	assert.NotErrorIs(t, err, domain.ErrCredentialNotFound)
}
