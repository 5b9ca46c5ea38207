package common

import (
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeRandHexString_LengthAndHex(t *testing.T) {
	const n = 16
	s, err := MakeRandHexString(n)
	require.NoError(t, err)
	assert.Len(t, s, n*2)
	_, err = hex.DecodeString(s)
	assert.NoError(t, err)
}

func TestMakeRandHexString_ZeroSize(t *testing.T) {
	s, err := MakeRandHexString(0)
	require.NoError(t, err)
	assert.Empty(t, s)
}

func TestWipeByteArray(t *testing.T) {
	buf := []byte("secret123")
	WipeByteArray(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("expected buf[%d]==0, got %d", i, v)
		}
	}
	WipeByteArray(nil)
}

func TestIsUnauthenticated(t *testing.T) {
	for _, err := range []error{ErrMissingCredential, ErrMalformedToken, ErrInvalidSignature, ErrTokenExpired, ErrorUnauthorized} {
		assert.True(t, IsUnauthenticated(fmt.Errorf("wrapped: %w", err)), err.Error())
	}
	assert.False(t, IsUnauthenticated(ErrForbidden))
	assert.False(t, IsUnauthenticated(ErrStoreUnavailable))
}

func TestFailureKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrMissingCredential, "missing_credential"},
		{fmt.Errorf("parse: %w", ErrMalformedToken), "malformed"},
		{ErrInvalidSignature, "invalid_signature"},
		{ErrTokenExpired, "expired"},
		{ErrForbidden, "forbidden"},
		{ErrorUnauthorized, "bad_credentials"},
		{ErrStoreUnavailable, "store_unavailable"},
		{ErrHashing, "hashing"},
		{ErrorNotFound, "other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FailureKind(tt.err))
	}
}
