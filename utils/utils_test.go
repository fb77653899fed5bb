package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashToken(t *testing.T) {
	require.Equal(t, HashToken("abc"), HashToken("abc"))
	require.NotEqual(t, HashToken("abc"), HashToken("abd"))
	require.NotContains(t, HashToken("secret-token"), "secret")
}

func TestRecoverWithError(t *testing.T) {
	run := func() (err error) {
		defer RecoverWithError(&err)
		panic("boom")
	}
	err := run()
	require.ErrorIs(t, err, ErrPanic)
	require.EqualError(t, err, "recovered panic: boom")

	closed := errors.New("pool closed")
	wrapped := func() (err error) {
		defer RecoverWithError(&err)
		panic(closed)
	}
	err = wrapped()
	require.ErrorIs(t, err, ErrPanic)
	require.ErrorIs(t, err, closed)

	ok := func() (err error) {
		defer RecoverWithError(&err)
		return errors.New("plain")
	}
	require.EqualError(t, ok(), "plain")
}
