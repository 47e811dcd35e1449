package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartialFetchError(t *testing.T) {
	inner := errors.New("message m2: boom")
	pe := &PartialFetchError{Failed: 2, Errs: []error{inner, errors.New("message m5: gone")}}

	assert.Contains(t, pe.Error(), "2 record(s) failed")
	assert.ErrorIs(t, pe, inner)
}

func TestAsPartial(t *testing.T) {
	pe := &PartialFetchError{Failed: 1, Errs: []error{errors.New("x")}}
	wrapped := fmt.Errorf("fetch emails: %w", pe)

	got, ok := AsPartial(wrapped)
	require.True(t, ok)
	assert.Equal(t, 1, got.Failed)

	_, ok = AsPartial(errors.New("plain"))
	assert.False(t, ok)
}

func TestFetchOptions_Bound(t *testing.T) {
	assert.Equal(t, DefaultFetchLimit, FetchOptions{}.Bound())
	assert.Equal(t, 10, FetchOptions{Limit: 10}.Bound())
	assert.Equal(t, MaxFetchLimit, FetchOptions{Limit: 9999}.Bound())
	assert.Equal(t, DefaultFetchLimit, FetchOptions{Limit: -5}.Bound())
}
