package alias

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShortFormat(t *testing.T) {
	valid := []string{"nXL4fq", "hT8cFn", "bEC9v8", "aBvyRK"}
	for _, a := range valid {
		require.Truef(t, IsShort(a), "expected %s to match", a)
	}

	invalid := []string{"AAAAA", "AAAAAAA", "iAAAAAA", "0AAAAAA"}
	for _, a := range invalid {
		require.Falsef(t, IsShort(a), "expected %s not to match", a)
	}
}

func TestLongFormat(t *testing.T) {
	valid := []string{"boat-surface-soon", "way-finish-then", "one-dark-these"}
	for _, a := range valid {
		require.Truef(t, IsLong(a), "expected %s to match", a)
	}

	invalid := []string{"hello", "hello-world", "hi-world-home"}
	for _, a := range invalid {
		require.Falsef(t, IsLong(a), "expected %s not to match", a)
	}
}

func TestRandomShortMatchesRegex(t *testing.T) {
	for i := 0; i < 1000; i++ {
		a, err := RandomShort()
		require.NoError(t, err)
		require.True(t, IsShort(a))
	}
}

func TestRandomLongMatchesRegexAndIsDistinct(t *testing.T) {
	for i := 0; i < 1000; i++ {
		a, err := RandomLong()
		require.NoError(t, err)
		require.True(t, IsLong(a))

		parts := strings.Split(a, "-")
		require.Len(t, parts, 3)
		require.NotEqual(t, parts[0], parts[1])
		require.NotEqual(t, parts[0], parts[2])
		require.NotEqual(t, parts[1], parts[2])
	}
}

func TestMintRetriesOnCollision(t *testing.T) {
	calls := 0
	exists := func(a string, kind Kind) (bool, error) {
		calls++
		return calls <= 2, nil
	}
	short, long, err := Mint(exists)
	require.NoError(t, err)
	require.True(t, IsShort(short))
	require.True(t, IsLong(long))
}

func TestMintExhaustsAttempts(t *testing.T) {
	exists := func(a string, kind Kind) (bool, error) {
		return true, nil
	}
	_, _, err := Mint(exists)
	require.True(t, errors.Is(err, ErrGenerationFailed))
}
