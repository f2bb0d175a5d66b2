package expiration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func dur(s int) time.Duration { return time.Duration(s) * time.Second }

func TestNewRejectsEmpty(t *testing.T) {
	_, err := New(nil)
	require.ErrorIs(t, err, ErrInvalidThresholds)
}

func TestNewAcceptsSingleThreshold(t *testing.T) {
	_, err := New([]Threshold{
		{SizeMax: 64 * 1024 * 1024, Default: dur(24 * 60 * 60)},
	})
	require.NoError(t, err)
}

func TestNewAcceptsNonDecreasingSizeNonIncreasingDuration(t *testing.T) {
	_, err := New([]Threshold{
		{SizeMax: 64 * 1024 * 1024, Default: dur(24 * 60 * 60)},
		{SizeMax: 256 * 1024 * 1024, Default: dur(6 * 60 * 60)},
	})
	require.NoError(t, err)
}

func TestNewRejectsIncreasingDuration(t *testing.T) {
	_, err := New([]Threshold{
		{SizeMax: 64 * 1024 * 1024, Default: dur(24 * 60 * 60)},
		{SizeMax: 256 * 1024 * 1024, Default: dur(48 * 60 * 60)},
	})
	require.ErrorIs(t, err, ErrInvalidThresholds)
}

func TestNewRejectsDecreasingSize(t *testing.T) {
	_, err := New([]Threshold{
		{SizeMax: 256 * 1024 * 1024, Default: dur(6 * 60 * 60)},
		{SizeMax: 64 * 1024 * 1024, Default: dur(24 * 60 * 60)},
	})
	require.ErrorIs(t, err, ErrInvalidThresholds)
}

func TestNewRejectsMixedAllowedPresence(t *testing.T) {
	allowed := dur(48 * 60 * 60)
	_, err := New([]Threshold{
		{SizeMax: 64 * 1024 * 1024, Default: dur(24 * 60 * 60), Allowed: &allowed},
		{SizeMax: 256 * 1024 * 1024, Default: dur(6 * 60 * 60)},
	})
	require.ErrorIs(t, err, ErrInvalidThresholds)
}

func TestNewRejectsAllowedBelowDefault(t *testing.T) {
	allowed := dur(12 * 60 * 60)
	_, err := New([]Threshold{
		{SizeMax: 64 * 1024 * 1024, Default: dur(24 * 60 * 60), Allowed: &allowed},
	})
	require.ErrorIs(t, err, ErrInvalidThresholds)
}

func TestDetermineSingleThreshold(t *testing.T) {
	p, err := New([]Threshold{
		{SizeMax: 64 * 1024 * 1024, Default: dur(24 * 60 * 60)},
	})
	require.NoError(t, err)

	def, allowed, ok := p.Determine(100 * 1024)
	require.True(t, ok)
	require.Equal(t, dur(24*60*60), def)
	require.Nil(t, allowed)

	_, _, ok = p.Determine(64 * 1024 * 1024)
	require.True(t, ok)

	_, _, ok = p.Determine(100 * 1024 * 1024)
	require.False(t, ok)
}

func TestDetermineMultipleThresholds(t *testing.T) {
	p, err := New([]Threshold{
		{SizeMax: 64 * 1024 * 1024, Default: dur(24 * 60 * 60)},
		{SizeMax: 256 * 1024 * 1024, Default: dur(6 * 60 * 60)},
	})
	require.NoError(t, err)

	def, _, ok := p.Determine(100 * 1024)
	require.True(t, ok)
	require.Equal(t, dur(24*60*60), def)

	def, _, ok = p.Determine(100 * 1024 * 1024)
	require.True(t, ok)
	require.Equal(t, dur(6*60*60), def)

	_, _, ok = p.Determine(300 * 1024 * 1024)
	require.False(t, ok)
}
