package probe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeProbeWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	p := NewFake(Signature{Type: "btrfs", Usage: "filesystem"})
	p.ProbeErrsBeforeSuccess = 3

	sig, found, err := safeProbeWithRetry(context.Background(), p, "/dev/sdz1")

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "btrfs", sig.Type)
}

func TestSafeProbeWithRetry_GivesUpAfterLimit(t *testing.T) {
	p := NewFake(Signature{Type: "btrfs", Usage: "filesystem"})
	p.ProbeErrsBeforeSuccess = 100

	_, _, err := safeProbeWithRetry(context.Background(), p, "/dev/sdz1")

	assert.Error(t, err)
}

func TestSafeProbeWithRetry_CleanNoResultIsNotAnError(t *testing.T) {
	p := NewFake()

	_, found, err := safeProbeWithRetry(context.Background(), p, "/dev/sdz1")

	assert.NoError(t, err)
	assert.False(t, found)
}
