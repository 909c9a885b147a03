package mount

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMounted_TrueWhenDeviceHasTarget(t *testing.T) {
	ft := NewFake(Entry{Source: "/dev/sdb1", Target: "/mnt/data", FSType: "xfs"})

	mounted, err := IsMounted(context.Background(), ft, "/mnt/data")

	assert.NoError(t, err)
	assert.True(t, mounted)
}

func TestIsMounted_FalseForUnknownTarget(t *testing.T) {
	ft := NewFake()

	mounted, err := IsMounted(context.Background(), ft, "/mnt/missing")

	assert.NoError(t, err)
	assert.False(t, mounted)
}

func TestFakeTable_MountThenUnmountRoundTrips(t *testing.T) {
	ft := NewFake()

	err := ft.Mount(context.Background(), Spec{Device: "/dev/sdb1", Mountpoint: "/mnt/data", FSType: "xfs"})
	assert.NoError(t, err)

	target, ok, err := ft.FindTarget(context.Background(), "/dev/sdb1")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/mnt/data", target)

	err = ft.Unmount(context.Background(), "/mnt/data", false, false)
	assert.NoError(t, err)

	_, ok, _ = ft.FindTarget(context.Background(), "/dev/sdb1")
	assert.False(t, ok)
}
