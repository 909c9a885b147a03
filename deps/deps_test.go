package deps

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareVersions(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"1.9.0", "1.11.0", -1},
		{"1.11.0", "1.9.0", 1},
		{"1.11.0", "1.11.0", 0},
		{"1.11", "1.11.0", 0},
		{"1.12.0-rc1", "1.12.0", 0},
		{"2", "1.99.99", 1},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CompareVersions(c.a, c.b), "%s vs %s", c.a, c.b)
	}
}

func TestRegistry_CachesAfterFirstProbe(t *testing.T) {
	r := NewRegistry()
	calls := 0
	r.lookPath = func(string) (string, error) {
		calls++
		return "/usr/sbin/mke2fs", nil
	}

	r.IsAvailable(context.Background(), Tool{Name: "mke2fs"})
	r.IsAvailable(context.Background(), Tool{Name: "mke2fs"})

	assert.Equal(t, 1, calls)
}

func TestRegistry_MissingBinary(t *testing.T) {
	r := NewRegistry()
	r.lookPath = func(string) (string, error) { return "", errors.New("not found") }

	status := r.IsAvailable(context.Background(), Tool{Name: "resize.f2fs"})

	assert.False(t, status.Available)
	require.Error(t, status.Err)
}

func TestRegistry_MinVersionGate(t *testing.T) {
	r := NewRegistry()
	r.lookPath = func(string) (string, error) { return "/sbin/fsck.f2fs", nil }
	r.runVersion = func(ctx context.Context, name string, args []string) (string, error) {
		return "fsck.f2fs 1.9.0 (2019-01-01)", nil
	}

	status := r.IsAvailable(context.Background(), Tool{
		Name:          "fsck.f2fs",
		MinVersion:    "1.11.0",
		VersionArgs:   []string{"--version"},
		VersionRegexp: regexp.MustCompile(`fsck\.f2fs (\S+)`),
	})

	assert.False(t, status.Available)
	assert.Equal(t, "1.9.0", status.Version)
}

func TestRegistry_VersionUnknownTreatedAsTooOld(t *testing.T) {
	r := NewRegistry()
	r.lookPath = func(string) (string, error) { return "/sbin/fsck.f2fs", nil }
	r.runVersion = func(ctx context.Context, name string, args []string) (string, error) {
		return "", errors.New("unrecognized option '--version'")
	}

	status := r.IsAvailable(context.Background(), Tool{
		Name:        "fsck.f2fs",
		MinVersion:  "1.11.0",
		VersionArgs: []string{"--version"},
	})

	assert.False(t, status.Available)
}
