package probe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockdevkit/blockdev/errs"
)

type fakeOpener struct {
	closeErr error
	opens    []bool
}

func (f *fakeOpener) open(device string, writable, force bool) (int, error) {
	f.opens = append(f.opens, writable)
	return 3, nil
}

func (f *fakeOpener) close(fd int) error {
	return f.closeErr
}

func withFakeOpener(t *testing.T) *fakeOpener {
	t.Helper()
	saved := defaultOpener
	fo := &fakeOpener{}
	defaultOpener = fo
	t.Cleanup(func() { defaultOpener = saved })
	return fo
}

func TestWipe_NoSignatureIsNoFilesystem(t *testing.T) {
	withFakeOpener(t)
	p := NewFake()

	err := Wipe(context.Background(), p, "/dev/sdz1", false, false)

	kind, ok := errs.Of(err)
	require.True(t, ok)
	assert.Equal(t, errs.NoFilesystem, kind)
}

func TestWipe_SingleSignatureWipesOnlyFirst(t *testing.T) {
	withFakeOpener(t)
	p := NewFake(
		Signature{Type: "ext4", Usage: "filesystem", Offset: 0},
		Signature{Type: "crypto_LUKS", Usage: "crypto", Offset: 4096},
	)

	err := Wipe(context.Background(), p, "/dev/sdz1", false, false)

	require.NoError(t, err)
	assert.Len(t, p.Sigs, 1)
	assert.Equal(t, uint64(4096), p.Sigs[0].Offset)
}

func TestWipe_AllWipesEverySignature(t *testing.T) {
	withFakeOpener(t)
	p := NewFake(
		Signature{Type: "ext4", Usage: "filesystem", Offset: 0},
		Signature{Type: "crypto_LUKS", Usage: "crypto", Offset: 4096},
	)

	err := Wipe(context.Background(), p, "/dev/sdz1", true, false)

	require.NoError(t, err)
	assert.Empty(t, p.Sigs)
}

func TestWipe_RetriesTransientProbeFailures(t *testing.T) {
	withFakeOpener(t)
	p := NewFake(Signature{Type: "ext4", Usage: "filesystem"})
	p.ProbeErrsBeforeSuccess = 2

	err := Wipe(context.Background(), p, "/dev/sdz1", false, false)

	require.NoError(t, err)
}

func TestClean_AbsorbsNoFilesystem(t *testing.T) {
	withFakeOpener(t)
	p := NewFake()

	err := Clean(context.Background(), p, "/dev/sdz1", false)

	assert.NoError(t, err)
}

func TestClean_Idempotent(t *testing.T) {
	withFakeOpener(t)
	p := NewFake(Signature{Type: "ext4", Usage: "filesystem"})

	require.NoError(t, Clean(context.Background(), p, "/dev/sdz1", false))
	require.NoError(t, Clean(context.Background(), p, "/dev/sdz1", false))
}

func TestGetFsType_NoResultReturnsEmptyNoError(t *testing.T) {
	p := NewFake()

	typ, err := GetFsType(context.Background(), p, "/dev/sdz1")

	assert.NoError(t, err)
	assert.Empty(t, typ)
}

func TestGetFsType_NonFilesystemUsageIsInvalid(t *testing.T) {
	p := NewFake(Signature{Type: "crypto_LUKS", Usage: "crypto"})

	_, err := GetFsType(context.Background(), p, "/dev/sdz1")

	kind, ok := errs.Of(err)
	require.True(t, ok)
	assert.Equal(t, errs.Invalid, kind)
}

func TestGetFsType_ReturnsTypeForFilesystemUsage(t *testing.T) {
	p := NewFake(Signature{Type: "xfs", Usage: "filesystem"})

	typ, err := GetFsType(context.Background(), p, "/dev/sdz1")

	require.NoError(t, err)
	assert.Equal(t, "xfs", typ)
}

func TestWipeFs_RejectsMismatchedFilter(t *testing.T) {
	withFakeOpener(t)
	p := NewFake(Signature{Type: "xfs", Usage: "filesystem"})

	err := WipeFs(context.Background(), p, "/dev/sdz1", "ext4", false)

	kind, ok := errs.Of(err)
	require.True(t, ok)
	assert.Equal(t, errs.Invalid, kind)
}
