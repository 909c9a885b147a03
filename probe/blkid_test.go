package probe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockdevkit/blockdev/runner"
)

func TestParseExport_ParsesKeyValueLines(t *testing.T) {
	out := "TYPE=ext4\nUSAGE=filesystem\nLABEL=root\nUUID=1234-5678\n"

	fields := parseExport(out)

	assert.Equal(t, "ext4", fields["TYPE"])
	assert.Equal(t, "filesystem", fields["USAGE"])
	assert.Equal(t, "root", fields["LABEL"])
	assert.Equal(t, "1234-5678", fields["UUID"])
}

func TestParseOffset_HandlesHexAndDecimal(t *testing.T) {
	off, err := parseOffset("0x1000")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1000), off)

	off, err = parseOffset("4096")
	require.NoError(t, err)
	assert.Equal(t, uint64(4096), off)
}

func TestCLIProber_SafeProbe_ParsesBlkidExportOutput(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"blkid", "-p", "-o", "export", "/dev/sdb1"}, runner.Result{
		Stdout: "TYPE=xfs\nUSAGE=filesystem\nLABEL=\nUUID=abcd-ef01\n",
	})
	p := NewCLIProber(r)

	sig, found, err := p.SafeProbe(context.Background(), "/dev/sdb1")

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "xfs", sig.Type)
	assert.Equal(t, "abcd-ef01", sig.UUID)
}

func TestCLIProber_SafeProbe_NoOutputMeansNotFound(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"blkid"}, runner.Result{Err: assertErr{}, Stdout: ""})
	p := NewCLIProber(r)

	_, found, err := p.SafeProbe(context.Background(), "/dev/sdc1")

	require.NoError(t, err)
	assert.False(t, found)
}

func TestCLIProber_Signatures_ParsesWipefsJSON(t *testing.T) {
	r := runner.NewFake()
	r.Stub([]string{"wipefs", "-J", "/dev/sdb1"}, runner.Result{
		Stdout: `{"signatures":[{"offset":"0x0","uuid":"u1","label":"root","type":"ext4"},{"offset":"0x1000","uuid":"","label":"","type":"crypto_LUKS"}]}`,
	})
	p := NewCLIProber(r)

	sigs, err := p.Signatures(context.Background(), "/dev/sdb1")

	require.NoError(t, err)
	require.Len(t, sigs, 2)
	assert.Equal(t, uint64(0), sigs[0].Offset)
	assert.Equal(t, uint64(0x1000), sigs[1].Offset)
	assert.Equal(t, "crypto_LUKS", sigs[1].Type)
}

type assertErr struct{}

func (assertErr) Error() string { return "exit status 2" }
