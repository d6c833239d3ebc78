package gpg_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xgpg/gpg"
	"github.com/effective-security/xgpg/testgpg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_VerifyFile_OK(t *testing.T) {
	dir := t.TempDir()
	testgpg.InstallTool(t, dir, "gpg2", `echo "gpg: Good signature" >&2`)
	t.Setenv("PATH", dir)

	err := gpg.VerifyFile(context.Background(), strings.NewReader("signed content"), nil)
	require.NoError(t, err)
}

func Test_VerifyFile_MapsFailure(t *testing.T) {
	dir := t.TempDir()
	testgpg.InstallTool(t, dir, "gpg2", `echo "gpg: BAD signature" >&2
exit 1`)
	t.Setenv("PATH", dir)

	err := gpg.VerifyFile(context.Background(), strings.NewReader("signed content"), nil)
	require.Error(t, err)

	var verr *gpg.VerificationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "gpg: BAD signature", verr.Output)
	assert.EqualError(t, err, "verification failed: gpg: BAD signature")
}

func Test_VerifyDetachedFile_PassesSignatureFile(t *testing.T) {
	dir := t.TempDir()
	log := filepath.Join(t.TempDir(), "args.log")
	testgpg.InstallTool(t, dir, "gpg2", `echo "$@" > `+log)
	t.Setenv("PATH", dir)

	err := gpg.VerifyDetachedFile(context.Background(),
		strings.NewReader("artifact"),
		bytes.NewReader([]byte("-----BEGIN PGP SIGNATURE-----")), nil)
	require.NoError(t, err)

	data, err := os.ReadFile(log)
	require.NoError(t, err)

	args := strings.Fields(string(data))
	require.Len(t, args, 4)
	assert.Equal(t, "--batch", args[0])
	assert.Equal(t, "--verify", args[1])
	assert.Contains(t, args[2], "xgpg-sig-")
	assert.Equal(t, "-", args[3])

	// the spooled signature file is removed after the call
	assert.NoFileExists(t, args[2])
}

func Test_VerifyDetachedFile_MapsFailure(t *testing.T) {
	dir := t.TempDir()
	testgpg.InstallTool(t, dir, "gpg2", `echo "gpg: no valid OpenPGP data found" >&2
exit 2`)
	t.Setenv("PATH", dir)

	err := gpg.VerifyDetachedFile(context.Background(),
		strings.NewReader("artifact"),
		strings.NewReader("not a signature"), nil)
	require.Error(t, err)

	var verr *gpg.VerificationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "gpg: no valid OpenPGP data found", verr.Output)
}
