package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/effective-security/x/ctl"
	"github.com/effective-security/xgpg/testgpg"
	"github.com/stretchr/testify/suite"
)

// fakeGpg dispatches on the first option after --batch, enough to drive the
// commands without a real gpg installation
const fakeGpg = `case "$2" in
--import)
	cat >/dev/null
	echo "gpg: key 6C2E2A57B8B7A871: public key imported" >&2
	;;
--verify)
	cat >/dev/null
	echo "gpg: Good signature from alice" >&2
	;;
--clearsign)
	echo "-----BEGIN PGP SIGNED MESSAGE-----"
	echo "Hash: SHA512"
	echo ""
	cat
	echo "-----BEGIN PGP SIGNATURE-----"
	echo "-----END PGP SIGNATURE-----"
	;;
--detach-sign)
	cat >/dev/null
	echo "-----BEGIN PGP SIGNATURE-----"
	echo "-----END PGP SIGNATURE-----"
	;;
--list-keys)
	cat <<'EOF'
pub:u:255:22:6C2E2A57B8B7A871:1700000000:::u:::scESC::::::ed25519:::0:
fpr:::::::::57811D485E7BB58E0E40E4B46C2E2A57B8B7A871:
uid:u::::1700000000::AAAA::alice <alice@example.com>::::::::::0:
EOF
	;;
--export)
	echo "-----BEGIN PGP PUBLIC KEY BLOCK-----"
	echo ""
	echo "mDMEZQ=="
	echo "-----END PGP PUBLIC KEY BLOCK-----"
	;;
*)
	echo "gpg: invalid option \"$2\"" >&2
	exit 2
	;;
esac`

type testSuite struct {
	suite.Suite
	tmpdir   string
	origPath string
	id       *testgpg.Identity
	keyFile  string
	payload  string
	sigFile  string
	ctl      *Cli
	// Out is the outpub buffer
	Out bytes.Buffer

	appFlags []string
}

func (s *testSuite) SetupSuite() {
	s.tmpdir = filepath.Join(os.TempDir(), "/tests/xgpg", "gpg-tool")
	err := os.MkdirAll(s.tmpdir, 0777)
	s.Require().NoError(err)

	bindir := filepath.Join(s.tmpdir, "bin")
	err = os.MkdirAll(bindir, 0777)
	s.Require().NoError(err)

	testgpg.InstallTool(s.T(), bindir, "gpg2", fakeGpg)

	// the fakes need cat, keep the system dirs behind the override
	s.origPath = os.Getenv("PATH")
	os.Setenv("PATH", bindir+":/usr/bin:/bin")

	s.id = testgpg.NewIdentity("alice", "alice@example.com")

	s.keyFile = filepath.Join(s.tmpdir, "alice.pub.asc")
	err = os.WriteFile(s.keyFile, s.id.PublicKeyArmor(), 0644)
	s.Require().NoError(err)

	s.payload = filepath.Join(s.tmpdir, "payload.txt")
	err = os.WriteFile(s.payload, []byte("hello world\n"), 0644)
	s.Require().NoError(err)

	s.sigFile = filepath.Join(s.tmpdir, "payload.txt.asc")
	err = os.WriteFile(s.sigFile, s.id.DetachSign([]byte("hello world\n")), 0644)
	s.Require().NoError(err)
}

func (s *testSuite) TearDownSuite() {
	os.Setenv("PATH", s.origPath)
	os.RemoveAll(s.tmpdir)
}

func (s *testSuite) SetupTest() {
	s.Out.Reset()

	s.ctl = &Cli{}

	s.ctl.WithErrWriter(&s.Out).
		WithWriter(&s.Out)

	parser, err := kong.New(s.ctl,
		kong.Name("gpg-tool"),
		kong.Description("CLI tool for GnuPG operations"),
		kong.Writers(&s.Out, &s.Out),
		ctl.BoolPtrMapper,
		//kong.Exit(exit),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{})
	if err != nil {
		s.FailNow("unexpected error constructing Kong: %+v", err)
	}

	flags := s.appFlags
	_, err = parser.Parse(flags)
	if err != nil {
		s.FailNow("unexpected error parsing: %+v", err)
	}
}

func (s *testSuite) TearDownTest() {
	s.ctl.Release()
}

// HasText is a helper method to assert that the out stream contains the supplied
// text somewhere
func (s *testSuite) HasText(texts ...string) {
	outStr := s.Out.String()
	for _, t := range texts {
		s.Contains(outStr, t)
	}
}

// HasTextInFile is a helper method to assert that file contains the supplied text
func (s *testSuite) HasTextInFile(file string, texts ...string) {
	f, err := os.ReadFile(file)
	s.Require().NoError(err, "unable to read: %s", file)
	outStr := string(f)
	for _, t := range texts {
		s.Contains(outStr, t, "expecting to find text %q in file %q", t, file)
	}
}

func TestSuite(t *testing.T) {
	suite.Run(t, &testSuite{appFlags: []string{"--isolated"}})
}

func (s *testSuite) TestImport() {
	cmd := ImportCmd{
		Files: []string{s.keyFile},
	}
	err := cmd.Run(s.ctl)
	s.Require().NoError(err)
	s.HasText("imported: " + s.keyFile)
}

func (s *testSuite) TestVerify() {
	cmd := VerifyCmd{
		File: s.payload,
	}
	err := cmd.Run(s.ctl)
	s.Require().NoError(err)
	s.HasText("Signature: OK")
}

func (s *testSuite) TestVerifyDetached() {
	cmd := VerifyCmd{
		File:      s.payload,
		Signature: s.sigFile,
	}
	err := cmd.Run(s.ctl)
	s.Require().NoError(err)
	s.HasText("Signature: OK")
}

func (s *testSuite) TestClearSign() {
	cmd := ClearSignCmd{
		File:  s.payload,
		KeyID: "alice@example.com",
	}
	err := cmd.Run(s.ctl)
	s.Require().NoError(err)
	s.HasText("BEGIN PGP SIGNED MESSAGE", "hello world")
}

func (s *testSuite) TestDetachSign() {
	out := filepath.Join(s.tmpdir, "payload.out.sig")
	cmd := DetachSignCmd{
		File: s.payload,
		Out:  out,
	}
	err := cmd.Run(s.ctl)
	s.Require().NoError(err)
	s.HasTextInFile(out, "BEGIN PGP SIGNATURE")
}

func (s *testSuite) TestKeysList() {
	cmd := KeysListCmd{}
	err := cmd.Run(s.ctl)
	s.Require().NoError(err)
	s.HasText(
		"Key: 6C2E2A57B8B7A871",
		"Fingerprint: 57811D485E7BB58E0E40E4B46C2E2A57B8B7A871",
		"UID: alice <alice@example.com>",
	)
}

func (s *testSuite) TestKeysListJSON() {
	enable := true
	cmd := KeysListCmd{
		JSON: &enable,
	}
	err := cmd.Run(s.ctl)
	s.Require().NoError(err)
	s.HasText(`"key_id": "6C2E2A57B8B7A871"`)
}

func (s *testSuite) TestKeysExport() {
	cmd := KeysExportCmd{
		KeyID: "alice@example.com",
	}
	err := cmd.Run(s.ctl)
	s.Require().NoError(err)
	s.HasText("BEGIN PGP PUBLIC KEY BLOCK")
}

func (s *testSuite) TestKeysInspect() {
	cmd := KeysInspectCmd{
		File: s.keyFile,
	}
	err := cmd.Run(s.ctl)
	s.Require().NoError(err)
	s.HasText(
		"Key: "+s.id.KeyID(),
		"Fingerprint: "+s.id.Fingerprint(),
		"UID: "+s.id.UserID(),
	)
}
