package challenge

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/uvensys/anchorauth/lib/keypair"
	"github.com/uvensys/anchorauth/lib/txnwire"
)

const (
	testNetwork = "anchorauth test network ; do not use"
	testAnchor  = "Test Anchor"
)

var testNow = time.Unix(1700000000, 0)

func frozenNow() time.Time { return testNow }

func mkKeys(t *testing.T) (server, client *keypair.Full) {
	t.Helper()

	server, err := keypair.Random()
	if err != nil {
		t.Fatal(err)
	}
	client, err = keypair.Random()
	if err != nil {
		t.Fatal(err)
	}
	return server, client
}

func mkBuildParams(server *keypair.Full, clientAccount string) BuildParams {
	return BuildParams{
		Server:            server,
		ClientAccount:     clientAccount,
		AnchorName:        testAnchor,
		NetworkPassphrase: testNetwork,
		Now:               frozenNow,
	}
}

func TestBuildReadRoundTrip(t *testing.T) {
	server, client := mkKeys(t)

	envelope, err := Build(mkBuildParams(server, client.Address()))
	if err != nil {
		t.Fatal(err)
	}

	tx, clientAccount, err := readAt(testNow, envelope, server.Address(), testNetwork)
	if err != nil {
		t.Fatal(err)
	}

	if tx.SourceAccount != server.Address() {
		t.Errorf("want source %s, got: %s", server.Address(), tx.SourceAccount)
	}
	if clientAccount != client.Address() {
		t.Errorf("want client %s, got: %s", client.Address(), clientAccount)
	}

	md := tx.Operations[0].(*txnwire.ManageData)
	if md.Name != testAnchor+" auth" {
		t.Errorf("want data name %q, got: %q", testAnchor+" auth", md.Name)
	}
	if len(md.Value) != 64 {
		t.Errorf("want a 64 byte value, got: %d bytes", len(md.Value))
	}

	nonce, err := base64.StdEncoding.DecodeString(string(md.Value))
	if err != nil {
		t.Fatal(err)
	}
	if len(nonce) != 48 {
		t.Errorf("want a 48 byte nonce, got: %d bytes", len(nonce))
	}

	window := tx.TimeBounds.MaxTime - tx.TimeBounds.MinTime
	if window != 300 {
		t.Errorf("want a 300 second default window, got: %d", window)
	}
	if tx.TimeBounds.MinTime != testNow.Unix() {
		t.Errorf("want window to open at %d, got: %d", testNow.Unix(), tx.TimeBounds.MinTime)
	}
}

func TestBuildExplicitTimeout(t *testing.T) {
	server, client := mkKeys(t)

	p := mkBuildParams(server, client.Address())
	p.Timeout = 90 * time.Second

	envelope, err := Build(p)
	if err != nil {
		t.Fatal(err)
	}

	tx, _, err := readAt(testNow, envelope, server.Address(), testNetwork)
	if err != nil {
		t.Fatal(err)
	}

	if window := tx.TimeBounds.MaxTime - tx.TimeBounds.MinTime; window != 90 {
		t.Errorf("want a 90 second window, got: %d", window)
	}
}

func TestBuildDeterministicNonce(t *testing.T) {
	server, client := mkKeys(t)

	nonce := bytes.Repeat([]byte{0x42}, 48)

	p := mkBuildParams(server, client.Address())
	p.Rand = bytes.NewReader(nonce)

	envelope, err := Build(p)
	if err != nil {
		t.Fatal(err)
	}

	tx, _, err := readAt(testNow, envelope, server.Address(), testNetwork)
	if err != nil {
		t.Fatal(err)
	}

	md := tx.Operations[0].(*txnwire.ManageData)
	if want := base64.StdEncoding.EncodeToString(nonce); string(md.Value) != want {
		t.Errorf("want value %q, got: %q", want, md.Value)
	}
}

func TestBuildRejectsBadParams(t *testing.T) {
	server, client := mkKeys(t)

	for _, tt := range []struct {
		name   string
		mutate func(p *BuildParams)
		reason string
	}{
		{
			name:   "no server keypair",
			mutate: func(p *BuildParams) { p.Server = nil },
			reason: "server keypair is required",
		},
		{
			name:   "bad client account",
			mutate: func(p *BuildParams) { p.ClientAccount = "not an address" },
			reason: "client account is not a valid address",
		},
		{
			name:   "no anchor name",
			mutate: func(p *BuildParams) { p.AnchorName = "" },
			reason: "anchor name is required",
		},
		{
			name:   "negative timeout",
			mutate: func(p *BuildParams) { p.Timeout = -time.Second },
			reason: "challenge timeout must not be negative",
		},
		{
			name:   "broken entropy source",
			mutate: func(p *BuildParams) { p.Rand = iotest.ErrReader(io.ErrUnexpectedEOF) },
			reason: "cannot read random nonce",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			p := mkBuildParams(server, client.Address())
			tt.mutate(&p)

			_, err := Build(p)
			if !errors.Is(err, ErrInvalidChallenge) {
				t.Fatalf("want ErrInvalidChallenge, got: %v", err)
			}
			if !strings.Contains(err.Error(), tt.reason) {
				t.Errorf("want reason %q in error, got: %v", tt.reason, err)
			}
		})
	}
}

func TestBuildNoncesDiffer(t *testing.T) {
	server, client := mkKeys(t)

	one, err := Build(mkBuildParams(server, client.Address()))
	if err != nil {
		t.Fatal(err)
	}
	two, err := Build(mkBuildParams(server, client.Address()))
	if err != nil {
		t.Fatal(err)
	}

	if one == two {
		t.Error("wanted two independent challenges to differ")
	}
}

// mkChallenge assembles a challenge transaction by hand so tests can
// mutate it before (pre) or after (post) the server signs it.
func mkChallenge(t *testing.T, server *keypair.Full, clientAccount string, pre, post func(tx *txnwire.Transaction)) string {
	t.Helper()

	nonce := make([]byte, 48)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		t.Fatal(err)
	}

	tx := &txnwire.Transaction{
		SourceAccount: server.Address(),
		SeqNum:        0,
		TimeBounds: &txnwire.TimeBounds{
			MinTime: testNow.Unix(),
			MaxTime: testNow.Add(300 * time.Second).Unix(),
		},
		Operations: []txnwire.Operation{
			&txnwire.ManageData{
				OpSource: clientAccount,
				Name:     testAnchor + " auth",
				Value:    []byte(base64.StdEncoding.EncodeToString(nonce)),
			},
		},
	}

	if pre != nil {
		pre(tx)
	}

	if err := tx.Sign(testNetwork, server); err != nil {
		t.Fatal(err)
	}

	if post != nil {
		post(tx)
	}

	envelope, err := tx.MarshalBase64()
	if err != nil {
		t.Fatal(err)
	}
	return envelope
}

// countersign decodes an envelope, signs it with the given keypairs,
// and re-encodes it. This is what a claimant does with a challenge.
func countersign(t *testing.T, envelope string, kps ...*keypair.Full) string {
	t.Helper()

	tx, err := txnwire.DecodeBase64(envelope)
	if err != nil {
		t.Fatal(err)
	}

	for _, kp := range kps {
		if err := tx.Sign(testNetwork, kp); err != nil {
			t.Fatal(err)
		}
	}

	signed, err := tx.MarshalBase64()
	if err != nil {
		t.Fatal(err)
	}
	return signed
}
