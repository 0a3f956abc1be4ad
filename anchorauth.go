// Package anchorauth contains the shared constants for the anchorauth
// challenge-response authentication service.
package anchorauth

import "time"

const (
	// NonceLength is the number of cryptographically random bytes carried
	// by every challenge transaction.
	NonceLength = 48

	// EncodedNonceLength is the length of the nonce once base64-encoded
	// into the manage data value. 48 raw bytes always encode to 64 bytes
	// of base64 text.
	EncodedNonceLength = 64

	// DataNameSuffix is appended to the anchor name to form the manage
	// data entry name of a challenge.
	DataNameSuffix = " auth"

	// DefaultChallengeTimeout is how long a challenge stays valid when
	// the caller does not pick a validity window.
	DefaultChallengeTimeout = 300 * time.Second

	// DefaultNetworkPassphrase namespaces challenge signatures so they
	// can never be replayed against another deployment.
	DefaultNetworkPassphrase = "anchorauth standalone network ; september 2025"
)

// Version is the current version of anchorauth, set at build time.
var Version = "devel"
