package challenge

// Signer is one key authorized to act for an account, together with its
// voting weight. Signer lists are supplied by the caller; this package
// never resolves which signers an account actually has.
type Signer struct {
	Address string `json:"address"`
	Weight  int32  `json:"weight"`
}
