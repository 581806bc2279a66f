package classify

import (
	"regexp"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ExtractContractAddresses returns the deduped base58 runs in content
// matching the contract pattern (32 to 44 base58 characters, the shape
// of a Solana account address). Matching is purely syntactic; whether a
// run names a real account is validated where a mint is actually used.
func ExtractContractAddresses(re *regexp.Regexp, content string) []string {
	matches := re.FindAllString(content, -1)
	if len(matches) == 0 {
		return nil
	}
	return dedupe(matches)
}

// IsOnCurve reports whether a base58 address decodes to a valid ed25519
// point. Regular keypair accounts (token mints minted by wallets) are on
// the curve; program-derived addresses are not.
func IsOnCurve(address string) bool {
	raw, err := base58.Decode(address)
	if err != nil || len(raw) != 32 {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(raw)
	return err == nil
}
