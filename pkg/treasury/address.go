package treasury

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ZeroAddress is the null account, never a valid recipient.
var ZeroAddress = common.Address{}.Hex()

func IsSameAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}

// IsValidRecipient reports whether addr is a well-formed, non-zero account address
func IsValidRecipient(addr string) bool {
	if !common.IsHexAddress(addr) {
		return false
	}

	return !IsSameAddress(addr, ZeroAddress)
}
