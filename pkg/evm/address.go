package evm

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// IsAddress reports whether s is a 20-byte hex address, with or without the 0x prefix.
// Mixed-case input is treated as an EIP-55 checksum and must match it exactly.
func IsAddress(s string) bool {
	if !common.IsHexAddress(s) {
		return false
	}
	body := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(body) != 40 {
		return false
	}
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return true
	}
	return common.HexToAddress(body).Hex() == "0x"+body
}

// Normalize returns the checksummed form of a valid address, or "" when s is not one.
func Normalize(s string) string {
	if !IsAddress(s) {
		return ""
	}
	return common.HexToAddress(s).Hex()
}

// SameAddress compares two addresses ignoring case and prefix.
func SameAddress(a, b string) bool {
	if !IsAddress(a) || !IsAddress(b) {
		return false
	}
	return common.HexToAddress(a) == common.HexToAddress(b)
}
