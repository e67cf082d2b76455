package util

import "strings"

// NormalizeAddr returns addr if it is non-empty after trimming whitespace,
// or fallback otherwise. It is used to fill in the default bind address
// ("127.0.0.1") when a Builder or CLI config leaves it unset.
//
// Examples:
//
//	NormalizeAddr("",         "127.0.0.1") → "127.0.0.1"
//	NormalizeAddr("  ",       "127.0.0.1") → "127.0.0.1"
//	NormalizeAddr("0.0.0.0",  "127.0.0.1") → "0.0.0.0"
func NormalizeAddr(addr, fallback string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return fallback
	}
	return addr
}
