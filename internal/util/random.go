package util

import (
	"math/rand/v2"
)

// Character sets for generated identifiers.
const (
	hexDigits    = "0123456789abcdef"
	alphaNumeric = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

// randomString draws length characters from charset. IDs are opaque handles,
// not secrets, so the non-cryptographic source is fine.
func randomString(charset string, length int) string {
	if length <= 0 {
		return ""
	}
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = charset[rand.IntN(len(charset))]
	}
	return string(buf)
}

// GenerateRandomID returns prefix followed by hexLength random hex characters.
func GenerateRandomID(prefix string, hexLength int) string {
	return prefix + randomString(hexDigits, hexLength)
}

// GenerateRandomHex returns a random lowercase hexadecimal string.
func GenerateRandomHex(length int) string {
	return randomString(hexDigits, length)
}

// GenerateRandomAlphaNumeric returns a random mixed-case alphanumeric string.
func GenerateRandomAlphaNumeric(length int) string {
	return randomString(alphaNumeric, length)
}

// GenerateChaseItemID returns a fresh chase item ID with the "chs_" prefix.
func GenerateChaseItemID() string {
	return GenerateRandomID("chs_", 32)
}

// GenerateClientID returns a fresh client ID with the "cli_" prefix.
func GenerateClientID() string {
	return GenerateRandomID("cli_", 32)
}

// GenerateCommunicationID returns a fresh communication ID with the "com_" prefix.
func GenerateCommunicationID() string {
	return GenerateRandomID("com_", 32)
}
