package gateway

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// VerifyNotificationSignature checks the digest the gateway attaches to
// webhook callbacks: sha512(reference + status + serverKey) hex-encoded.
func VerifyNotificationSignature(reference, status, serverKey, signature string) bool {
	if signature == "" || serverKey == "" {
		return false
	}
	sum := sha512.Sum512([]byte(fmt.Sprintf("%s%s%s", reference, status, serverKey)))
	expected := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
