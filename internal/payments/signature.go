package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// PaymentSignaturePayload composes the signed payload for a checkout callback.
// The gateway signs "<orderId>|<paymentId>" with the key secret.
func PaymentSignaturePayload(gatewayOrderID, paymentID string) string {
	return gatewayOrderID + "|" + paymentID
}

// VerifyHMACSignature reports whether signature is a valid hex-encoded
// HMAC-SHA256 of payload under secret. Comparison is constant time.
func VerifyHMACSignature(payload []byte, signature, secret string) bool {
	signature = strings.TrimSpace(signature)
	if signature == "" || secret == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
