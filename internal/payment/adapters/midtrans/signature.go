package midtrans

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"

	"github.com/smallbiznis/hirehub/internal/payment/domain"
)

// Signature computes hex(sha512(order_id + status_code + gross_amount + server_key)).
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// VerifySignature compares signature_key with the expected digest in constant time.
func VerifySignature(n domain.Notification, serverKey string) bool {
	if serverKey == "" || n.SignatureKey == "" {
		return false
	}
	expected := Signature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
	return hmac.Equal([]byte(n.SignatureKey), []byte(expected))
}
