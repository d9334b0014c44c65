package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Canonicalization versions. Each constant names the exact field order fed
// into the hash; adapters reference these instead of concatenating fields
// at call sites so the schemes cannot silently diverge.
const (
	// WompiIntegrityV1: reference + amountMinorUnits + currency + secret
	WompiIntegrityV1 = "wompi/integrity.v1"

	// WompiEventsV1: ordered event property values + unix timestamp + secret,
	// uppercase hex checksum
	WompiEventsV1 = "wompi/events.v1"

	// EpaycoConfirmationV1: custID^pKey^refPayco^txnID^amount^currency
	EpaycoConfirmationV1 = "epayco/confirmation.v1"
)

// IntegritySignature computes the outbound checkout signature:
// hex(sha256(reference + amountMinorUnits + currency + secret)).
// This is the WompiIntegrityV1 canonicalization.
func IntegritySignature(reference string, amountMinorUnits int64, currency, secret string) string {
	var b strings.Builder
	b.WriteString(reference)
	b.WriteString(strconv.FormatInt(amountMinorUnits, 10))
	b.WriteString(currency)
	b.WriteString(secret)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// WompiEventChecksum computes the inbound event checksum for Wompi-style
// webhooks: sha256 over the ordered property values, then the event
// timestamp, then the events secret. Wompi publishes checksums in
// uppercase hex. This is the WompiEventsV1 canonicalization.
func WompiEventChecksum(orderedValues []string, timestamp int64, secret string) string {
	var b strings.Builder
	for _, v := range orderedValues {
		b.WriteString(v)
	}
	b.WriteString(strconv.FormatInt(timestamp, 10))
	b.WriteString(secret)

	sum := sha256.Sum256([]byte(b.String()))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// EpaycoConfirmationSignature computes the inbound confirmation signature
// for ePayco-style webhooks: sha256 over caret-joined fields. This is the
// EpaycoConfirmationV1 canonicalization.
func EpaycoConfirmationSignature(custID, pKey, refPayco, txnID, amount, currency string) string {
	joined := strings.Join([]string{custID, pKey, refPayco, txnID, amount, currency}, "^")
	sum := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(sum[:])
}

// Equal compares two hex signatures in constant time, tolerating case
// differences in the hex encoding
func Equal(expected, actual string) bool {
	return hmac.Equal(
		[]byte(strings.ToLower(expected)),
		[]byte(strings.ToLower(actual)),
	)
}
