package payfast

import "testing"

func TestSignature(t *testing.T) {
	params := map[string]string{
		"merchant_id":  "10000100",
		"m_payment_id": "42",
		"amount":       "1250.00",
	}

	if got := Signature(params, ""); got != "d6e8ec51a80e3f959ba9eff7df587498" {
		t.Fatalf("unexpected signature without passphrase: %s", got)
	}
	if got := Signature(params, "secret"); got != "e2e0a518486de9b406dda47d2fbb4cb9" {
		t.Fatalf("unexpected signature with passphrase: %s", got)
	}
}

func TestSignature_KeyOrderIndependent(t *testing.T) {
	a := Signature(map[string]string{"b": "2", "a": "1", "c": "3"}, "")
	b := Signature(map[string]string{"c": "3", "a": "1", "b": "2"}, "")
	if a != b {
		t.Fatalf("signature should not depend on insertion order")
	}
}

func TestVerifySignature(t *testing.T) {
	params := map[string]string{
		"merchant_id":  "10000100",
		"m_payment_id": "42",
		"amount":       "1250.00",
	}
	sig := Signature(params, "secret")

	received := map[string]string{
		"merchant_id":  "10000100",
		"m_payment_id": "42",
		"amount":       "1250.00",
		"signature":    sig,
	}
	if !VerifySignature(received, "secret", sig) {
		t.Fatalf("expected signature to verify")
	}
	if VerifySignature(received, "secret", "deadbeef") {
		t.Fatalf("expected tampered signature to fail")
	}

	received["amount"] = "9999.00"
	if VerifySignature(received, "secret", sig) {
		t.Fatalf("expected tampered amount to fail verification")
	}
}
