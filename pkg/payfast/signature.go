package payfast

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
)

// Signature computes the gateway integrity hash over the given parameters.
// Keys are sorted alphabetically, concatenated as key=value pairs joined by
// "&", with "&passphrase=<secret>" appended when a passphrase is configured.
// The digest is the lowercase hex MD5 of that string.
func Signature(params map[string]string, passphrase string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	if passphrase != "" {
		b.WriteString("&passphrase=")
		b.WriteString(passphrase)
	}

	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// VerifySignature recomputes the hash over params and compares it with the
// provided value. The "signature" key itself is always excluded.
func VerifySignature(params map[string]string, passphrase, provided string) bool {
	data := make(map[string]string, len(params))
	for k, v := range params {
		if k == "signature" {
			continue
		}
		data[k] = v
	}
	return Signature(data, passphrase) == provided
}
