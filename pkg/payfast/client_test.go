package payfast

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/mathotech/autopartshub-backend/pkg/config"
)

func testConfig(validateURL string) config.PayFastConfig {
	return config.PayFastConfig{
		MerchantID:  "10000100",
		MerchantKey: "46f0cd694581a",
		Passphrase:  "secret",
		ProcessURL:  "https://sandbox.payfast.co.za/eng/process",
		ValidateURL: validateURL,
	}
}

func TestNewClient_Validation(t *testing.T) {
	cfg := testConfig("https://sandbox.payfast.co.za/eng/query/validate")

	if _, err := NewClient(cfg, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	missing := cfg
	missing.MerchantID = " "
	if _, err := NewClient(missing, nil); err == nil {
		t.Fatalf("expected merchant id error")
	}

	missing = cfg
	missing.ValidateURL = ""
	if _, err := NewClient(missing, nil); err == nil {
		t.Fatalf("expected validate url error")
	}
}

func TestBuildRedirect_SignsParams(t *testing.T) {
	cfg := testConfig("https://sandbox.payfast.co.za/eng/query/validate")
	client, err := NewClient(cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	params := map[string]string{
		"merchant_id":  cfg.MerchantID,
		"m_payment_id": "42",
		"amount":       "1250.00",
	}
	redirect, err := client.BuildRedirect(params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parsed, err := url.Parse(redirect)
	if err != nil {
		t.Fatalf("redirect is not a valid url: %v", err)
	}
	if !strings.HasPrefix(redirect, cfg.ProcessURL+"?") {
		t.Fatalf("redirect should target the process url, got %s", redirect)
	}

	query := parsed.Query()
	if query.Get("amount") != "1250.00" {
		t.Fatalf("amount missing from redirect query")
	}
	want := Signature(params, cfg.Passphrase)
	if query.Get("signature") != want {
		t.Fatalf("expected signature %s got %s", want, query.Get("signature"))
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   bool
	}{
		{name: "valid", status: http.StatusOK, body: "VALID", want: true},
		{name: "valid with whitespace", status: http.StatusOK, body: "  VALID\n", want: true},
		{name: "invalid body", status: http.StatusOK, body: "INVALID", want: false},
		{name: "non-2xx", status: http.StatusBadGateway, body: "VALID", want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var gotForm url.Values
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseForm(); err != nil {
					t.Errorf("parse form: %v", err)
				}
				gotForm = r.PostForm
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			client, err := NewClient(testConfig(srv.URL), nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			ok, err := client.Verify(context.Background(), map[string]string{
				"merchant_id":   "10000100",
				"pf_payment_id": "pf-1",
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tc.want {
				t.Fatalf("expected verify=%v got %v", tc.want, ok)
			}
			if gotForm.Get("merchant_id") != "10000100" {
				t.Fatalf("verification form missing merchant_id")
			}
		})
	}
}

func TestVerify_TransportError(t *testing.T) {
	client, err := NewClient(testConfig("http://127.0.0.1:0/validate"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := client.Verify(context.Background(), map[string]string{"a": "b"}); err == nil {
		t.Fatalf("expected transport error")
	}
}
