package webhooks

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/mathotech/autopartshub-backend/pkg/logger"
)

// NotificationProcessor walks an inbound payment notification through the
// reconciliation pipeline. *payments.Reconciler satisfies it.
type NotificationProcessor interface {
	Process(ctx context.Context, clientIP string, fields map[string]string) bool
}

// clientIPHeaders are consulted in order before falling back to RemoteAddr.
// Proxies along the way populate different ones.
var clientIPHeaders = []string{
	"X-Forwarded-For",
	"Proxy-Client-IP",
	"WL-Proxy-Client-IP",
	"HTTP_CLIENT_IP",
	"HTTP_X_FORWARDED_FOR",
}

// PayFast receives asynchronous payment notifications. The reconciler's
// verdict is the only signal the gateway gets: 200 acknowledges, 400 makes it
// retry. No body detail is leaked to the caller.
func PayFast(reconciler NotificationProcessor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reconciler == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		if err := r.ParseForm(); err != nil {
			if logg != nil {
				logg.Warn(r.Context(), "malformed payment notification body")
			}
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		fields := make(map[string]string, len(r.PostForm))
		for key := range r.PostForm {
			fields[key] = r.PostForm.Get(key)
		}

		if reconciler.Process(r.Context(), clientIP(r), fields) {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}
}

func clientIP(r *http.Request) string {
	for _, header := range clientIPHeaders {
		value := strings.TrimSpace(r.Header.Get(header))
		if value == "" || strings.EqualFold(value, "unknown") {
			continue
		}
		// The first entry of a forwarding chain is the originating client.
		if idx := strings.IndexByte(value, ','); idx >= 0 {
			value = value[:idx]
		}
		return strings.TrimSpace(value)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
