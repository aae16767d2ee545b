package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDetector_ExtractClientIP(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		realIP     string
		want       string
	}{
		{"direct public client", "203.0.113.7:5000", "", "", "203.0.113.7"},
		{"spoofed header from public client is ignored", "203.0.113.7:5000", "1.2.3.4", "", "203.0.113.7"},
		{"forwarded through trusted proxy", "10.0.0.2:5000", "198.51.100.9, 10.0.0.2", "", "198.51.100.9"},
		{"x-real-ip through trusted proxy", "127.0.0.1:5000", "", "198.51.100.10", "198.51.100.10"},
		{"garbage forwarded value falls back", "10.0.0.2:5000", "not-an-ip", "", "10.0.0.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := d.ExtractClientIP(r); got != tt.want {
				t.Errorf("ExtractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetector_Middleware(t *testing.T) {
	d := NewDetector()
	h := d.Middleware(true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	tests := []struct {
		path  string
		agent string
		want  int
	}{
		{"/rpc/getMembers", "curl/8.4.0", http.StatusOK},
		{"/.env", "", http.StatusBadRequest},
		{"/rpc/getMembers", "sqlmap/1.7", http.StatusBadRequest},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, tt.path, nil)
		r.Header.Set("User-Agent", tt.agent)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		if rec.Code != tt.want {
			t.Errorf("%s (%s): status %d, want %d", tt.path, tt.agent, rec.Code, tt.want)
		}
	}
	if got := d.GetMetrics().SuspiciousRequests; got != 2 {
		t.Errorf("SuspiciousRequests = %d, want 2", got)
	}
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(NoStore(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Cache-Control":          "no-store",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must not be sent over plain HTTP")
	}

	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	r.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	if got := rec.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Errorf("HSTS = %q", got)
	}
}

func TestDetector_Inspect(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name   string
		method string
		target string
		want   string
	}{
		{"plain rpc query", http.MethodGet, `/rpc/getMember?input=%7B%22id%22%3A1%7D`, ""},
		{"encoded payload in input", http.MethodGet, `/rpc/getMembers?input=%22%3Cscript%3E%22`, "query contains <script"},
		{"path traversal", http.MethodGet, "/rpc/../../etc/passwd", "path contains ../"},
		{"trace method", "TRACE", "/rpc/getMembers", "unusual method"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, "/", nil)
			u, err := r.URL.Parse(tt.target)
			if err != nil {
				t.Fatal(err)
			}
			r.URL = u
			if got := d.Inspect(r); got != tt.want {
				t.Errorf("Inspect() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetector_CountsInvalidForwardedIPs(t *testing.T) {
	d := NewDetector()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.2:5000"
	r.Header.Set("X-Forwarded-For", "not-an-ip")
	r.Header.Set("X-Real-IP", "also-bad")

	if got := d.ExtractClientIP(r); got != "10.0.0.2" {
		t.Errorf("ExtractClientIP() = %q, want 10.0.0.2", got)
	}
	if got := d.GetMetrics().InvalidIPAttempts; got != 2 {
		t.Errorf("InvalidIPAttempts = %d, want 2", got)
	}
}
