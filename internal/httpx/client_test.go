package httpx

import (
	"net/http"
	"net/url"
	"testing"

	ntlmssp "github.com/Azure/go-ntlmssp"
)

func TestNewClientNoProxy(t *testing.T) {
	for _, mode := range []string{"", "no-proxy"} {
		client, err := NewClient(ProxyOptions{Mode: mode})
		if err != nil {
			t.Fatalf("NewClient(%q): %v", mode, err)
		}
		tr, ok := client.Transport.(*http.Transport)
		if !ok {
			t.Fatalf("mode %q: unexpected transport type %T", mode, client.Transport)
		}
		if tr.Proxy != nil {
			t.Errorf("mode %q: expected nil proxy func", mode)
		}
	}
}

func TestNewClientBasicProxy(t *testing.T) {
	client, err := NewClient(ProxyOptions{
		Mode:     "basic",
		Host:     "proxy.example.edu",
		Port:     3128,
		User:     "user",
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	tr := client.Transport.(*http.Transport)
	req, _ := http.NewRequest("GET", "https://courses.example.edu/api/semesters", nil)
	proxyURL, err := tr.Proxy(req)
	if err != nil {
		t.Fatalf("proxy func: %v", err)
	}
	if proxyURL == nil || proxyURL.Host != "proxy.example.edu:3128" {
		t.Errorf("unexpected proxy URL: %v", proxyURL)
	}
	if proxyURL.User == nil {
		t.Error("expected credentials embedded in proxy URL")
	}
}

func TestNewClientBypassList(t *testing.T) {
	client, err := NewClient(ProxyOptions{
		Mode:    "basic",
		Host:    "proxy.example.edu",
		NoProxy: "internal.example.edu",
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	tr := client.Transport.(*http.Transport)
	bypass, _ := http.NewRequest("GET", "https://internal.example.edu/x", nil)
	proxied, _ := http.NewRequest("GET", "https://courses.example.edu/x", nil)

	if u, _ := tr.Proxy(bypass); u != nil {
		t.Errorf("expected direct connection for bypass host, got %v", u)
	}
	if u, _ := tr.Proxy(proxied); u == nil {
		t.Error("expected proxied connection for non-bypass host")
	}
}

func TestNewClientNTLMWrapsTransport(t *testing.T) {
	client, err := NewClient(ProxyOptions{Mode: "ntlm", Host: "proxy.example.edu"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, ok := client.Transport.(ntlmssp.Negotiator); !ok {
		t.Errorf("expected ntlmssp.Negotiator transport, got %T", client.Transport)
	}
}

func TestNewClientMissingHost(t *testing.T) {
	for _, mode := range []string{"basic", "ntlm"} {
		if _, err := NewClient(ProxyOptions{Mode: mode}); err == nil {
			t.Errorf("mode %q without host should fail", mode)
		}
	}
}

func TestBuildProxyURLDefaultPort(t *testing.T) {
	u := buildProxyURL(ProxyOptions{Host: "p"})
	want := &url.URL{Scheme: "http", Host: "p:8080"}
	if u.String() != want.String() {
		t.Errorf("got %s, want %s", u, want)
	}
}
