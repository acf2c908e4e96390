package urlnorm

import (
	"fmt"
	"net/url"
	"strings"
)

// defaultPorts maps a scheme to the port number that should be elided when
// it appears explicitly in the input URL.
var defaultPorts = map[string]string{
	"ws":    "80",
	"http":  "80",
	"wss":   "443",
	"https": "443",
}

// Normalize parses raw and returns its canonical form: lowercase
// scheme/host, default port elided, path and query re-encoded.
//
// Returns an error wrapping url.Parse's error if raw is not a valid URL, or
// if the scheme is not one of ws/wss/http/https.
func Normalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("urlnorm: parse %q: %w", raw, err)
	}

	scheme := strings.ToLower(u.Scheme)
	if _, ok := defaultPorts[scheme]; !ok {
		return "", fmt.Errorf("urlnorm: unsupported scheme %q in %q", u.Scheme, raw)
	}
	u.Scheme = scheme

	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" && port != defaultPorts[scheme] {
		u.Host = host + ":" + port
	} else {
		u.Host = host
	}

	if u.Path == "" {
		u.Path = "/"
	}

	// Re-parsing the query through url.Values and re-encoding canonicalizes
	// percent-encoding and sorts the keys (url.Values.Encode sorts by key,
	// matching CURLU's canonical query rendering).
	if u.RawQuery != "" {
		values, err := url.ParseQuery(u.RawQuery)
		if err != nil {
			return "", fmt.Errorf("urlnorm: parse query in %q: %w", raw, err)
		}
		u.RawQuery = values.Encode()
	}

	u.Fragment = ""
	return u.String(), nil
}
