package document

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/tack-ls/tack/protocol"
)

// URIToPath converts a file:// URI to a filesystem path. An empty or
// "localhost" authority is accepted; anything else (remote hosts, non-file
// schemes) is rejected, since such documents cannot correspond to checker
// output.
func URIToPath(uri protocol.DocumentURI) (string, error) {
	u, err := url.Parse(string(uri))
	if err != nil {
		return "", fmt.Errorf("parsing uri %q: %w", uri, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported uri scheme %q", u.Scheme)
	}
	if u.Host != "" && !strings.EqualFold(u.Host, "localhost") {
		return "", fmt.Errorf("unsupported uri authority %q", u.Host)
	}
	if u.Path == "" {
		return "", fmt.Errorf("uri %q has no path", uri)
	}
	return filepath.FromSlash(u.Path), nil
}

// PathToURI converts an absolute filesystem path to a file:// URI with
// proper percent-encoding.
func PathToURI(path string) (protocol.DocumentURI, error) {
	if !filepath.IsAbs(path) {
		return "", fmt.Errorf("path %q is not absolute", path)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return protocol.DocumentURI(u.String()), nil
}
