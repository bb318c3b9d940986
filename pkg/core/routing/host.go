// Package routing maps request hosts onto path namespaces.
//
// A request for alice.example.com/x is served internally as /alice/x while
// the browser keeps seeing the subdomain URL. Everything here is pure so it
// can run on every request.
package routing

import "strings"

const localhost = "localhost"

// Decision is the outcome of classifying one request
type Decision struct {
	HostLabel    string // Subdomain label, empty unless Rewrite
	IsRootDomain bool
	Rewrite      bool
	Path         string // Path to route on; the original path on passthrough
}

// Decide classifies host against rootDomain and returns the path the
// request should be routed on. It never fails: unknown hosts pass through
// and are left to the not-found handling further down.
func Decide(host, path, rootDomain string) Decision {
	// Hostnames are case-insensitive; labels are matched lowercased
	hostname := strings.ToLower(stripPort(host))
	root := strings.ToLower(stripPort(rootDomain))

	if hostname == root || hostname == localhost {
		return Decision{IsRootDomain: true, Path: path}
	}

	suffix := "." + root
	if root != "" && strings.HasSuffix(hostname, suffix) {
		label := strings.TrimSuffix(hostname, suffix)
		if label != "" && label != hostname {
			return Decision{
				HostLabel: label,
				Rewrite:   true,
				Path:      joinPath(label, path),
			}
		}
	}

	return Decision{Path: path}
}

func stripPort(host string) string {
	if i := strings.IndexByte(host, ':'); i >= 0 {
		return host[:i]
	}
	return host
}

// joinPath puts label in front of path. The bare root maps to /label so a
// subdomain's home page lands on the profile route itself.
func joinPath(label, path string) string {
	if path == "" || path == "/" {
		return "/" + label
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "/" + label + path
}
