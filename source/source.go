// Package source turns host URIs into targets an engine can open.
package source

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/playcore/playcore/filesystem"
)

// Resolver maps asset://, file:// and bare paths onto local files and lets
// http(s) streams through unchanged.
type Resolver struct {
	// AssetRoot is the directory asset://<package>/<path> resolves under.
	AssetRoot string
}

func NewResolver(assetRoot string) *Resolver {
	return &Resolver{AssetRoot: assetRoot}
}

func (r *Resolver) Resolve(_ context.Context, uri string) (string, error) {
	l := strings.TrimSpace(uri)
	if l == "" {
		return "", fmt.Errorf("empty source")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", fmt.Errorf("invalid control characters in source")
	}

	// Engines take their target on a command line, where a leading dash reads as a flag.
	if strings.HasPrefix(l, "-") {
		return "", fmt.Errorf("source must not start with '-'")
	}

	if !strings.Contains(l, "://") {
		return local(l)
	}

	u, err := url.Parse(l)
	if err != nil {
		return "", fmt.Errorf("invalid source URI: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return l, nil
	case "file":
		return local(u.Path)
	case "asset":
		return r.asset(u)
	default:
		return "", fmt.Errorf("unsupported source scheme: %s", u.Scheme)
	}
}

func (r *Resolver) asset(u *url.URL) (string, error) {
	if r.AssetRoot == "" {
		return "", fmt.Errorf("no asset root configured for %s", u.String())
	}

	rel := filepath.Clean("/" + filepath.Join(u.Host, strings.TrimPrefix(u.Path, "/")))
	return local(filepath.Join(r.AssetRoot, rel))
}

func local(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty path")
	}

	clean := filepath.Clean(path)
	exists, err := filesystem.API().Exists(clean)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", clean, err)
	}
	if !exists {
		return "", fmt.Errorf("file %s does not exist", clean)
	}
	return clean, nil
}
