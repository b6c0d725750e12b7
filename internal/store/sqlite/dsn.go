package sqlite

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

const dsnScheme = "sqlite://"

// parseDSN turns a sqlite:// project DSN into a driver file name. Relative
// paths are anchored to the working directory and any ?query is kept for the
// driver.
func parseDSN(dsn string) (string, error) {
	rest, ok := strings.CutPrefix(dsn, dsnScheme)
	if !ok {
		return "", fmt.Errorf("invalid sqlite DSN %q: expected %s scheme", dsn, dsnScheme)
	}
	if rest == ":memory:" {
		return rest, nil
	}

	path, query, hasQuery := strings.Cut(rest, "?")
	path, err := url.PathUnescape(path)
	if err != nil {
		return "", fmt.Errorf("unescaping path: %w", err)
	}
	if path == "" {
		return "", fmt.Errorf("invalid sqlite DSN %q: missing path", dsn)
	}
	if !filepath.IsAbs(path) && !strings.HasPrefix(path, "./") {
		path = "./" + path
	}
	if hasQuery {
		return path + "?" + query, nil
	}
	return path, nil
}
