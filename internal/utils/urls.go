package utils

import (
	"net/url"
	"strings"
)

// JoinURL appends path to base, keeping any path prefix base carries. An
// absolute path URL is returned as is. A query on path replaces the base's.
func JoinURL(base *url.URL, path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return strings.TrimRight(base.String(), "/") + "/" + strings.TrimLeft(path, "/")
	}
	if ref.IsAbs() {
		return ref.String()
	}

	joined := *base
	joined.Path = joinPath(base.Path, ref.Path)
	joined.RawPath = joinPath(base.EscapedPath(), ref.EscapedPath())
	joined.RawQuery = ref.RawQuery
	joined.Fragment = ""
	joined.RawFragment = ""
	return joined.String()
}

func joinPath(prefix, path string) string {
	return strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(path, "/")
}
