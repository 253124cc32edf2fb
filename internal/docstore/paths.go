package docstore

import (
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var indexNames = map[string]struct{}{
	"index":  {},
	"_index": {},
}

// NormalizePath maps a slash separated source path relative to the content
// root onto its document path.
//
// The extension is dropped, index sources collapse onto their directory and
// the result is NFC normalised and case folded, so "Guide/Intro.md" and
// "guide/intro/index.md" both become "guide/intro".
func NormalizePath(rel string) (docPath string, index bool) {
	rel = strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(rel, "\\", "/")), "/")
	base := path.Base(rel)
	stem := strings.TrimSuffix(base, path.Ext(base))

	dir := path.Dir(rel)
	if dir == "." {
		dir = ""
	}

	if _, ok := indexNames[strings.ToLower(stem)]; ok {
		return fold(dir), true
	}
	return fold(path.Join(dir, stem)), false
}

// fold normalises case and Unicode composition. A Caser is stateful, so one
// is created per call to keep the store safe for concurrent readers.
func fold(p string) string {
	return cases.Fold().String(norm.NFC.String(p))
}
