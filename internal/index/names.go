package index

import (
	"path"
	"strings"
)

// DisplayName is the name a file is linked by: its base name without the
// .md extension.
func DisplayName(p string) string {
	base := path.Base(strings.ReplaceAll(p, `\`, "/"))
	if strings.EqualFold(path.Ext(base), ".md") {
		base = base[:len(base)-3]
	}
	return base
}

// FileKey is the matching key of a stored file. Unlike NameKey it keeps
// "#" and "|", which are legal in file names.
func FileKey(p string) string {
	return strings.ToLower(DisplayName(p))
}

// NameKey normalizes a link target for matching: alias and
// heading anchor removed, final path element only, .md dropped, lowercased.
func NameKey(target string) string {
	if i := strings.Index(target, "|"); i >= 0 {
		target = target[:i]
	}
	if i := strings.Index(target, "#"); i >= 0 {
		target = target[:i]
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return ""
	}
	return strings.ToLower(DisplayName(target))
}

// NormalizeTag lowercases a tag and strips a leading "#".
func NormalizeTag(name string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "#"))
}
