package tts

import (
	"strings"

	"golang.org/x/text/language"
)

// NormalizeTag converts platform language identifiers such as "en_us",
// "en-gb-x-rp" or "cmn" into canonical BCP-47 form. Unparseable input is
// returned trimmed and otherwise unchanged.
func NormalizeTag(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "_", "-"))
	if s == "" {
		return ""
	}
	tag, err := language.Parse(s)
	if err != nil {
		return s
	}
	base, _ := tag.Base()
	region, conf := tag.Region()
	if conf == language.Exact {
		return base.String() + "-" + region.String()
	}
	return base.String()
}

// PrimarySubtag returns the primary language subtag ("en" for "en-US").
func PrimarySubtag(tag string) string {
	tag = strings.TrimSpace(strings.ReplaceAll(tag, "_", "-"))
	if t, err := language.Parse(tag); err == nil {
		base, _ := t.Base()
		return base.String()
	}
	primary, _, _ := strings.Cut(tag, "-")
	return strings.ToLower(primary)
}

// SameTag reports whether two language tags are equal, ignoring case and
// separator style.
func SameTag(a, b string) bool {
	return strings.EqualFold(NormalizeTag(a), NormalizeTag(b))
}
