package studio

import "strings"

// Language is a selectable speech language.
type Language struct {
	Tag   string
	Label string
}

// DefaultLanguage is selected at startup.
const DefaultLanguage = "en-US"

// Languages lists the supported speech languages in display order.
var Languages = []Language{
	{Tag: "en-US", Label: "English (US)"},
	{Tag: "en-GB", Label: "English (UK)"},
	{Tag: "es-ES", Label: "Español (España)"},
	{Tag: "es-MX", Label: "Español (México)"},
	{Tag: "fr-FR", Label: "Français"},
	{Tag: "de-DE", Label: "Deutsch"},
	{Tag: "it-IT", Label: "Italiano"},
	{Tag: "ja-JP", Label: "日本語"},
	{Tag: "ko-KR", Label: "한국어"},
	{Tag: "pt-BR", Label: "Português (Brasil)"},
	{Tag: "ru-RU", Label: "Русский"},
	{Tag: "zh-CN", Label: "中文 (简体)"},
}

// LookupLanguage finds a supported language by tag, ignoring case.
func LookupLanguage(tag string) (Language, bool) {
	for _, l := range Languages {
		if strings.EqualFold(l.Tag, tag) {
			return l, true
		}
	}
	return Language{}, false
}

// LanguageLabel returns the display label for tag, or tag itself.
func LanguageLabel(tag string) string {
	if l, ok := LookupLanguage(tag); ok {
		return l.Label
	}
	return tag
}
