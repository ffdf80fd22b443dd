package drawing

import (
	"strings"

	"github.com/beevik/etree"
)

// styleDefaults are reported when neither the attribute nor the inline
// style sets a value.
var styleDefaults = map[string]string{
	"fill":         "none",
	"stroke":       "none",
	"stroke-width": "1",
}

// styleAttrs collects the element kind, id and presentation attributes.
// Inline style declarations win over presentation attributes.
func styleAttrs(el *etree.Element) map[string]string {
	attrs := map[string]string{"element": el.Tag}
	if id := el.SelectAttrValue("id", ""); id != "" {
		attrs["id"] = id
	}
	style := parseStyle(el.SelectAttrValue("style", ""))
	for key, def := range styleDefaults {
		v := style[key]
		if v == "" {
			v = strings.TrimSpace(el.SelectAttrValue(key, ""))
		}
		if v == "" {
			v = def
		}
		attrs[key] = v
	}
	return attrs
}

// presentation returns one presentation property, style first.
func presentation(el *etree.Element, key string) string {
	if v := parseStyle(el.SelectAttrValue("style", ""))[key]; v != "" {
		return v
	}
	return strings.TrimSpace(el.SelectAttrValue(key, ""))
}

func parseStyle(style string) map[string]string {
	out := make(map[string]string)
	for _, decl := range strings.Split(style, ";") {
		key, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		out[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return out
}
