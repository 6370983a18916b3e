package vdom

import "strings"

// volatileAttrs can change through user interaction without the virtual tree
// seeing it, so the diff always re-sets them.
var volatileAttrs = map[string]bool{
	"value":    true,
	"checked":  true,
	"selected": true,
}

// IsVolatile reports whether the attribute must be re-set on every diff.
func IsVolatile(name string) bool {
	return volatileAttrs[name]
}

// Identity attributes

// ID sets the id attribute.
func ID(id string) Attr { return A("id", id) }

// Class sets the class attribute, joining multiple classes with spaces.
func Class(classes ...string) Attr { return A("class", strings.Join(classes, " ")) }

// Name sets the name attribute.
func Name(name string) Attr { return A("name", name) }

// StyleAttr sets the style attribute.
func StyleAttr(style string) Attr { return A("style", style) }

// Data creates a data-* attribute.
// Example: Data("id", "123") → data-id="123"
func Data(key, value string) Attr { return A("data-"+key, value) }

// Link attributes

// Href sets the href attribute.
func Href(url string) Attr { return A("href", url) }

// Form attributes

// Type sets the type attribute.
func Type(t string) Attr { return A("type", t) }

// Value sets the value attribute.
func Value(v string) Attr { return A("value", v) }

// Placeholder sets the placeholder attribute.
func Placeholder(text string) Attr { return A("placeholder", text) }

// Checked sets the checked attribute, or nothing when false.
func Checked(checked bool) Attr { return boolAttr("checked", checked) }

// Selected sets the selected attribute, or nothing when false.
func Selected(selected bool) Attr { return boolAttr("selected", selected) }

// Disabled sets the disabled attribute, or nothing when false.
func Disabled(disabled bool) Attr { return boolAttr("disabled", disabled) }

// boolAttr returns a present-with-empty-value attribute, or an empty Attr
// that builders skip.
func boolAttr(name string, on bool) Attr {
	if !on {
		return Attr{}
	}
	return A(name, "")
}
