package host

import "strings"

// Escapers used by writeHTML. Text content only needs the characters that
// start markup; attribute values are always double-quoted, so quotes and
// whitespace that would otherwise be normalized are written as references.
var (
	textEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	)
	attrEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#39;",
		"\n", "&#10;",
		"\r", "&#13;",
		"\t", "&#9;",
	)
)
