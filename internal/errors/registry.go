package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Validation (V001-V099): malformed VNode trees.
	"V001": {Category: CategoryValidation, Message: "Mixed keyed and unkeyed siblings"},
	"V002": {Category: CategoryValidation, Message: "Duplicate sibling key"},
	"V003": {Category: CategoryValidation, Message: "Duplicate attribute name"},
	"V004": {Category: CategoryValidation, Message: "Invalid element tag"},
	"V005": {Category: CategoryValidation, Message: "Key on non-element node"},
	"V006": {Category: CategoryValidation, Message: "Tree nested too deeply"},

	// Host (H001-H099): adapter rejected an operation.
	"H001": {Category: CategoryHost, Message: "Host operation failed"},

	// Patch (P001-P099): structural mismatch between host and virtual tree.
	"P001": {Category: CategoryPatch, Message: "Path not found in host tree"},
	"P002": {Category: CategoryPatch, Message: "Child index out of range"},

	// Config (C001-C099).
	"C001": {Category: CategoryConfig, Message: "Cannot read configuration file"},
	"C002": {Category: CategoryConfig, Message: "Cannot parse configuration file"},
	"C003": {Category: CategoryConfig, Message: "Invalid configuration"},

	// Protocol (W001-W099).
	"W001": {Category: CategoryProtocol, Message: "Cannot decode wire data"},
	"W002": {Category: CategoryProtocol, Message: "Cannot encode wire data"},
}

// GetAllCodes returns all registered error codes in sorted order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
