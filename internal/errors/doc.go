// Package errors provides structured, coded errors for humus.
//
// Every error the reconciler reports to a caller carries a short code that
// identifies the failure class, a category, a one-line message, and an
// optional detail and tree path.
//
// # Error Categories
//
//   - validation: malformed VNode trees (contract violations)
//   - host: a host adapter rejected an operation
//   - patch: the host tree no longer matches the virtual tree
//   - config: configuration could not be read or is invalid
//   - protocol: wire data could not be decoded
//
// # Usage
//
//	err := errors.New("V002").
//	    WithPath([]int{0, 3}).
//	    WithDetail(`key "row-7" appears twice`)
//
//	fmt.Println(err.Format())
//	// ERROR V002: Duplicate sibling key
//	//
//	//   at path [0 3]
//	//
//	//   key "row-7" appears twice
package errors
