// Package patch applies vdom edit scripts to a live host tree.
//
// Apply walks the script in order. Each patch's path is resolved against the
// host tree as it stands at that moment, starting from the first child of the
// root handle (the mount slot). Resolved handles are cached by path and the
// cache is pruned whenever a child list or subtree changes.
//
// Failures come in two classes:
//
//   - Host failures (the adapter rejected an operation) are recorded in the
//     Report and application continues.
//   - Structural failures (a path or index no longer exists in the host tree)
//     stop application immediately and are returned as a *StructuralError.
package patch
