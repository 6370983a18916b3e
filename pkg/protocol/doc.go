// Package protocol implements the binary wire format used to ship trees and
// edit scripts between processes.
//
// The encoding favors small payloads and allocation-free encoding: no
// reflection, varints for integers, length-prefixed strings.
//
// # Wire Format
//
// Every message is a frame with a 6-byte header:
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (4 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//
// # Frame Types
//
//   - FrameTree (0x01): a complete tree with the sequence number it belongs to
//   - FrameScript (0x02): an edit script with its sequence number
//
// # Trees
//
// A node starts with its kind byte:
//
//	Empty:   [0x00]
//	Element: [0x01][Tag: string][Key: string][Attrs: count, (name, value)...][Children: count, node...]
//	Text:    [0x02][Text: string]
//
// Attribute order is preserved.
//
// # Patches
//
// A patch is its op byte, its path (count, then one varint per index) and
// op-specific operands:
//
//	Replace:         [node]
//	SetAttribute:    [name][value]
//	RemoveAttribute: [name]
//	SetText:         [value]
//	InsertChild:     [index][node]
//	RemoveChild:     [index]
//	MoveChild:       [from][to]
//
// # Limits
//
// Decoding enforces allocation, collection and depth limits so that a hostile
// peer cannot exhaust memory or the stack. Decode errors carry code W001.
// Encoding enforces the same depth limit, so anything EncodeScript accepts
// decodes again; encode errors carry code W002.
package protocol
