package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	herrors "github.com/humus-dev/humus/internal/errors"
	"github.com/humus-dev/humus/pkg/protocol"
	"github.com/humus-dev/humus/pkg/vdom"
)

// errInvalidTree is returned after validation errors have been printed.
var errInvalidTree = errors.New("invalid tree")

var opColors = map[vdom.PatchOp]*color.Color{
	vdom.PatchReplace:     color.New(color.FgYellow),
	vdom.PatchSetAttr:     color.New(color.FgCyan),
	vdom.PatchRemoveAttr:  color.New(color.FgMagenta),
	vdom.PatchSetText:     color.New(color.FgBlue),
	vdom.PatchInsertChild: color.New(color.FgGreen),
	vdom.PatchRemoveChild: color.New(color.FgRed),
	vdom.PatchMoveChild:   color.New(color.FgHiBlack),
}

type diffOptions struct {
	binary   bool
	validate bool
}

func diffCmd() *cobra.Command {
	var opts diffOptions

	cmd := &cobra.Command{
		Use:   "diff <prev.json> <next.json>",
		Short: "Print the edit script between two trees",
		Long: `Diff two JSON trees and print the edit script that turns prev into next.

Trees use the JSON form {"tag": "div", "key": "k", "attrs": {...}, "children": [...]},
with {"text": "..."} or a bare string for text and {} for an empty node.
A prev of null diffs against nothing and yields a mount.

Examples:
  humus diff old.json new.json
  humus diff --validate old.json new.json
  humus diff --binary old.json new.json > script.bin`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], args[1], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.binary, "binary", "b", false, "Write the script as a binary protocol frame")
	cmd.Flags().BoolVar(&opts.validate, "validate", false, "Validate both trees before diffing")

	return cmd
}

func runDiff(out, errOut io.Writer, prevPath, nextPath string, opts diffOptions) error {
	prev, err := readTree(prevPath)
	if err != nil {
		return err
	}
	next, err := readTree(nextPath)
	if err != nil {
		return err
	}

	if opts.validate {
		failed := false
		for _, t := range []struct {
			path string
			tree *vdom.VNode
		}{{prevPath, prev}, {nextPath, next}} {
			if err := vdom.Validate(t.tree); err != nil {
				fmt.Fprintf(errOut, "%s\n", t.path)
				herrors.Fprint(errOut, err)
				failed = true
			}
		}
		if failed {
			return errInvalidTree
		}
	}

	script := vdom.Diff(prev, next)

	if opts.binary {
		payload, err := protocol.EncodeScript(&protocol.ScriptFrame{Seq: 1, Patches: script})
		if err != nil {
			return err
		}
		return protocol.WriteFrame(out, protocol.NewFrame(protocol.FrameScript, payload))
	}

	for _, p := range script {
		c, ok := opColors[p.Op]
		if !ok {
			c = color.New(color.Reset)
		}
		c.Fprintln(out, p.String())
	}
	return nil
}

func readTree(path string) (*vdom.VNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tree, err := vdom.ParseJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tree, nil
}
