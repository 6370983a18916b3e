package main

import (
	"fmt"

	"github.com/humus-dev/humus/pkg/vdom"
)

type task struct {
	id    string
	title string
}

var tasks = []task{
	{"t1", "Write parser"},
	{"t2", "Review diff"},
	{"t3", "Ship release"},
	{"t4", "Update docs"},
	{"t5", "Fix flaky test"},
	{"t6", "Tune metrics"},
}

// board renders the demo view for tick: a rotating, growing and shrinking
// keyed task list with a few attributes that change over time.
func board(tick int) *vdom.VNode {
	n := 2 + tick%(len(tasks)-1)
	shift := tick % len(tasks)
	visible := make([]task, 0, n)
	for i := 0; i < n; i++ {
		visible = append(visible, tasks[(shift+i)%len(tasks)])
	}

	return vdom.Div(vdom.ID("board"),
		vdom.H1("Tasks"),
		vdom.P(vdom.Class("status"), vdom.Textf("tick %d, %d open", tick, n)),
		vdom.Ul(
			vdom.Range(visible, func(i int, t task) *vdom.VNode {
				return vdom.Li(
					vdom.Key(t.id),
					vdom.If(i == 0, vdom.Span(vdom.Class("badge"), "next")),
					vdom.A("data-rank", fmt.Sprint(i)),
					t.title,
				)
			}),
		),
	)
}
