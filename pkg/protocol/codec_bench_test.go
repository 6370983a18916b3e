package protocol

import (
	"fmt"
	"testing"

	"github.com/humus-dev/humus/pkg/vdom"
)

func benchScript(n int) vdom.EditScript {
	items := make([]*vdom.VNode, n)
	for i := range items {
		items[i] = vdom.Li(vdom.Key(fmt.Sprint(i)), vdom.Class("item"), vdom.Textf("Item %d", i))
	}
	return vdom.Diff(nil, vdom.Ul(items))
}

func BenchmarkEncodeScript(b *testing.B) {
	sf := &ScriptFrame{Seq: 1, Patches: benchScript(1000)}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := EncodeScript(sf); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecodeScript(b *testing.B) {
	payload, err := EncodeScript(&ScriptFrame{Seq: 1, Patches: benchScript(1000)})
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(payload)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := DecodeScript(payload); err != nil {
			b.Fatal(err)
		}
	}
}
