//go:build cgo

package scipindex

import (
	"context"
	"testing"

	"apidiff/internal/javaparse"
	"apidiff/internal/symbols"
)

func TestRenderedSourceParses(t *testing.T) {
	src, _ := Render(clientDocument())
	f, err := javaparse.NewParser().Parse(context.Background(), "Client.java", src)
	if err != nil {
		t.Fatalf("Parse() error = %v\n%s", err, src)
	}

	table := symbols.NewTable("index")
	symbols.Extract(table, f, symbols.ExtractOptions{})

	c, ok := table.Class("com.acme.Client")
	if !ok {
		t.Fatalf("class missing, have %v", table.FQNs())
	}
	send := c.MethodsBySignature["com.acme.Client#send(Request)"]
	if send == nil || !send.Deprecated {
		t.Errorf("send = %+v, want deprecated method", send)
	}
	if _, ok := c.MethodsBySignature["com.acme.Client#Client(String)"]; !ok {
		t.Errorf("constructor missing, have %v", c.Signatures())
	}
	mode, ok := table.Class("com.acme.Client.Mode")
	if !ok {
		t.Fatal("nested enum missing")
	}
	if f := mode.Fields["FAST"]; f == nil || f.Type != "Mode" {
		t.Errorf("enum constant = %+v", f)
	}
}
