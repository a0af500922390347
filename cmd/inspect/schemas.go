package main

import (
	"github.com/portmux/ipcwire/schema"
)

// demoSchema is a named built-in descriptor for poking at messages without a
// schema compiler on hand.
type demoSchema struct {
	typ     *schema.Type
	name    string
	desc    string
	handles int
}

func demoSchemas() []demoSchema {
	profile := schema.Struct(40,
		schema.At(0, schema.Handle(true)),
		schema.At(8, schema.String(16, false)),
		schema.At(24, schema.Vector(nil, 32, 1, true)),
	)

	byteVector := schema.Struct(16,
		schema.At(0, schema.Vector(nil, 64, 1, false)),
	)

	event := schema.Union(24, 8,
		nil,
		schema.String(32, false),
		schema.Handle(false),
	)
	boxedEvent := schema.Struct(8,
		schema.At(0, schema.UnionPointer(event)),
	)

	handlePair := schema.Struct(8,
		schema.At(0, schema.Handle(false)),
		schema.At(4, schema.Handle(false)),
	)

	chain := schema.Struct(8)
	for i := 0; i < 3; i++ {
		chain = schema.Struct(8, schema.At(0, schema.StructPointer(chain)))
	}

	return []demoSchema{
		{name: "profile", desc: "optional handle, name string, optional payload bytes", typ: profile, handles: 1},
		{name: "byte-vector", desc: "single bounded byte vector", typ: byteVector},
		{name: "boxed-event", desc: "boxed union: empty, message string, or handle", typ: boxedEvent, handles: 1},
		{name: "handle-pair", desc: "two required handles", typ: handlePair, handles: 2},
		{name: "chain4", desc: "four boxed structs nested end to end", typ: chain},
	}
}

func findSchema(name string) (demoSchema, bool) {
	for _, ds := range demoSchemas() {
		if ds.name == name {
			return ds, true
		}
	}
	return demoSchema{}, false
}
