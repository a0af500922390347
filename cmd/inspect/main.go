package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/portmux/ipcwire"
	"github.com/portmux/ipcwire/codec"
	"github.com/portmux/ipcwire/handletab"
)

func main() {
	var (
		inFile      = flag.String("in", "", "Path to message bytes (- for stdin)")
		schemaName  = flag.String("schema", "", "Built-in schema name (see -list)")
		handleCount = flag.Int("handles", -1, "Handle count accompanying the message (default: schema's usual count)")
		hexIn       = flag.Bool("hex", false, "Input is hex text rather than raw bytes")
		encodeDir   = flag.Bool("encode", false, "Encode in-memory form instead of decoding wire form")
		list        = flag.Bool("list", false, "List built-in schemas and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *list {
		listSchemas()
		return
	}

	if *interactive {
		if err := runInteractive(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *inFile == "" || *schemaName == "" {
		fmt.Fprintln(os.Stderr, "Usage: inspect -in <file> -schema <name> [-handles n] [-hex] [-encode]")
		fmt.Fprintln(os.Stderr, "       inspect -list")
		fmt.Fprintln(os.Stderr, "       inspect -i  (interactive mode)")
		os.Exit(1)
	}

	if err := run(*inFile, *schemaName, *handleCount, *hexIn, *encodeDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func listSchemas() {
	fmt.Println("Built-in schemas:")
	for _, ds := range demoSchemas() {
		fmt.Printf("  %-12s %s\n", ds.name, ds.desc)
		fmt.Printf("               %s\n", ds.typ)
	}
}

func run(inFile, schemaName string, handleCount int, hexIn, encodeDir bool) error {
	ds, ok := findSchema(schemaName)
	if !ok {
		return fmt.Errorf("unknown schema %q (see -list)", schemaName)
	}
	if handleCount < 0 {
		handleCount = ds.handles
	}

	data, err := readInput(inFile, hexIn)
	if err != nil {
		return err
	}

	fmt.Printf("Schema: %s  %s\n", ds.name, ds.typ)
	fmt.Printf("Input: %d bytes, %d handles\n\n", len(data), handleCount)

	tab := handletab.New()
	if encodeDir {
		return encodeDump(tab, ds, data, handleCount)
	}
	return decodeDump(tab, ds, data, handleCount)
}

func decodeDump(tab *handletab.Table, ds demoSchema, data []byte, handleCount int) error {
	handles := make([]ipcwire.Handle, handleCount)
	for i := range handles {
		handles[i] = tab.Create(fmt.Sprintf("handle-%d", i))
	}

	dec := codec.NewDecoder(codec.WithDisposer(tab))
	if err := dec.Decode(ds.typ, data, handles); err != nil {
		fmt.Printf("Rejected: %v\n", err)
		fmt.Printf("All %d handles were closed.\n", handleCount)
		return nil
	}

	fmt.Println("Decoded in-memory form (sentinels rewritten to offsets):")
	fmt.Print(hex.Dump(data))
	if handleCount > 0 {
		fmt.Printf("\nHandles claimed into slots: %v\n", handles)
	}
	return nil
}

func encodeDump(tab *handletab.Table, ds demoSchema, data []byte, handleCount int) error {
	// In-memory handle slots hold synthetic handle values; issue enough of
	// them that whatever the slots name exists in the table.
	for i := 0; i < handleCount; i++ {
		tab.Create(fmt.Sprintf("handle-%d", i))
	}
	out := make([]ipcwire.Handle, handleCount)

	enc := codec.NewEncoder(codec.WithDisposer(tab))
	actual, err := enc.Encode(ds.typ, data, out)
	if err != nil {
		fmt.Printf("Rejected: %v\n", err)
		return nil
	}

	fmt.Println("Encoded wire form (offsets rewritten to sentinels):")
	fmt.Print(hex.Dump(data))
	fmt.Printf("\nHandles moved out: %v\n", out[:actual])
	return nil
}

func readInput(inFile string, hexIn bool) ([]byte, error) {
	var data []byte
	var err error
	if inFile == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(inFile)
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	if hexIn {
		return decodeHexText(string(data))
	}
	return data, nil
}

func decodeHexText(s string) ([]byte, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
	data, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("decode hex input: %w", err)
	}
	return data, nil
}
