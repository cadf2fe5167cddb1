package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON OutputFormat = "json"
	FormatText OutputFormat = "text"
)

// printJSON writes a value as indented JSON to stdout, or exits
func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to marshal JSON: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}

// validFormat checks the --format flag value, or exits
func validFormat(format string) OutputFormat {
	switch OutputFormat(format) {
	case FormatJSON, FormatText:
		return OutputFormat(format)
	default:
		fmt.Fprintf(os.Stderr, "Error: unsupported format %q (json, text)\n", format)
		os.Exit(1)
		return ""
	}
}
