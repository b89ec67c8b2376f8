package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fluxcd/converge/pkg/document"
)

func makeExample(examples ...string) string {
	var buf bytes.Buffer
	for _, ex := range examples {
		fmt.Fprintf(&buf, "  %s\n", ex)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// loadDocument reads a JSON or YAML document; "-" reads stdin.
func loadDocument(path string) (document.Value, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return document.Value{}, err
	}
	return document.ParseYAML(data)
}
