package main

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// lookupEncoding resolves a WHATWG encoding label such as "utf-16le" or
// "windows-1252". An empty name or "utf-8" means no transcoding.
func lookupEncoding(name string) (encoding.Encoding, error) {
	if name == "" {
		return nil, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	if n, _ := htmlindex.Name(enc); n == "utf-8" {
		return nil, nil
	}
	return enc, nil
}
