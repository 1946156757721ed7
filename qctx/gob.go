package qctx

import (
	"bytes"
	"encoding/gob"
)

// GobEncode lets Context cross a gob boundary (rewritecache's serialized
// plan cache) despite its internal cons-list being built from unexported
// pointers: it flattens to the same []Entry Key/Equal already compute from,
// and GobDecode rebuilds the chain with Push so the decoded Context is
// byte-for-byte equivalent to one built by the original Push calls.
func (c Context) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(c.Entries()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (c *Context) GobDecode(data []byte) error {
	var entries []Entry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entries); err != nil {
		return err
	}
	ctx := Root()
	for _, e := range entries {
		ctx = ctx.Push(e)
	}
	*c = ctx
	return nil
}
