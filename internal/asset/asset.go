// Package asset defines the opaque byte-blob type served to HTTP clients.
package asset

import "unicode/utf8"

// Asset owns an immutable byte sequence obtained from a page, with an
// optional MIME hint populated by whichever source fetched it. No source in
// this module populates the hint; the dispatcher guesses content type from
// the request path's extension instead.
type Asset struct {
	data     []byte
	mimeHint string
}

// New wraps data as an Asset. data is not copied; callers must not mutate it
// after handing it to New.
func New(data []byte) Asset {
	return Asset{data: data}
}

// NewWithHint wraps data as an Asset carrying an explicit MIME hint.
func NewWithHint(data []byte, mimeHint string) Asset {
	return Asset{data: data, mimeHint: mimeHint}
}

// Bytes returns the asset's raw bytes.
func (a Asset) Bytes() []byte {
	return a.data
}

// MimeHint returns the MIME type hint, if any source populated one.
func (a Asset) MimeHint() (string, bool) {
	if a.mimeHint == "" {
		return "", false
	}
	return a.mimeHint, true
}

// Text returns a UTF-8 view of the asset's bytes, or false if the bytes are
// not valid UTF-8.
func (a Asset) Text() (string, bool) {
	if !utf8.Valid(a.data) {
		return "", false
	}
	return string(a.data), true
}
