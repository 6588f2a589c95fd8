// Package ioc classifies raw strings into indicator-of-compromise kinds.
package ioc

import "regexp"

// Kind identifies the type of an indicator of compromise.
type Kind string

const (
	KindIP      Kind = "ip"
	KindDomain  Kind = "domain"
	KindMD5     Kind = "md5"
	KindSHA1    Kind = "sha1"
	KindSHA256  Kind = "sha256"
	KindEmail   Kind = "email"
	KindURL     Kind = "url"
	KindUnknown Kind = "unknown"
)

// Indicator is a raw value with its derived kind. The kind is computed from
// the value by Classify and never stored independently of it.
type Indicator struct {
	Value string `json:"value"`
	Kind  Kind   `json:"kind"`
}

// pattern pairs a kind with its anchored whole-string expression. Patterns
// are evaluated in order and the first match wins. Hash patterns come after
// the domain pattern: a bare hex string has no dot and a letters-only final
// label, so it cannot match domain anyway — the ordering preserves the
// original priority as intent.
type pattern struct {
	kind Kind
	re   *regexp.Regexp
}

var patterns = []pattern{
	{KindIP, regexp.MustCompile(`^(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)$`)},
	{KindDomain, regexp.MustCompile(`^(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}$`)},
	{KindMD5, regexp.MustCompile(`^[a-fA-F0-9]{32}$`)},
	{KindSHA1, regexp.MustCompile(`^[a-fA-F0-9]{40}$`)},
	{KindSHA256, regexp.MustCompile(`^[a-fA-F0-9]{64}$`)},
	{KindEmail, regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)},
	{KindURL, regexp.MustCompile(`^https?://[^\s/$.?#].[^\s]*$`)},
}

// Classify returns the kind of the given raw indicator string.
// Unmatched input is KindUnknown, never an error: unknown indicators are
// still huntable as free-text terms.
func Classify(raw string) Kind {
	for _, p := range patterns {
		if p.re.MatchString(raw) {
			return p.kind
		}
	}
	return KindUnknown
}

// New classifies raw and returns it as an Indicator.
func New(raw string) Indicator {
	return Indicator{Value: raw, Kind: Classify(raw)}
}

// IsHash reports whether k is one of the file-hash kinds.
func (k Kind) IsHash() bool {
	return k == KindMD5 || k == KindSHA1 || k == KindSHA256
}
