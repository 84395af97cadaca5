// Package doctype enumerates the document types the index distinguishes for
// thread supersession and recency decay.
package doctype

import "fmt"

// Type classifies an ingested document.
type Type string

const (
	// Conversational marks thread-bearing documents (emails, chat messages).
	Conversational Type = "conversational"
	// Reference marks evergreen material (contracts, specs, attachments).
	Reference Type = "reference"
	// Other marks documents with no special handling.
	Other Type = "other"
)

// Parse validates a document type string. Empty input defaults to Other.
func Parse(s string) (Type, error) {
	switch Type(s) {
	case Conversational, Reference, Other:
		return Type(s), nil
	case "":
		return Other, nil
	default:
		return "", fmt.Errorf("unknown document type %q", s)
	}
}

// String returns the wire representation.
func (t Type) String() string { return string(t) }

// IsConversational reports whether documents of this type participate in
// thread supersession.
func (t Type) IsConversational() bool { return t == Conversational }
