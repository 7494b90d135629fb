package siwe

// Field identifies one of the fields defined by EIP-4361. The set is closed:
// every key the grammar recognizes is enumerated here, and nothing else is
// ever reported by the parser.
type Field string

const (
	FieldDomain         Field = "domain"
	FieldAddress        Field = "address"
	FieldStatement      Field = "statement"
	FieldURI            Field = "uri"
	FieldVersion        Field = "version"
	FieldChainID        Field = "chainId"
	FieldNonce          Field = "nonce"
	FieldIssuedAt       Field = "issuedAt"
	FieldExpirationTime Field = "expirationTime"
	FieldNotBefore      Field = "notBefore"
	FieldRequestID      Field = "requestId"
	FieldResources      Field = "resources"
)

// keyedFields maps the "Key: " line prefixes to their fields, in the order
// the canonical layout emits them. The trailing space is part of the prefix:
// a bare "URI:" line carries no value and is not a capture.
var keyedFields = []struct {
	prefix string
	field  Field
}{
	{"URI: ", FieldURI},
	{"Version: ", FieldVersion},
	{"Chain ID: ", FieldChainID},
	{"Nonce: ", FieldNonce},
	{"Issued At: ", FieldIssuedAt},
	{"Expiration Time: ", FieldExpirationTime},
	{"Not Before: ", FieldNotBefore},
	{"Request ID: ", FieldRequestID},
}

// resourcesKey introduces the resource list block; elements follow on "- "
// lines.
const resourcesKey = "Resources:"

var requiredFields = map[Field]bool{
	FieldDomain:   true,
	FieldAddress:  true,
	FieldURI:      true,
	FieldVersion:  true,
	FieldChainID:  true,
	FieldNonce:    true,
	FieldIssuedAt: true,
}

// Required reports whether the field must be present for a message to
// validate. Optional fields may be absent, but when present they must still
// be well-formed.
func (f Field) Required() bool { return requiredFields[f] }

// Fields returns every defined field in canonical layout order.
func Fields() []Field {
	return []Field{
		FieldDomain, FieldAddress, FieldStatement, FieldURI, FieldVersion,
		FieldChainID, FieldNonce, FieldIssuedAt, FieldExpirationTime,
		FieldNotBefore, FieldRequestID, FieldResources,
	}
}
