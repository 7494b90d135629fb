// Package siwe implements parsing and validation of "Sign-In with Ethereum"
// (EIP-4361) messages: the plain-text grammar a wallet signs to authenticate
// a user to a relying-party service.
//
// The parser has a two-tier correctness model. IsEIP4361 answers the cheap
// structural question "is this text even attempting to be a SIWE message?";
// Validate answers the full question "is every required field present and
// every present field well-formed?". Because the signed bytes must never be
// altered, a valid Message re-renders to the exact original text.
//
// REF: https://eips.ethereum.org/EIPS/eip-4361
package siwe

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/relvacode/iso8601"
)

// Outcome is the terminal state of a validation run. Three states instead of
// two independent booleans keep impossible combinations (valid but not
// recognized) unrepresentable.
type Outcome int

const (
	// OutcomeNotRecognized means the text does not have the SIWE preamble
	// shape. Callers should treat the input as "not this message type",
	// not as a malformed SIWE message.
	OutcomeNotRecognized Outcome = iota
	// OutcomeInvalid means the shape was recognized but a required field is
	// missing or a present field failed typed decoding.
	OutcomeInvalid
	// OutcomeValid means every required field decoded and every present
	// field is well-formed.
	OutcomeValid
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInvalid:
		return "invalid"
	case OutcomeValid:
		return "valid"
	default:
		return "not_recognized"
	}
}

// ValidationResponse is the result of a single Validate call. It is created
// once per call and never shared or mutated afterwards.
//
// ParsedFields holds the raw value of every field that decoded successfully
// in the typed sense. A present-but-undecodable field (a corrupted address,
// a malformed timestamp) is absent from ParsedFields; the one exception is
// version, whose raw literal is kept for any syntactically numeric value
// even when it is not the accepted "1". Captured holds every verbatim
// capture, including values that failed decoding, so diagnostics never lose
// what was actually supplied. Resources appear in both maps as their
// elements joined by newlines.
//
// Message is set only when Outcome is OutcomeValid, and never disagrees
// with ParsedFields on any field value.
type ValidationResponse struct {
	Outcome      Outcome
	ParsedFields map[Field]string
	Captured     map[Field]string
	Message      *Message
}

// IsEIP4361 reports whether the input had the structural SIWE shape.
func (r ValidationResponse) IsEIP4361() bool { return r.Outcome != OutcomeNotRecognized }

// IsValid reports whether the input was a fully valid SIWE message.
func (r ValidationResponse) IsValid() bool { return r.Outcome == OutcomeValid }

// Parse returns the typed message for text, or nil unless the text is a
// fully valid SIWE message.
func Parse(text string) *Message {
	return Validate(text).Message
}

// Validate runs the full pipeline over text: structural recognition,
// verbatim field extraction, typed decoding and aggregation. It is pure and
// total; every outcome is reported through the response value and nothing
// is ever thrown.
func Validate(text string) ValidationResponse {
	if !IsEIP4361(text) {
		return ValidationResponse{Outcome: OutcomeNotRecognized}
	}

	raw := extract(text)
	resp := ValidationResponse{
		Outcome:      OutcomeInvalid,
		ParsedFields: make(map[Field]string),
		Captured:     make(map[Field]string),
	}
	msg := &Message{}
	decodedAll := true

	record := func(f Field, value string, decoded bool) {
		resp.Captured[f] = value
		if decoded {
			resp.ParsedFields[f] = value
		} else {
			decodedAll = false
		}
	}

	record(FieldDomain, raw.domain, raw.domain != "")
	msg.domain = raw.domain

	if raw.hasAddress {
		addr, ok := parseAddress(raw.address)
		record(FieldAddress, raw.address, ok)
		if ok {
			msg.address = addr
			msg.addressRaw = raw.address
		}
	}

	if raw.hasStatement {
		record(FieldStatement, raw.statement, true)
		statement := raw.statement
		msg.statement = &statement
	}

	if v, present := raw.keyed[FieldURI]; present {
		u, ok := parseURI(v)
		record(FieldURI, v, ok)
		if ok {
			msg.uri = *u
			msg.uriRaw = v
		}
	}

	version := 0
	if v, present := raw.keyed[FieldVersion]; present {
		n, err := strconv.Atoi(v)
		record(FieldVersion, v, err == nil)
		if err == nil {
			version = n
			msg.version = n
			msg.versionRaw = v
		}
	}

	if v, present := raw.keyed[FieldChainID]; present {
		n, err := strconv.Atoi(v)
		ok := err == nil && n >= 0
		record(FieldChainID, v, ok)
		if ok {
			msg.chainID = n
			msg.chainIDRaw = v
		}
	}

	if v, present := raw.keyed[FieldNonce]; present {
		record(FieldNonce, v, v != "")
		msg.nonce = v
	}

	if v, present := raw.keyed[FieldIssuedAt]; present {
		ts, ok := parseTimestamp(v)
		record(FieldIssuedAt, v, ok)
		if ok {
			msg.issuedAt = ts
			msg.issuedAtRaw = v
		}
	}

	if v, present := raw.keyed[FieldExpirationTime]; present {
		ts, ok := parseTimestamp(v)
		record(FieldExpirationTime, v, ok)
		if ok {
			msg.expirationTime = &ts
			msg.expirationTimeRaw = v
		}
	}

	if v, present := raw.keyed[FieldNotBefore]; present {
		ts, ok := parseTimestamp(v)
		record(FieldNotBefore, v, ok)
		if ok {
			msg.notBefore = &ts
			msg.notBeforeRaw = v
		}
	}

	if v, present := raw.keyed[FieldRequestID]; present {
		record(FieldRequestID, v, true)
		requestID := v
		msg.requestID = &requestID
	}

	if raw.hasResources {
		// A Resources: block with zero elements is present with an empty
		// list, and validates. Partial lists are not accepted: one bad
		// element drops the whole list.
		resources := make([]url.URL, 0, len(raw.resources))
		ok := true
		for _, r := range raw.resources {
			u, elementOK := parseURI(r)
			if !elementOK {
				ok = false
				break
			}
			resources = append(resources, *u)
		}
		record(FieldResources, strings.Join(raw.resources, "\n"), ok)
		if ok {
			msg.resources = resources
			msg.resourcesRaw = raw.resources
			msg.hasResources = true
		}
	}

	requiredOK := true
	for f := range requiredFields {
		if _, present := resp.ParsedFields[f]; !present {
			requiredOK = false
			break
		}
	}

	// The only version the SIWE specification currently defines is 1. Any
	// other numeric value is kept as a raw parse but rejects the message.
	//
	// Validity also implies renderability: String must reproduce the signed
	// bytes exactly, so a message whose layout deviates from the canonical
	// form (missing blank separator, interleaved unrecognized lines,
	// duplicate keys, trailing newline) is invalid even when every field
	// decodes. Extraction stays total either way; only the judgment
	// tightens.
	if decodedAll && requiredOK && version == 1 && msg.String() == text {
		resp.Outcome = OutcomeValid
		resp.Message = msg
	}
	return resp
}

// parseAddress decodes a 0x-prefixed hex account address. Mixed-case input
// must carry a correct EIP-55 checksum; all-lowercase and all-uppercase hex
// are accepted as checksum-agnostic forms.
func parseAddress(raw string) (common.Address, bool) {
	if !addressShape.MatchString(raw) {
		return common.Address{}, false
	}
	hex := raw[2:]
	addr := common.HexToAddress(raw)
	if hex == strings.ToLower(hex) || hex == strings.ToUpper(hex) {
		return addr, true
	}
	return addr, addr.Hex() == raw
}

// parseURI requires an absolute URI with an explicit scheme.
func parseURI(raw string) (*url.URL, bool) {
	u, err := url.ParseRequestURI(raw)
	if err != nil || u.Scheme == "" {
		return nil, false
	}
	return u, true
}

// parseTimestamp accepts ISO-8601 with fractional seconds and a Z or
// numeric-offset suffix.
func parseTimestamp(raw string) (time.Time, bool) {
	ts, err := iso8601.ParseString(raw)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
