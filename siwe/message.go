package siwe

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrExpired     = errors.New("siwe: message has expired")
	ErrNotYetValid = errors.New("siwe: message is not yet valid")
)

// Message is the fully-typed form of a valid SIWE message. It is immutable:
// constructed only by a successful Validate, never mutated afterwards, and
// owned by the caller that requested parsing. The verbatim substrings
// captured during extraction are kept alongside the typed values so that
// String can reproduce the signed bytes exactly.
type Message struct {
	domain     string
	address    common.Address
	addressRaw string

	statement *string

	uri    url.URL
	uriRaw string

	version    int
	versionRaw string

	chainID    int
	chainIDRaw string

	nonce string

	issuedAt    time.Time
	issuedAtRaw string

	expirationTime    *time.Time
	expirationTimeRaw string

	notBefore    *time.Time
	notBeforeRaw string

	requestID *string

	resources    []url.URL
	resourcesRaw []string
	hasResources bool
}

func (m *Message) Domain() string          { return m.domain }
func (m *Message) Address() common.Address { return m.address }

// AddressHex returns the account address exactly as it appeared in the
// message, casing included.
func (m *Message) AddressHex() string { return m.addressRaw }

func (m *Message) Statement() *string {
	if m.statement == nil {
		return nil
	}
	s := *m.statement
	return &s
}

func (m *Message) URI() url.URL { return m.uri }
func (m *Message) Version() int { return m.version }
func (m *Message) ChainID() int { return m.chainID }
func (m *Message) Nonce() string { return m.nonce }

func (m *Message) IssuedAt() time.Time { return m.issuedAt }

func (m *Message) ExpirationTime() *time.Time {
	if m.expirationTime == nil {
		return nil
	}
	t := *m.expirationTime
	return &t
}

func (m *Message) NotBefore() *time.Time {
	if m.notBefore == nil {
		return nil
	}
	t := *m.notBefore
	return &t
}

func (m *Message) RequestID() *string {
	if m.requestID == nil {
		return nil
	}
	s := *m.requestID
	return &s
}

// Resources returns the resource list in file order, or nil when the block
// was absent. A present-but-empty block yields an empty, non-nil slice.
func (m *Message) Resources() []url.URL {
	if !m.hasResources {
		return nil
	}
	out := make([]url.URL, len(m.resources))
	copy(out, m.resources)
	return out
}

// String renders the message back to its canonical text form:
//
//	${domain} wants you to sign in with your Ethereum account:
//	${address}
//
//	${statement}
//
//	URI: ${uri}
//	Version: ${version}
//	Chain ID: ${chainId}
//	Nonce: ${nonce}
//	Issued At: ${issuedAt}
//	Expiration Time: ${expirationTime}
//	Not Before: ${notBefore}
//	Request ID: ${requestId}
//	Resources:
//	- ${resources[0]}
//	- ${resources[1]}
//
// Lines for absent optional fields are omitted together with their blank-line
// separators. Field values are emitted from the captured substrings, so the
// output equals the original input byte-for-byte.
func (m *Message) String() string {
	var sb strings.Builder

	sb.WriteString(m.domain)
	sb.WriteString(headerSuffix)
	sb.WriteString("\n")
	sb.WriteString(m.addressRaw)

	if m.statement != nil {
		sb.WriteString("\n\n")
		sb.WriteString(*m.statement)
	}

	sb.WriteString("\n")

	sb.WriteString("\nURI: ")
	sb.WriteString(m.uriRaw)
	sb.WriteString("\nVersion: ")
	sb.WriteString(m.versionRaw)
	sb.WriteString("\nChain ID: ")
	sb.WriteString(m.chainIDRaw)
	sb.WriteString("\nNonce: ")
	sb.WriteString(m.nonce)
	sb.WriteString("\nIssued At: ")
	sb.WriteString(m.issuedAtRaw)

	if m.expirationTimeRaw != "" {
		sb.WriteString("\nExpiration Time: ")
		sb.WriteString(m.expirationTimeRaw)
	}
	if m.notBeforeRaw != "" {
		sb.WriteString("\nNot Before: ")
		sb.WriteString(m.notBeforeRaw)
	}
	if m.requestID != nil {
		sb.WriteString("\nRequest ID: ")
		sb.WriteString(*m.requestID)
	}
	if m.hasResources {
		sb.WriteString("\n")
		sb.WriteString(resourcesKey)
		for _, r := range m.resourcesRaw {
			sb.WriteString("\n- ")
			sb.WriteString(r)
		}
	}

	return sb.String()
}

// ValidAt checks the message's time window against t. Note that EIP-4361
// places no ordering constraint between Issued At and Expiration Time, so
// only the window bounds are checked.
func (m *Message) ValidAt(t time.Time) error {
	if m.expirationTime != nil && t.After(*m.expirationTime) {
		return ErrExpired
	}
	if m.notBefore != nil && t.Before(*m.notBefore) {
		return ErrNotYetValid
	}
	return nil
}

// ValidNow is ValidAt against the current UTC time.
func (m *Message) ValidNow() error {
	return m.ValidAt(time.Now().UTC())
}
