package siwe

import (
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

// Canonical fixture from the EIP-4361 reference corpus.
const canonicalMessage = "service.invalid wants you to sign in with your Ethereum account:\n" +
	"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2\n" +
	"\n" +
	"I accept the ServiceOrg Terms of Service: https://service.invalid/tos\n" +
	"\n" +
	"URI: https://service.invalid/login\n" +
	"Version: 1\n" +
	"Chain ID: 1\n" +
	"Nonce: 32891756\n" +
	"Issued At: 2021-09-30T16:25:24.345Z\n" +
	"Expiration Time: 2021-09-29T15:25:24.234Z\n" +
	"Not Before: 2021-10-28T14:25:24.123Z\n" +
	"Request ID: random-request-id_STRING!@$%%&\n" +
	"Resources:\n" +
	"- ipfs://bafybeiemxf5abjwjbikoz4mc3a3dla6ual3jsgpdr4cjr3oz3evfyavhwq/\n" +
	"- https://example.com/my-web2-claim.json"

const requiredOnlyMessage = "service.invalid wants you to sign in with your Ethereum account:\n" +
	"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2\n" +
	"\n" +
	"URI: https://service.invalid/login\n" +
	"Version: 1\n" +
	"Chain ID: 1\n" +
	"Nonce: 32891756\n" +
	"Issued At: 2021-09-30T16:25:24.345Z"

// removeLines drops every line of msg that starts with prefix.
func removeLines(msg, prefix string) string {
	var kept []string
	for _, line := range strings.Split(msg, "\n") {
		if strings.HasPrefix(line, prefix) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// replaceLine swaps the line starting with prefix for replacement.
func replaceLine(msg, prefix, replacement string) string {
	lines := strings.Split(msg, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, prefix) {
			lines[i] = replacement
		}
	}
	return strings.Join(lines, "\n")
}

func TestIsEIP4361(t *testing.T) {
	examples := []struct {
		text string
		want bool
	}{
		{canonicalMessage, true},
		{requiredOnlyMessage, true},
		// Recognition is driven by the preamble line alone.
		{"service.invalid wants you to sign in with your Ethereum account:", true},
		{removeLines(canonicalMessage, "0x"), true},
		{"", false},
		{"\n\n\n", false},
		{"service.invalid wants you to sign in with your Ethereum account\n0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", false},
		{" wants you to sign in with your Ethereum account:\n0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", false},
		{"just some text", false},
	}
	for i, ex := range examples {
		if got := IsEIP4361(ex.text); got != ex.want {
			t.Errorf("example %d: IsEIP4361 = %v, want %v", i, got, ex.want)
		}
	}
}

func TestValidateCanonical(t *testing.T) {
	resp := Validate(canonicalMessage)

	require.True(t, resp.IsEIP4361())
	require.True(t, resp.IsValid())
	require.Equal(t, OutcomeValid, resp.Outcome)
	require.NotNil(t, resp.Message)

	m := resp.Message
	require.Equal(t, "service.invalid", m.Domain())
	require.Equal(t, common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), m.Address())
	require.Equal(t, "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", m.AddressHex())
	require.NotNil(t, m.Statement())
	require.Equal(t, "I accept the ServiceOrg Terms of Service: https://service.invalid/tos", *m.Statement())
	uri := m.URI()
	require.Equal(t, "https://service.invalid/login", uri.String())
	require.Equal(t, 1, m.Version())
	require.Equal(t, 1, m.ChainID())
	require.Equal(t, "32891756", m.Nonce())
	require.True(t, m.IssuedAt().Equal(time.Date(2021, time.September, 30, 16, 25, 24, 345000000, time.UTC)))
	require.NotNil(t, m.ExpirationTime())
	require.True(t, m.ExpirationTime().Equal(time.Date(2021, time.September, 29, 15, 25, 24, 234000000, time.UTC)))
	require.NotNil(t, m.NotBefore())
	require.True(t, m.NotBefore().Equal(time.Date(2021, time.October, 28, 14, 25, 24, 123000000, time.UTC)))
	require.NotNil(t, m.RequestID())
	require.Equal(t, "random-request-id_STRING!@$%%&", *m.RequestID())

	resources := m.Resources()
	require.Len(t, resources, 2)
	require.Equal(t, "ipfs://bafybeiemxf5abjwjbikoz4mc3a3dla6ual3jsgpdr4cjr3oz3evfyavhwq/", resources[0].String())
	require.Equal(t, "https://example.com/my-web2-claim.json", resources[1].String())

	require.Equal(t, canonicalMessage, m.String())
}

func TestValidateRequiredOnly(t *testing.T) {
	resp := Validate(requiredOnlyMessage)

	require.True(t, resp.IsEIP4361())
	require.True(t, resp.IsValid())
	require.NotNil(t, resp.Message)

	for _, f := range []Field{FieldStatement, FieldExpirationTime, FieldNotBefore, FieldRequestID, FieldResources} {
		_, present := resp.ParsedFields[f]
		require.False(t, present, "optional field %s should be absent", f)
	}

	m := resp.Message
	require.Nil(t, m.Statement())
	require.Nil(t, m.ExpirationTime())
	require.Nil(t, m.NotBefore())
	require.Nil(t, m.RequestID())
	require.Nil(t, m.Resources())
}

func TestRequiredFieldOmission(t *testing.T) {
	examples := []struct {
		name   string
		prefix string
		field  Field
	}{
		{"address", "0x", FieldAddress},
		{"uri", "URI: ", FieldURI},
		{"version", "Version: ", FieldVersion},
		{"chainId", "Chain ID: ", FieldChainID},
		{"nonce", "Nonce: ", FieldNonce},
		{"issuedAt", "Issued At: ", FieldIssuedAt},
	}

	for _, ex := range examples {
		t.Run(ex.name, func(t *testing.T) {
			resp := Validate(removeLines(canonicalMessage, ex.prefix))

			require.True(t, resp.IsEIP4361())
			require.False(t, resp.IsValid())
			require.Nil(t, resp.Message)

			_, present := resp.ParsedFields[ex.field]
			require.False(t, present)
		})
	}
}

func TestVersionEnforcement(t *testing.T) {
	resp := Validate(replaceLine(canonicalMessage, "Version: ", "Version: 123"))

	require.True(t, resp.IsEIP4361())
	require.False(t, resp.IsValid())
	require.Nil(t, resp.Message)

	// The literal survives even though the value is semantically rejected.
	require.Equal(t, "123", resp.ParsedFields[FieldVersion])
	require.Equal(t, "123", resp.Captured[FieldVersion])
}

func TestVersionNotNumeric(t *testing.T) {
	resp := Validate(replaceLine(canonicalMessage, "Version: ", "Version: one"))

	require.False(t, resp.IsValid())
	_, present := resp.ParsedFields[FieldVersion]
	require.False(t, present)
	require.Equal(t, "one", resp.Captured[FieldVersion])
}

func TestMalformedAddressChecksum(t *testing.T) {
	// Mixed-case address with a broken EIP-55 checksum: still shaped like an
	// address, so the shape is recognized and the raw value captured, but
	// typed decoding fails.
	corrupted := replaceLine(canonicalMessage, "0x", "0xc02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	resp := Validate(corrupted)

	require.True(t, resp.IsEIP4361())
	require.False(t, resp.IsValid())
	require.Nil(t, resp.Message)

	_, present := resp.ParsedFields[FieldAddress]
	require.False(t, present)
	require.Equal(t, "0xc02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", resp.Captured[FieldAddress])
}

func TestTruncatedAddressCaptured(t *testing.T) {
	// 39 hex chars: not address-shaped, so typed decoding fails, but the raw
	// second line is still captured rather than silently dropped.
	truncated := replaceLine(requiredOnlyMessage, "0x", "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc")
	resp := Validate(truncated)

	require.True(t, resp.IsEIP4361())
	require.False(t, resp.IsValid())

	_, present := resp.ParsedFields[FieldAddress]
	require.False(t, present)
	require.Equal(t, "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc", resp.Captured[FieldAddress])
}

func TestNonCanonicalLayoutRejected(t *testing.T) {
	// Validity implies render(parse(text)) == text. Layouts the extractor
	// tolerates but the renderer would not reproduce must therefore be
	// judged invalid, with every field still captured for diagnostics.
	examples := []struct {
		name string
		text string
	}{
		{
			"missing blank line after address",
			strings.Replace(requiredOnlyMessage, "\n\nURI:", "\nURI:", 1),
		},
		{
			"unrecognized line between fields",
			strings.Replace(requiredOnlyMessage, "\nIssued At:", "\nhave a nice day\nIssued At:", 1),
		},
		{
			"duplicate key line",
			requiredOnlyMessage + "\nNonce: 99999999",
		},
		{
			"trailing newline",
			requiredOnlyMessage + "\n",
		},
	}

	for _, ex := range examples {
		t.Run(ex.name, func(t *testing.T) {
			resp := Validate(ex.text)

			require.True(t, resp.IsEIP4361())
			require.False(t, resp.IsValid())
			require.Nil(t, resp.Message)
			require.Nil(t, Parse(ex.text))

			// Extraction stayed total: the required fields were all seen.
			require.Equal(t, "32891756", resp.Captured[FieldNonce])
			require.Equal(t, "1", resp.Captured[FieldVersion])
		})
	}
}

func TestAddressCasingForms(t *testing.T) {
	lower := replaceLine(requiredOnlyMessage, "0x", "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2")
	resp := Validate(lower)
	require.True(t, resp.IsValid())
	require.Equal(t, "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2", resp.Message.AddressHex())
	// Round trip keeps the casing exactly as given.
	require.Equal(t, lower, resp.Message.String())

	upper := replaceLine(requiredOnlyMessage, "0x", "0xC02AAA39B223FE8D0A0E5C4F27EAD9083C756CC2")
	require.True(t, Validate(upper).IsValid())
}

func TestPresentButMalformedOptional(t *testing.T) {
	// Optional means "may be absent", not "may be garbage".
	resp := Validate(replaceLine(canonicalMessage, "Expiration Time: ", "Expiration Time: not-a-timestamp"))

	require.True(t, resp.IsEIP4361())
	require.False(t, resp.IsValid())
	require.Nil(t, resp.Message)

	_, present := resp.ParsedFields[FieldExpirationTime]
	require.False(t, present)
	require.Equal(t, "not-a-timestamp", resp.Captured[FieldExpirationTime])
}

func TestPartialResourcesRejected(t *testing.T) {
	resp := Validate(canonicalMessage + "\n- not-a-uri")

	require.True(t, resp.IsEIP4361())
	require.False(t, resp.IsValid())

	_, present := resp.ParsedFields[FieldResources]
	require.False(t, present)
	require.Contains(t, resp.Captured[FieldResources], "not-a-uri")
}

func TestEmptyResourcesBlock(t *testing.T) {
	// A Resources: line with zero elements is present with an empty list.
	resp := Validate(requiredOnlyMessage + "\nResources:")

	require.True(t, resp.IsValid())
	require.NotNil(t, resp.Message.Resources())
	require.Len(t, resp.Message.Resources(), 0)
	require.Equal(t, requiredOnlyMessage+"\nResources:", resp.Message.String())
}

func TestMalformedURI(t *testing.T) {
	resp := Validate(replaceLine(canonicalMessage, "URI: ", "URI: ***"))

	require.False(t, resp.IsValid())
	_, present := resp.ParsedFields[FieldURI]
	require.False(t, present)
	require.Equal(t, "***", resp.Captured[FieldURI])
}

func TestChainID(t *testing.T) {
	resp := Validate(replaceLine(requiredOnlyMessage, "Chain ID: ", "Chain ID: 42161"))
	require.True(t, resp.IsValid())
	require.Equal(t, 42161, resp.Message.ChainID())

	resp = Validate(replaceLine(requiredOnlyMessage, "Chain ID: ", "Chain ID: -5"))
	require.False(t, resp.IsValid())
	_, present := resp.ParsedFields[FieldChainID]
	require.False(t, present)

	resp = Validate(replaceLine(requiredOnlyMessage, "Chain ID: ", "Chain ID: mainnet"))
	require.False(t, resp.IsValid())
}

func TestEmptyNonce(t *testing.T) {
	resp := Validate(replaceLine(requiredOnlyMessage, "Nonce: ", "Nonce: "))

	require.False(t, resp.IsValid())
	_, present := resp.ParsedFields[FieldNonce]
	require.False(t, present)
}

func TestNotRecognized(t *testing.T) {
	for _, text := range []string{"", "hello", "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"} {
		resp := Validate(text)
		require.Equal(t, OutcomeNotRecognized, resp.Outcome)
		require.False(t, resp.IsEIP4361())
		require.False(t, resp.IsValid())
		require.Nil(t, resp.ParsedFields)
		require.Nil(t, resp.Message)
		require.Nil(t, Parse(text))
	}
}

func TestStatementMustNotBeKeyShaped(t *testing.T) {
	// A lone line between address and fields that looks like a Key: Value
	// pair is a field line, not a statement.
	resp := Validate(requiredOnlyMessage)
	_, present := resp.ParsedFields[FieldStatement]
	require.False(t, present)
	require.True(t, resp.IsValid())
}

func TestFieldEnumeration(t *testing.T) {
	fields := Fields()
	require.Len(t, fields, 12)

	required := 0
	for _, f := range fields {
		if f.Required() {
			required++
		}
	}
	require.Equal(t, 7, required)
	require.True(t, FieldDomain.Required())
	require.False(t, FieldStatement.Required())
	require.False(t, FieldResources.Required())
}
