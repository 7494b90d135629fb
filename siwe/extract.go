package siwe

import (
	"regexp"
	"strings"
)

const headerSuffix = " wants you to sign in with your Ethereum account:"

// addressShape matches an Ethereum-address-shaped token. Checksum casing is
// not judged here; a wrongly-cased address is still "shaped like an address"
// and only fails typed decoding.
var addressShape = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// IsEIP4361 reports whether text has the shape of a Sign-In with Ethereum
// message: a first line naming a non-empty domain followed by the fixed
// preamble suffix. It is a cheap recognition check with no side effects;
// field completeness and well-formedness are judged by Validate.
func IsEIP4361(text string) bool {
	line, _, _ := strings.Cut(text, "\n")
	if !strings.HasSuffix(line, headerSuffix) {
		return false
	}
	return strings.TrimSuffix(line, headerSuffix) != ""
}

// rawMessage holds the verbatim substrings captured from a recognized
// message. Capture is lossless: values are kept exactly as written, even
// when they later fail typed decoding. Extraction itself never fails;
// anything unrecognized simply produces an absent field.
type rawMessage struct {
	domain       string
	address      string
	hasAddress   bool
	statement    string
	hasStatement bool
	keyed        map[Field]string
	resources    []string
	hasResources bool
}

func extract(text string) rawMessage {
	lines := strings.Split(text, "\n")
	raw := rawMessage{keyed: make(map[Field]string)}
	raw.domain = strings.TrimSuffix(lines[0], headerSuffix)

	// The second line is the account address. Capture is lossless: any
	// non-blank, non-key line is kept as the address attempt even when it is
	// not address-shaped, so a mangled address still surfaces in
	// diagnostics instead of vanishing.
	next := 1
	if len(lines) > 1 && lines[1] != "" && !isKeyLine(lines[1]) {
		raw.address = lines[1]
		raw.hasAddress = true
		next = 2
	}

	// Statement: exactly one blank line after the address, a single line of
	// free text that is not itself key-shaped, then another blank line (or
	// end of text). Anything else leaves the statement absent.
	if len(lines) > next+1 && lines[next] == "" && lines[next+1] != "" && !isKeyLine(lines[next+1]) {
		if len(lines) == next+2 || lines[next+2] == "" {
			raw.statement = lines[next+1]
			raw.hasStatement = true
			next += 2
		}
	}

	inResources := false
	for _, line := range lines[next:] {
		if inResources {
			if after, ok := strings.CutPrefix(line, "- "); ok {
				raw.resources = append(raw.resources, after)
				continue
			}
			inResources = false
		}
		if line == resourcesKey && !raw.hasResources {
			raw.hasResources = true
			inResources = true
			continue
		}
		for _, kf := range keyedFields {
			if after, ok := strings.CutPrefix(line, kf.prefix); ok {
				// First occurrence wins; duplicates are ignored.
				if _, dup := raw.keyed[kf.field]; !dup {
					raw.keyed[kf.field] = after
				}
				break
			}
		}
	}
	return raw
}

func isKeyLine(line string) bool {
	if line == resourcesKey {
		return true
	}
	for _, kf := range keyedFields {
		if strings.HasPrefix(line, kf.prefix) {
			return true
		}
	}
	return false
}
