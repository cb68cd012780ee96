package nlu

import (
	"regexp"
	"strings"
)

// MinAccountDigits is the number of digits needed to trust a spoken account.
const MinAccountDigits = 4

// AccountMatch is the outcome of account extraction. ID is empty when the
// account was absent or only partially heard.
type AccountMatch struct {
	ID      string
	Partial bool
}

func (m AccountMatch) Found() bool {
	return m.ID != ""
}

var (
	accountTokenRe   = regexp.MustCompile(`[a-z0-9]+`)
	gluedAccountRe   = regexp.MustCompile(`^(?:acc|acct|account)(\d+)$`)
	canonicalAcctRe  = regexp.MustCompile(`^ACC(\d+)$`)
	nonAlphanumeric  = regexp.MustCompile(`[^A-Z0-9]`)
	allDigitsRe      = regexp.MustCompile(`^\d+$`)
	accountFillerSet = map[string]struct{}{"number": {}, "no": {}, "num": {}, "id": {}, "is": {}}
)

// Prefixes are token sequences; longer sequences are tried first.
var accountPrefixes = [][]string{
	{"a", "c", "c"},
	{"account"},
	{"acount"},
	{"akount"},
	{"acct"},
	{"acc"},
}

// Spoken forms that are also common words only count as digits when another
// digit follows them and the id is still shorter than MinAccountDigits.
var homophoneDigits = map[string]struct{}{"to": {}, "too": {}, "for": {}}

// AccountExtractor recovers account identifiers from raw utterances.
type AccountExtractor struct {
	digits map[string]string
}

func NewAccountExtractor(rules RuleSet) *AccountExtractor {
	return &AccountExtractor{digits: rules.SpokenDigits}
}

// Extract scans raw, unnormalized text. The first prefix followed by at
// least four digits wins. A prefix followed by one to three digits marks the
// match partial; a prefix with no digits after it is ignored.
func (e *AccountExtractor) Extract(raw string) AccountMatch {
	tokens := accountTokenRe.FindAllString(strings.ToLower(raw), -1)
	partial := false
	for i := 0; i < len(tokens); i++ {
		var digits strings.Builder
		next := -1
		if m := gluedAccountRe.FindStringSubmatch(tokens[i]); m != nil {
			digits.WriteString(m[1])
			next = i + 1
		} else if n := matchPrefix(tokens, i); n > 0 {
			next = i + n
			for next < len(tokens) {
				if _, ok := accountFillerSet[tokens[next]]; !ok {
					break
				}
				next++
			}
		}
		if next < 0 {
			continue
		}
		e.collectDigits(tokens[next:], &digits)
		if digits.Len() >= MinAccountDigits {
			return AccountMatch{ID: "ACC" + digits.String()}
		}
		if digits.Len() > 0 {
			partial = true
		}
	}
	return AccountMatch{Partial: partial}
}

func (e *AccountExtractor) collectDigits(tail []string, out *strings.Builder) {
	for i, tok := range tail {
		if allDigitsRe.MatchString(tok) {
			out.WriteString(tok)
			continue
		}
		d, ok := e.digits[tok]
		if !ok {
			return
		}
		if _, homophone := homophoneDigits[tok]; homophone {
			if out.Len() >= MinAccountDigits || i+1 >= len(tail) || !e.isDigitToken(tail[i+1]) {
				return
			}
		}
		out.WriteString(d)
	}
}

func (e *AccountExtractor) isDigitToken(tok string) bool {
	if allDigitsRe.MatchString(tok) {
		return true
	}
	_, ok := e.digits[tok]
	return ok
}

func matchPrefix(tokens []string, at int) int {
	for _, prefix := range accountPrefixes {
		if at+len(prefix) > len(tokens) {
			continue
		}
		ok := true
		for j, p := range prefix {
			if tokens[at+j] != p {
				ok = false
				break
			}
		}
		if ok {
			return len(prefix)
		}
	}
	return 0
}

// CanonicalAccountID normalizes an out-of-band account id to ACC<digits>.
// Bare digit strings are accepted and prefixed.
func CanonicalAccountID(raw string) (string, bool) {
	s := nonAlphanumeric.ReplaceAllString(strings.ToUpper(raw), "")
	if s == "" {
		return "", false
	}
	if canonicalAcctRe.MatchString(s) {
		return s, true
	}
	if allDigitsRe.MatchString(s) {
		return "ACC" + s, true
	}
	return "", false
}
