package translator

import (
	"fmt"
	"regexp"
	"strings"
)

var identifierRe = regexp.MustCompile(`^[+\-*/<>=a-zA-Z0-9_.]+$`)

// IsIdentifier reports whether an Eva symbol can be used as a name.
func IsIdentifier(sym string) bool {
	return identifierRe.MatchString(sym)
}

// JSName converts an Eva dash-name to camelCase: user-name becomes userName.
// Only a dash followed by a lower case letter is folded.
func JSName(name string) string {
	if !strings.Contains(name, "-") {
		return name
	}

	var sb strings.Builder
	runes := []rune(name)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '-' && i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z' {
			sb.WriteRune(runes[i+1] - 'a' + 'A')
			i++
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// names keeps JSName injective for one compile: the first source name to
// produce a JavaScript name owns it, later ones get a numeric suffix.
type names struct {
	toJS  map[string]string
	owner map[string]string
}

func newNames() *names {
	return &names{
		toJS:  map[string]string{},
		owner: map[string]string{},
	}
}

func (n *names) mangle(src string) string {
	return n.claim(src, JSName(src))
}

// claim binds key to base, or to the first free base_N.
func (n *names) claim(key, base string) string {
	if js, ok := n.toJS[key]; ok {
		return js
	}

	js := base
	for i := 2; ; i++ {
		owner, taken := n.owner[js]
		if !taken || owner == key {
			break
		}
		js = fmt.Sprintf("%s_%d", base, i)
	}

	n.toJS[key] = js
	n.owner[js] = key
	return js
}
