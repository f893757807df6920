package transform

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"mercator-hq/rulekit/pkg/rules/template"
)

// builtins maps names to the built-in transform functions.
var builtins = map[string]template.TransformFunc{
	"urlencode":    urlEncode,
	"urldecode":    urlDecode,
	"base64":       base64Encode,
	"base64decode": base64Decode,
	"upper":        upper,
	"lower":        lower,
	"title":        title,
	"trim":         trim,
	"length":       length,
	"sha256":       sha256Hex,
	"md5":          md5Hex,
}

// Names returns the names of all built-in transforms in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register adds the named built-ins to t. With no names every built-in is
// registered. Unknown names are an error and nothing is registered.
func Register(t *template.Transformer, names ...string) error {
	if len(names) == 0 {
		names = Names()
	}
	for _, name := range names {
		if _, ok := builtins[name]; !ok {
			return fmt.Errorf("unknown transform %q", name)
		}
	}
	for _, name := range names {
		t.Register(name, builtins[name])
	}
	return nil
}

// Default returns a Transformer with every built-in registered.
func Default() *template.Transformer {
	t := template.NewTransformer()
	for name, fn := range builtins {
		t.Register(name, fn)
	}
	return t
}

func urlEncode(s string) (string, bool) {
	return url.QueryEscape(s), true
}

func urlDecode(s string) (string, bool) {
	out, err := url.QueryUnescape(s)
	if err != nil {
		return "", false
	}
	return out, true
}

func base64Encode(s string) (string, bool) {
	return base64.StdEncoding.EncodeToString([]byte(s)), true
}

func base64Decode(s string) (string, bool) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", false
	}
	return string(b), true
}

func upper(s string) (string, bool) {
	return cases.Upper(language.Und).String(s), true
}

func lower(s string) (string, bool) {
	return cases.Lower(language.Und).String(s), true
}

func title(s string) (string, bool) {
	return cases.Title(language.Und).String(s), true
}

func trim(s string) (string, bool) {
	return strings.TrimSpace(s), true
}

func length(s string) (string, bool) {
	return strconv.Itoa(utf8.RuneCountInString(s)), true
}

func sha256Hex(s string) (string, bool) {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:]), true
}

func md5Hex(s string) (string, bool) {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:]), true
}
