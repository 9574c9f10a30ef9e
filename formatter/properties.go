package formatter

import (
	"strconv"
	"strings"
)

// ParseProperties turns repeated key=value arguments into Properties. Every
// malformed entry is collected so the caller gets one error naming all of them.
func ParseProperties(raw []string) (Properties, error) {
	props := NewProperties()
	var bad []string
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" || v == "" {
			bad = append(bad, kv)
			continue
		}
		props.Set(k, v)
	}
	if len(bad) > 0 {
		return Properties{}, &InvalidPropertyError{Entries: bad}
	}
	return props, nil
}

// Bool parses key as a boolean, returning def when the key is absent.
func (p Properties) Bool(key string, def bool) (bool, error) {
	v, ok := p.vals[key]
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, &PropertyValueError{Key: key, Value: v, Want: "boolean"}
	}
	return b, nil
}

// unescape expands the \n \t \r \\ sequences operators type on a shell.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	r := strings.NewReplacer(`\\`, `\`, `\n`, "\n", `\t`, "\t", `\r`, "\r")
	return r.Replace(s)
}
