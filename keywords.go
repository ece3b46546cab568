package newsdesk

import (
	"encoding/json"
	"errors"
	"strings"
)

var errNotList = errors.New("not a list literal")

// Keywords is the ordered set of topical terms of an article.
//
// In JSON it is a native array. In tabular files it is written as a
// bracketed single-quoted list, for example ['颱風', '停班'].
type Keywords []string

// String renders the textual list form.
func (k Keywords) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, term := range k {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('\'')
		b.WriteString(strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(term))
		b.WriteByte('\'')
	}
	b.WriteByte(']')
	return b.String()
}

// MarshalText implements encoding.TextMarshaler.
func (k Keywords) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Keywords) UnmarshalText(text []byte) error {
	*k = ParseKeywords(string(text))
	return nil
}

// MarshalJSON writes a native array; nil becomes [].
func (k Keywords) MarshalJSON() ([]byte, error) {
	if k == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(k))
}

// UnmarshalJSON accepts a native array, null, or a string holding any of the
// textual forms ParseKeywords understands.
func (k *Keywords) UnmarshalJSON(data []byte) error {
	var terms []string
	if err := json.Unmarshal(data, &terms); err == nil {
		if terms == nil {
			terms = []string{}
		}
		*k = terms
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	*k = ParseKeywords(text)
	return nil
}

// ParseKeywords decodes the textual keyword forms found in tabular files: a
// JSON array, a bracketed list of single- or double-quoted terms, or empty
// text. Any other text is kept whole as a single literal term.
func ParseKeywords(text string) Keywords {
	text = strings.TrimSpace(text)
	if text == "" || text == "[]" {
		return Keywords{}
	}

	if strings.HasPrefix(text, "[") {
		var terms []string
		if err := json.Unmarshal([]byte(text), &terms); err == nil {
			return Keywords(terms)
		}
		if terms, err := parseQuotedList(text); err == nil {
			return Keywords(terms)
		}
	}

	return Keywords{text}
}

// parseQuotedList reads ['a', "b"] style literals.
func parseQuotedList(text string) ([]string, error) {
	runes := []rune(text)
	if len(runes) < 2 || runes[0] != '[' || runes[len(runes)-1] != ']' {
		return nil, errNotList
	}
	runes = runes[1 : len(runes)-1]

	terms := []string{}
	i := 0
	skipSpace := func() {
		for i < len(runes) && (runes[i] == ' ' || runes[i] == '\t' || runes[i] == '\n' || runes[i] == '\r') {
			i++
		}
	}

	for {
		skipSpace()
		if i >= len(runes) {
			return terms, nil
		}

		quote := runes[i]
		if quote != '\'' && quote != '"' {
			return nil, errNotList
		}
		i++

		var b strings.Builder
		closed := false
		for i < len(runes) {
			r := runes[i]
			if r == '\\' && i+1 < len(runes) {
				b.WriteRune(runes[i+1])
				i += 2
				continue
			}
			i++
			if r == quote {
				closed = true
				break
			}
			b.WriteRune(r)
		}
		if !closed {
			return nil, errNotList
		}
		terms = append(terms, b.String())

		skipSpace()
		if i >= len(runes) {
			return terms, nil
		}
		if runes[i] != ',' {
			return nil, errNotList
		}
		i++
	}
}
