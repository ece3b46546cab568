package newsdesk

import (
	"fmt"
	"strings"
)

// Record field names.
const (
	FieldTitle    = "title"
	FieldBody     = "body"
	FieldDateStr  = "date_str"
	FieldCategory = "category"
	FieldByline   = "byline"
	FieldAddress  = "address"
	FieldKeywords = "keywords"
)

// RecordFields is the column order of tabular record files.
var RecordFields = []string{
	FieldTitle, FieldBody, FieldDateStr, FieldCategory, FieldByline, FieldAddress, FieldKeywords,
}

// fieldAliases maps legacy column names onto record fields.
var fieldAliases = map[string]string{
	"content":  FieldBody,
	"reporter": FieldByline,
	"author":   FieldByline,
	"link":     FieldAddress,
	"url":      FieldAddress,
}

// CanonicalField returns the record field a column name refers to, or ""
// when the column is unknown.
func CanonicalField(name string) string {
	name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
	if alias, ok := fieldAliases[name]; ok {
		return alias
	}
	for _, field := range RecordFields {
		if field == name {
			return name
		}
	}
	return ""
}

// RecordFromFields builds a record from loosely typed document fields,
// accepting legacy field names. Keywords may be a list or any textual form
// ParseKeywords accepts.
func RecordFromFields(fields map[string]any) Record {
	var r Record
	for name, value := range fields {
		field := CanonicalField(name)
		if field == "" || value == nil {
			continue
		}
		if field == FieldKeywords {
			r.Keywords = keywordsFromValue(value)
			continue
		}
		r.Set(field, fmt.Sprint(value))
	}
	if r.Keywords == nil {
		r.Keywords = Keywords{}
	}
	r.DateStr = NormalizeDateStr(r.DateStr)
	return r
}

// Set assigns a textual value to the named field.
func (r *Record) Set(field, value string) {
	switch field {
	case FieldTitle:
		r.Title = value
	case FieldBody:
		r.Body = value
	case FieldDateStr:
		r.DateStr = value
	case FieldCategory:
		r.Category = value
	case FieldByline:
		r.Byline = value
	case FieldAddress:
		r.Address = value
	case FieldKeywords:
		r.Keywords = ParseKeywords(value)
	}
}

// Get returns the textual value of the named field.
func (r Record) Get(field string) string {
	switch field {
	case FieldTitle:
		return r.Title
	case FieldBody:
		return r.Body
	case FieldDateStr:
		return r.DateStr
	case FieldCategory:
		return r.Category
	case FieldByline:
		return r.Byline
	case FieldAddress:
		return r.Address
	case FieldKeywords:
		return r.Keywords.String()
	}
	return ""
}

// Fields returns the record as document fields.
func (r Record) Fields() map[string]any {
	keywords := []string(r.Keywords)
	if keywords == nil {
		keywords = []string{}
	}
	return map[string]any{
		FieldTitle:    r.Title,
		FieldBody:     r.Body,
		FieldDateStr:  r.DateStr,
		FieldCategory: r.Category,
		FieldByline:   r.Byline,
		FieldAddress:  r.Address,
		FieldKeywords: keywords,
	}
}

func keywordsFromValue(value any) Keywords {
	switch v := value.(type) {
	case []string:
		return Keywords(append([]string{}, v...))
	case []any:
		terms := make(Keywords, 0, len(v))
		for _, item := range v {
			if item != nil {
				terms = append(terms, fmt.Sprint(item))
			}
		}
		return terms
	case string:
		return ParseKeywords(v)
	default:
		return ParseKeywords(fmt.Sprint(v))
	}
}
