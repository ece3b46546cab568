package newsdesk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCanonicalField verifies legacy column names map onto record fields
func TestCanonicalField(t *testing.T) {
	assert.Equal(t, FieldBody, CanonicalField("content"))
	assert.Equal(t, FieldByline, CanonicalField("reporter"))
	assert.Equal(t, FieldAddress, CanonicalField(" Link "))
	assert.Equal(t, FieldTitle, CanonicalField("\ufefftitle"), "byte order mark is ignored")
	assert.Equal(t, FieldDateStr, CanonicalField("date_str"))
	assert.Equal(t, "", CanonicalField("views"))
}

// TestRecordFromFields verifies loosely typed documents decode
func TestRecordFromFields(t *testing.T) {
	record := RecordFromFields(map[string]any{
		"title":    "颱風來襲",
		"content":  "內文",
		"date_str": "2025/12/01 08:00",
		"category": "生活",
		"reporter": "王小明",
		"link":     "https://www.ettoday.net/news/1.htm",
		"keywords": []any{"颱風", "停班"},
		"extra":    42,
	})

	assert.Equal(t, Record{
		Title:    "颱風來襲",
		Body:     "內文",
		DateStr:  "2025-12-01 08:00",
		Category: "生活",
		Byline:   "王小明",
		Address:  "https://www.ettoday.net/news/1.htm",
		Keywords: Keywords{"颱風", "停班"},
	}, record)
}

// TestRecordFromFields_TextKeywords verifies keyword strings are decoded
func TestRecordFromFields_TextKeywords(t *testing.T) {
	assert.Equal(t, Keywords{"a", "b"}, RecordFromFields(map[string]any{"keywords": "['a', 'b']"}).Keywords)
	assert.Equal(t, Keywords{"單一"}, RecordFromFields(map[string]any{"keywords": "單一"}).Keywords)
	assert.Equal(t, Keywords{}, RecordFromFields(map[string]any{}).Keywords)
}

// TestRecord_FieldsRoundTrip verifies Fields output decodes to the same
// record
func TestRecord_FieldsRoundTrip(t *testing.T) {
	record := Record{
		Title:    "t",
		Body:     "b",
		DateStr:  "2025-12-01 08:00",
		Category: "c",
		Byline:   "王小明",
		Address:  "https://example.com/a",
		Keywords: Keywords{"x"},
	}

	assert.Equal(t, record, RecordFromFields(record.Fields()))
	for _, field := range RecordFields {
		var rebuilt Record
		rebuilt.Set(field, record.Get(field))
		assert.Equal(t, record.Get(field), rebuilt.Get(field), field)
	}
}
