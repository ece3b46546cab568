package newsdesk

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"
)

// UnknownByline is stored when no extraction rule yields an acceptable
// author.
const UnknownByline = "Unknown"

// DateLayout is the persisted date_str format. Lexicographic order of values
// in this layout equals chronological order.
const DateLayout = "2006-01-02 15:04"

// DayLayout is the calendar-day prefix of DateLayout.
const DayLayout = "2006-01-02"

// SourceZone is the wall-clock zone the listing labels are written in.
// Taiwan has not observed daylight saving since 1979.
var SourceZone = time.FixedZone("CST", 8*60*60)

// ArticleStub is one entry harvested from a listing view.
type ArticleStub struct {
	PublishedAt time.Time `json:"published_at"`
	Category    string    `json:"category"`
	Title       string    `json:"title"`
	Address     string    `json:"address"`
}

// Article is a stub plus the fields recovered from its page.
type Article struct {
	ArticleStub
	Body     string   `json:"body"`
	Byline   string   `json:"byline"`
	Keywords Keywords `json:"keywords"`
}

// Identity returns the storage key of the article.
func (a Article) Identity() string {
	return Identity(a.Address)
}

// Record converts the article into its persisted shape.
func (a Article) Record() Record {
	byline := a.Byline
	if byline == "" {
		byline = UnknownByline
	}
	keywords := a.Keywords
	if keywords == nil {
		keywords = Keywords{}
	}
	return Record{
		Title:    a.Title,
		Body:     a.Body,
		DateStr:  FormatDate(a.PublishedAt),
		Category: a.Category,
		Byline:   byline,
		Address:  a.Address,
		Keywords: keywords,
	}
}

// Record is the persisted shape shared by the live store, the archive and
// the cleaned dataset.
type Record struct {
	Title    string   `json:"title" firestore:"title"`
	Body     string   `json:"body" firestore:"body"`
	DateStr  string   `json:"date_str" firestore:"date_str"`
	Category string   `json:"category" firestore:"category"`
	Byline   string   `json:"byline" firestore:"byline"`
	Address  string   `json:"address" firestore:"address"`
	Keywords Keywords `json:"keywords" firestore:"keywords"`
}

// Identity returns the storage key of the record.
func (r Record) Identity() string {
	return Identity(r.Address)
}

// Day returns the calendar-day prefix of DateStr, or "" when DateStr is
// shorter than a day.
func (r Record) Day() string {
	if len(r.DateStr) < len(DayLayout) {
		return ""
	}
	return r.DateStr[:len(DayLayout)]
}

// NormalizeAddress trims surrounding whitespace and any fragment from an
// article address.
func NormalizeAddress(address string) string {
	address = strings.TrimSpace(address)
	if i := strings.IndexByte(address, '#'); i >= 0 {
		address = address[:i]
	}
	return address
}

// Identity is the hex MD5 digest of the normalized address. The same address
// always yields the same identity.
func Identity(address string) string {
	sum := md5.Sum([]byte(NormalizeAddress(address)))
	return hex.EncodeToString(sum[:])
}

// FormatDate renders t in SourceZone using DateLayout.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(SourceZone).Format(DateLayout)
}

// ParseDate parses a DateLayout value in SourceZone.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), SourceZone)
}

// NormalizeDateStr rewrites a listing-style label such as "2025/12/15 12:30"
// into DateLayout form. Values already in DateLayout are returned trimmed.
func NormalizeDateStr(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "/", "-")
}

// LabelDay returns the YYYY-MM-DD day of a date label in either separator
// style, or "" when the label is too short.
func LabelDay(label string) string {
	label = NormalizeDateStr(label)
	if len(label) < len(DayLayout) {
		return ""
	}
	return label[:len(DayLayout)]
}

// SameDay reports whether a and b fall on the same calendar day in
// SourceZone.
func SameDay(a, b time.Time) bool {
	return a.In(SourceZone).Format(DayLayout) == b.In(SourceZone).Format(DayLayout)
}
