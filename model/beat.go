package model

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Genres is the fixed set of catalog genres. Related-beat discovery keys on
// these values, so free-form genres are not accepted.
var Genres = []string{
	"Trap",
	"Drill",
	"Boom Bap",
	"Lo-fi",
	"R&B",
	"Afrobeat",
	"House",
	"Pop",
	"Other",
}

// IsValidGenre reports whether g is one of the catalog genres.
func IsValidGenre(g string) bool {
	for _, known := range Genres {
		if g == known {
			return true
		}
	}
	return false
}

// TagList is a set of short descriptive strings stored as a JSON column.
// Order carries no meaning.
type TagList []string

// Scan implements sql.Scanner.
func (t *TagList) Scan(value interface{}) error {
	if value == nil {
		*t = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*t = nil
		return nil
	}
	if len(bytes) == 0 || string(bytes) == "null" {
		*t = nil
		return nil
	}
	return json.Unmarshal(bytes, t)
}

// Value implements driver.Valuer.
func (t TagList) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil
	}
	return json.Marshal(t)
}

// NormalizeTags lowercases, trims and de-duplicates raw tag input while
// keeping first-seen order for stable storage.
func NormalizeTags(raw []string) TagList {
	seen := make(map[string]struct{}, len(raw))
	out := make(TagList, 0, len(raw))
	for _, tag := range raw {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Beat represents one marketplace catalog entry. ProducerID and CreatedAt
// are immutable after insert.
type Beat struct {
	ID           int64           `json:"id"`
	ProducerID   int64           `json:"producerId"`
	Title        string          `json:"title"`
	AudioPath    string          `json:"-"` // object key of the full audio file, not exposed in API directly
	CoverPath    string          `json:"coverPath,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Genre        string          `json:"genre"`
	BPM          int             `json:"bpm"`
	Description  string          `json:"description,omitempty"`
	Tags         TagList         `json:"tags,omitempty"`
	FreeDownload bool            `json:"freeDownload"`
	PlayCount    int64           `json:"playCount"`
	IsFeatured   bool            `json:"isFeatured"`
	CreatedAt    time.Time       `json:"createdAt"`
}
