package models

import "strings"

const (
	CategoryExplicit = "explicit"

	MaxExternalIDLength = 40
	MaxURLLength        = 1024
)

// Joke is a joke as returned by the Chuck Norris API.
type Joke struct {
	ID         string   `json:"id"`
	URL        string   `json:"url"`
	Value      string   `json:"value"`
	Categories []string `json:"categories"`
	IconURL    string   `json:"icon_url"`
	CreatedAt  string   `json:"created_at"`
	UpdatedAt  string   `json:"updated_at"`
}

func (j Joke) IsExplicit() bool {
	for _, c := range j.Categories {
		if strings.EqualFold(strings.TrimSpace(c), CategoryExplicit) {
			return true
		}
	}
	return false
}

// StoredJoke is a row of the jokes table.
type StoredJoke struct {
	ID         int64  `json:"id"`
	ExternalID string `json:"external_id"`
	URL        string `json:"url"`
	Text       string `json:"text"`
}

// NewStoredJoke maps an API joke onto a row. The URL is cut to its column
// limit; the id is kept whole, callers reject ids that do not fit.
func NewStoredJoke(j Joke) StoredJoke {
	return StoredJoke{
		ExternalID: j.ID,
		URL:        truncate(j.URL, MaxURLLength),
		Text:       j.Value,
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
