package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"
)

// Query is a search query derived from a job description.
type Query struct {
	Text     string    `json:"text"`
	Metadata *Metadata `json:"metadata"`
}

// Metadata describes where a query came from.
type Metadata struct {
	URL       string `json:"url,omitempty"`
	Platform  string `json:"platform,omitempty"`
	Timestamp string `json:"timestamp"`
	// Hash is the SHA-256 of the full cleaned description.
	Hash      string `json:"hash"`
	Length    int    `json:"length"`
	Truncated bool   `json:"truncated"`
	Rendered  bool   `json:"rendered,omitempty"`
}

func newQuery(cleaned, url string) *Query {
	text := Truncate(cleaned, MaxQueryLength)
	return &Query{
		Text: text,
		Metadata: &Metadata{
			URL:       url,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Hash:      computeHash(cleaned),
			Length:    utf8.RuneCountInString(cleaned),
			Truncated: text != cleaned,
		},
	}
}

func computeHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// ToJSON marshals Metadata to indented JSON.
func (m *Metadata) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata to JSON: %w", err)
	}
	return data, nil
}
