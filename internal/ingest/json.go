package ingest

import (
	"encoding/json"
	"fmt"
	"io"

	"ratingcore/internal/driver"
)

// jsonStanding mirrors the wire tuple spec.md 6 specifies:
// `[handle, lo, hi]`.
type jsonStanding struct {
	Handle string
	Lo     int
	Hi     int
}

// UnmarshalJSON decodes a `[handle, lo, hi]` triple.
func (s *jsonStanding) UnmarshalJSON(data []byte) error {
	var tuple [3]json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("ingest: decoding standing tuple: %w", err)
	}
	if err := json.Unmarshal(tuple[0], &s.Handle); err != nil {
		return fmt.Errorf("ingest: decoding standing handle: %w", err)
	}
	if err := json.Unmarshal(tuple[1], &s.Lo); err != nil {
		return fmt.Errorf("ingest: decoding standing lo: %w", err)
	}
	return json.Unmarshal(tuple[2], &s.Hi)
}

// jsonContest mirrors spec.md 6's wire shape:
// `{name, url?, weight=1.0, timeSeconds, standings: [[handle, lo, hi], ...]}`.
type jsonContest struct {
	Name        string         `json:"name"`
	URL         string         `json:"url,omitempty"`
	Weight      *float64       `json:"weight,omitempty"`
	TimeSeconds uint64         `json:"timeSeconds"`
	Standings   []jsonStanding `json:"standings"`
}

func (c jsonContest) toDriverContest() driver.Contest {
	weight := 1.0
	if c.Weight != nil {
		weight = *c.Weight
	}
	standings := make([]driver.ContestStanding, len(c.Standings))
	for i, s := range c.Standings {
		standings[i] = driver.ContestStanding{Handle: s.Handle, Lo: s.Lo, Hi: s.Hi}
	}
	return driver.Contest{
		Name:        c.Name,
		URL:         c.URL,
		Weight:      weight,
		TimeSeconds: c.TimeSeconds,
		Standings:   standings,
	}
}

// JSONSource is a Source backed by a JSON array of contests in spec.md
// 6's wire shape, read from an io.Reader once at construction.
type JSONSource struct {
	contests []driver.Contest
}

// NewJSONSource decodes r as a JSON array of contests.
func NewJSONSource(r io.Reader) (*JSONSource, error) {
	var raw []jsonContest
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("ingest: decoding contest log: %w", err)
	}
	contests := make([]driver.Contest, len(raw))
	for i, c := range raw {
		contests[i] = c.toDriverContest()
	}
	return &JSONSource{contests: contests}, nil
}

// Contests implements Source.
func (s *JSONSource) Contests() ([]driver.Contest, error) {
	return s.contests, nil
}
