package core

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Keywords lists, per target field, the substrings that identify a column.
type Keywords struct {
	Name        []string `yaml:"name"`
	Phone       []string `yaml:"phone"`
	Date        []string `yaml:"date"`
	Description []string `yaml:"description"`
}

// DefaultKeywords is the keyword set used when no override file is configured.
var DefaultKeywords = Keywords{
	Name:        []string{"name", "client", "customer", "person", "beneficiary"},
	Phone:       []string{"phone", "mobile", "cell", "tel", "contact"},
	Date:        []string{"date", "day", "time", "dob"},
	Description: []string{"note", "desc", "address", "remark", "location"},
}

// LoadKeywords reads a YAML keyword file. Fields missing from the file keep
// their defaults. An empty path returns DefaultKeywords.
//
//	name: [name, client, patient]
//	phone: [phone, mobile, whatsapp]
func LoadKeywords(path string) (Keywords, error) {
	if path == "" {
		return DefaultKeywords, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Keywords{}, fmt.Errorf("read keywords file: %w", err)
	}

	var kw Keywords
	if err := yaml.Unmarshal(raw, &kw); err != nil {
		return Keywords{}, fmt.Errorf("parse keywords file %s: %w", path, err)
	}

	if len(kw.Name) == 0 {
		kw.Name = DefaultKeywords.Name
	}
	if len(kw.Phone) == 0 {
		kw.Phone = DefaultKeywords.Phone
	}
	if len(kw.Date) == 0 {
		kw.Date = DefaultKeywords.Date
	}
	if len(kw.Description) == 0 {
		kw.Description = DefaultKeywords.Description
	}
	return kw, nil
}

// MappingSource says where a suggested mapping came from.
type MappingSource string

const (
	SourceHeuristic  MappingSource = "heuristic"
	SourceRemembered MappingSource = "remembered"
)

// Analysis is the header list and the mapping proposed for it.
type Analysis struct {
	Headers   []string      `json:"headers"`
	Suggested FieldMapping  `json:"suggested"`
	Source    MappingSource `json:"source"`
}

// AnalyzeHeaders proposes a heuristic mapping for headers.
func AnalyzeHeaders(headers []string, kw Keywords) (Analysis, error) {
	if len(headers) == 0 {
		return Analysis{}, ErrNoColumns
	}
	return Analysis{
		Headers:   headers,
		Suggested: GuessMapping(headers, kw),
		Source:    SourceHeuristic,
	}, nil
}

// GuessMapping picks, for each field, the first header in column order that
// contains one of the field's keywords (case-insensitive). Name falls back to
// the first header and phone to the second; date and description stay empty.
func GuessMapping(headers []string, kw Keywords) FieldMapping {
	m := FieldMapping{
		NameKey:        findHeader(headers, kw.Name),
		PhoneKey:       findHeader(headers, kw.Phone),
		DateKey:        findHeader(headers, kw.Date),
		DescriptionKey: findHeader(headers, kw.Description),
	}
	if m.NameKey == "" && len(headers) > 0 {
		m.NameKey = headers[0]
	}
	if m.PhoneKey == "" && len(headers) > 1 {
		m.PhoneKey = headers[1]
	}
	return m
}

func findHeader(headers, keywords []string) string {
	for _, h := range headers {
		lower := strings.ToLower(h)
		for _, k := range keywords {
			if strings.Contains(lower, strings.ToLower(k)) {
				return h
			}
		}
	}
	return ""
}

// Validate checks that name and phone are set and that every set key is
// one of headers.
func (m FieldMapping) Validate(headers []string) error {
	if m.NameKey == "" {
		return fmt.Errorf("%w: name column is required", ErrInvalidMapping)
	}
	if m.PhoneKey == "" {
		return fmt.Errorf("%w: phone column is required", ErrInvalidMapping)
	}

	known := make(map[string]bool, len(headers))
	for _, h := range headers {
		known[h] = true
	}
	for _, key := range []string{m.NameKey, m.PhoneKey, m.DateKey, m.DescriptionKey} {
		if key != "" && !known[key] {
			return fmt.Errorf("%w: unknown column %q", ErrInvalidMapping, key)
		}
	}
	return nil
}
