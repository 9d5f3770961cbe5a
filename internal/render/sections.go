package render

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dgallion1/jobfmt/internal/doctree"
)

// PreambleKey names the untitled preamble section in a SectionMap.
const PreambleKey = "Overview"

// SectionMap maps section titles to their texts and keeps document order,
// including when marshaled to a JSON object.
type SectionMap struct {
	keys   []string
	values map[string][]string
}

// Sections maps each section of doc to its paragraph, heading and bullet
// texts. A repeated title gets a " (n)" suffix so both sections survive.
func Sections(doc *doctree.Document) *SectionMap {
	m := &SectionMap{values: make(map[string][]string)}
	if doc.Empty() {
		return m
	}
	for _, s := range doc.Sections {
		texts := []string{}
		for _, b := range s.Blocks {
			switch b.Kind {
			case doctree.KindParagraph, doctree.KindHeading:
				texts = append(texts, b.Text)
			case doctree.KindBulletList:
				for _, it := range b.Items {
					texts = append(texts, it.Text)
				}
			}
		}
		title := s.Title
		if title == "" {
			title = PreambleKey
		}
		m.set(m.uniqueKey(title), texts)
	}
	return m
}

func (m *SectionMap) uniqueKey(title string) string {
	key := title
	for n := 2; ; n++ {
		if _, exists := m.values[key]; !exists {
			return key
		}
		key = fmt.Sprintf("%s (%d)", title, n)
	}
}

func (m *SectionMap) set(key string, texts []string) {
	if m.values == nil {
		m.values = make(map[string][]string)
	}
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = texts
}

// Keys returns the section keys in document order.
func (m *SectionMap) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Get returns the texts stored under key.
func (m *SectionMap) Get(key string) ([]string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Len is the number of sections.
func (m *SectionMap) Len() int {
	return len(m.keys)
}

// MarshalJSON writes the mapping as a JSON object in document order.
func (m *SectionMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, keeping key order.
func (m *SectionMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("sections: expected object, got %v", tok)
	}
	m.keys = nil
	m.values = make(map[string][]string)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("sections: expected key, got %v", tok)
		}
		var texts []string
		if err := dec.Decode(&texts); err != nil {
			return fmt.Errorf("sections: decode %q: %w", key, err)
		}
		if texts == nil {
			texts = []string{}
		}
		m.set(key, texts)
	}
	_, err = dec.Token()
	return err
}
