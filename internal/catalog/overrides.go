package catalog

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Tag marks a clinical focus of a card
type Tag string

const (
	TagSafety        Tag = "safety"
	TagAttention     Tag = "attention"
	TagCommunication Tag = "communication"
)

func (t Tag) Valid() bool {
	switch t {
	case TagSafety, TagAttention, TagCommunication:
		return true
	}
	return false
}

// Override is curated content replacing or backfilling a card's source fields
type Override struct {
	Clues  []string `yaml:"clues"`
	Action string   `yaml:"action"`
	Phrase string   `yaml:"phrase"`
	Tags   []Tag    `yaml:"tags"`
}

// Overrides maps card id to curated content. The zero value is an empty table.
type Overrides map[int]Override

// LoadOverrides reads the override table from a YAML document keyed by card id.
// An empty path yields an empty table.
func LoadOverrides(path string) (Overrides, error) {
	if path == "" {
		return Overrides{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	var doc Overrides
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("failed to parse overrides: %w", err)}
	}
	if doc == nil {
		doc = Overrides{}
	}

	for id, o := range doc {
		for _, tag := range o.Tags {
			if !tag.Valid() {
				return nil, &LoadError{Path: path, Err: fmt.Errorf("card %d: unknown tag %q", id, tag)}
			}
		}
		o.Clues = compact(o.Clues)
		doc[id] = o
	}
	return doc, nil
}

// Apply returns a copy of card with any override fields taking priority.
// The copy shares no slices with card.
func (o Overrides) Apply(card Card) Card {
	card.KeyClues = slices.Clone(card.KeyClues)
	card.Tags = slices.Clone(card.Tags)
	ov, ok := o[card.ID]
	if !ok {
		return card
	}
	if len(ov.Clues) > 0 {
		card.KeyClues = slices.Clone(ov.Clues)
	}
	if ov.Action != "" {
		card.TargetAction = ov.Action
	}
	if ov.Phrase != "" {
		card.TargetPhrase = ov.Phrase
	}
	if len(ov.Tags) > 0 {
		card.Tags = slices.Clone(ov.Tags)
	}
	return card
}
