package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DefaultAdultType is shown when a card needs an adult but names none
const DefaultAdultType = "adulto responsável"

// Candidate keys, in priority order, for each card field
var (
	titleKeys      = []string{"title", "nome", "titulo", "name"}
	imageKeys      = []string{"image", "imagem", "img"}
	clueKeys       = []string{"keyClues", "pistas", "clues", "key_clues"}
	actionKeys     = []string{"targetAction", "acaoAlvo", "acao_alvo", "action"}
	phraseKeys     = []string{"targetPhrase", "fraseAlvo", "frase_alvo", "phrase"}
	needsAdultKeys = []string{"needsAdult", "needs_adult", "precisaAdulto"}
	adultTypeKeys  = []string{"adultType", "adult_type", "tipoAdulto"}
)

// Card is a scenario definition as exposed to the workflow and API
type Card struct {
	ID           int      `json:"id"`
	Title        string   `json:"title"`
	Image        string   `json:"image"`
	KeyClues     []string `json:"key_clues"`
	TargetAction string   `json:"target_action"`
	TargetPhrase string   `json:"target_phrase"`
	NeedsAdult   bool     `json:"needs_adult"`
	AdultType    string   `json:"adult_type,omitempty"`
	Tags         []Tag    `json:"tags,omitempty"`
}

// record is one raw card object from the source document
type record map[string]json.RawMessage

// firstString returns the first non-empty trimmed string among keys
func firstString(rec record, keys ...string) string {
	for _, key := range keys {
		raw, ok := rec[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// firstList returns the first non-empty list among keys. A string value is
// split on ";" and "•".
func firstList(rec record, keys ...string) []string {
	for _, key := range keys {
		raw, ok := rec[key]
		if !ok {
			continue
		}
		var items []string
		if err := json.Unmarshal(raw, &items); err == nil {
			if cleaned := compact(items); len(cleaned) > 0 {
				return cleaned
			}
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if cleaned := splitList(s); len(cleaned) > 0 {
				return cleaned
			}
		}
	}
	return nil
}

func firstBool(rec record, keys ...string) bool {
	for _, key := range keys {
		raw, ok := rec[key]
		if !ok {
			continue
		}
		var b bool
		if err := json.Unmarshal(raw, &b); err == nil {
			return b
		}
	}
	return false
}

func splitList(s string) []string {
	return compact(strings.FieldsFunc(s, func(r rune) bool {
		return r == ';' || r == '•'
	}))
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// cardID reads the mandatory integer id. Numeric strings are accepted.
func cardID(rec record) (int, error) {
	raw, ok := rec["id"]
	if !ok {
		return 0, fmt.Errorf("missing id")
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("id is not a number: %s", raw)
		}
		n = json.Number(strings.TrimSpace(s))
	}

	id, err := strconv.Atoi(n.String())
	if err != nil {
		return 0, fmt.Errorf("id %q is not an integer", n.String())
	}
	return id, nil
}

// resolve builds a Card from a raw record using the fallback key lists
func resolve(id int, rec record) Card {
	card := Card{
		ID:           id,
		Title:        firstString(rec, titleKeys...),
		Image:        firstString(rec, imageKeys...),
		KeyClues:     firstList(rec, clueKeys...),
		TargetAction: firstString(rec, actionKeys...),
		TargetPhrase: firstString(rec, phraseKeys...),
		NeedsAdult:   firstBool(rec, needsAdultKeys...),
	}
	if card.Title == "" {
		card.Title = PlaceholderTitle(id)
	}
	if card.NeedsAdult {
		card.AdultType = firstString(rec, adultTypeKeys...)
		if card.AdultType == "" {
			card.AdultType = DefaultAdultType
		}
	}
	return card
}

// PlaceholderTitle is the title given to cards that carry none
func PlaceholderTitle(id int) string {
	return fmt.Sprintf("Carta %d", id)
}
