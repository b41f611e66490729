// Package persona maps an analysed plant mood onto the character the plant
// plays in conversation.
package persona

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/vbonduro/plantasking/internal/domain"
	"github.com/vbonduro/plantasking/internal/prompt"
	"gopkg.in/yaml.v3"
)

//go:embed personas.yaml
var defaultCatalog []byte

// DefaultGreeting opens a conversation when no persona specifies one.
const DefaultGreeting = "Olá! Sobre o que vamos conversar hoje?"

type Persona struct {
	ID          string        `yaml:"id" json:"id"`
	Name        string        `yaml:"name" json:"name,omitempty"`
	Tone        string        `yaml:"tone" json:"tone,omitempty"`
	PromptHint  string        `yaml:"prompt_hint" json:"-"`
	OpeningLine string        `yaml:"opening_line" json:"opening_line"`
	Moods       []domain.Mood `yaml:"moods" json:"-"`
}

// Prompt returns the fields the chat prompt needs. A persona without a name
// lets the model infer one from the image.
func (p Persona) Prompt() prompt.Persona {
	return prompt.Persona{Name: p.Name, Tone: p.Tone, PromptHint: p.PromptHint}
}

func (p Persona) Greeting() string {
	if p.OpeningLine == "" {
		return DefaultGreeting
	}
	return p.OpeningLine
}

type Catalog struct {
	byMood map[domain.Mood]Persona
}

// Parse reads a YAML list of personas.
func Parse(data []byte) (*Catalog, error) {
	var personas []Persona
	if err := yaml.Unmarshal(data, &personas); err != nil {
		return nil, fmt.Errorf("failed to parse personas: %w", err)
	}

	c := &Catalog{byMood: make(map[domain.Mood]Persona)}
	seen := make(map[string]bool)
	for _, p := range personas {
		if p.ID == "" {
			return nil, fmt.Errorf("persona without id")
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate persona id %q", p.ID)
		}
		seen[p.ID] = true
		for _, m := range p.Moods {
			if _, dup := c.byMood[m]; dup {
				return nil, fmt.Errorf("mood %q mapped by more than one persona", m)
			}
			c.byMood[m] = p
		}
	}
	return c, nil
}

// Load reads the catalog from path, or the embedded default when path is
// empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read persona file: %w", err)
	}
	return Parse(data)
}

func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

// ForMood returns the persona for m, falling back to the unknown-mood persona
// and finally to an unnamed one.
func (c *Catalog) ForMood(m domain.Mood) Persona {
	if p, ok := c.byMood[m]; ok {
		return p
	}
	if p, ok := c.byMood[domain.MoodUnknown]; ok {
		return p
	}
	return Persona{ID: "default", OpeningLine: DefaultGreeting}
}
