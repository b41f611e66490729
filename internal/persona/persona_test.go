package persona

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/plantasking/internal/domain"
)

func TestDefaultCatalogCoversEveryMood(t *testing.T) {
	c := Default()

	for _, m := range []domain.Mood{domain.MoodHappy, domain.MoodSad, domain.MoodSick, domain.MoodUnknown} {
		p := c.ForMood(m)
		assert.NotEmpty(t, p.ID, "mood %s", m)
		assert.NotEmpty(t, p.Greeting(), "mood %s", m)
	}
	assert.Equal(t, "radiante", c.ForMood(domain.MoodHappy).ID)
	assert.Equal(t, "adoentada", c.ForMood(domain.MoodSick).ID)
}

func TestUnknownMoodLeavesPersonaToModel(t *testing.T) {
	p := Default().ForMood(domain.MoodUnknown)
	assert.Equal(t, "", p.Prompt().Name)
	assert.Equal(t, DefaultGreeting, p.Greeting())
}

func TestParseRejectsInvalidCatalogs(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "not yaml list", yaml: "id: x"},
		{name: "missing id", yaml: "- name: Sem id\n  moods: [happy]"},
		{name: "duplicate id", yaml: "- id: a\n- id: a"},
		{name: "mood mapped twice", yaml: "- id: a\n  moods: [sad]\n- id: b\n  moods: [sad]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestForMoodFallsBack(t *testing.T) {
	c, err := Parse([]byte("- id: so-feliz\n  name: Feliz\n  moods: [happy]"))
	require.NoError(t, err)

	p := c.ForMood(domain.MoodSick)
	assert.Equal(t, "default", p.ID)
	assert.Equal(t, DefaultGreeting, p.Greeting())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "personas.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- id: zen\n  name: Planta zen\n  opening_line: Respire.\n  moods: [happy, sad]"), 0600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "zen", c.ForMood(domain.MoodSad).ID)
	assert.Equal(t, "Respire.", c.ForMood(domain.MoodHappy).Greeting())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
