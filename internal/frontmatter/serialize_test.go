package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/docmodel"
)

func TestSerializeYAML_SimpleMenu(t *testing.T) {
	out, err := SerializeYAML(Metadata{
		Title:  "Intro",
		Weight: 10,
		Menus:  []docmodel.MenuRef{docmodel.Simple("docs_intro")},
		Extra:  map[string]any{"draft": true},
	}, Style{})
	require.NoError(t, err)
	assert.Equal(t, "title: Intro\nweight: 10\nmenu: docs_intro\ndraft: true\n", string(out))
}

func TestSerializeYAML_NamedMenuParsesBack(t *testing.T) {
	meta := Metadata{
		Title: "Application State",
		Menus: []docmodel.MenuRef{docmodel.Named("docs_basics", "State")},
	}
	out, err := SerializeYAML(meta, Style{Newline: "\n"})
	require.NoError(t, err)

	doc := Join(out, []byte("body\n"), FormatYAML, Style{Newline: "\n"})
	parsed, body, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, "Application State", parsed.Title)
	assert.Equal(t, meta.Menus, parsed.Menus)
	assert.Equal(t, []byte("body\n"), body)
}

func TestSerializeYAML_Empty(t *testing.T) {
	out, err := SerializeYAML(Metadata{}, Style{})
	require.NoError(t, err)
	assert.Empty(t, out)
}
