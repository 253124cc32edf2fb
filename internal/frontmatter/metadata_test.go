package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/docmodel"
)

func TestParse_RecognisedKeys(t *testing.T) {
	input := []byte("---\ntitle: Getting Started\nmenu: docs_intro\nweight: 100\ndescription: keep me\n---\nBody\n")

	meta, body, err := Parse(input)
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, meta.Format)
	assert.Equal(t, "Getting Started", meta.Title)
	assert.Equal(t, 100, meta.Weight)
	assert.Equal(t, []docmodel.MenuRef{docmodel.Simple("docs_intro")}, meta.Menus)
	assert.Equal(t, map[string]any{"description": "keep me"}, meta.Extra)
	assert.Equal(t, []byte("Body\n"), body)
}

func TestParse_NestedMenuOverridesName(t *testing.T) {
	input := []byte("---\ntitle: Application State\nmenu:\n  docs_basics:\n    name: State\n    weight: 7\n  main:\n---\n")

	meta, _, err := Parse(input)
	require.NoError(t, err)
	require.Len(t, meta.Menus, 2)

	basics := meta.Menus[0]
	assert.Equal(t, "docs_basics", basics.Menu)
	assert.Equal(t, "State", basics.Name)
	require.NotNil(t, basics.Weight)
	assert.Equal(t, 7, *basics.Weight)

	assert.Equal(t, docmodel.Simple("main"), meta.Menus[1])
}

func TestParse_MenuList(t *testing.T) {
	meta, _, err := Parse([]byte("---\nmenu: [main, footer]\n---\n"))
	require.NoError(t, err)
	assert.Equal(t, []docmodel.MenuRef{docmodel.Simple("main"), docmodel.Simple("footer")}, meta.Menus)
}

func TestParse_TOML(t *testing.T) {
	input := []byte("+++\ntitle = \"Runtime\"\nweight = 20\n[menu.docs_intro]\nname = \"Runtime intro\"\n+++\nBody\n")

	meta, body, err := Parse(input)
	require.NoError(t, err)
	assert.Equal(t, FormatTOML, meta.Format)
	assert.Equal(t, "Runtime", meta.Title)
	assert.Equal(t, 20, meta.Weight)
	assert.Equal(t, []docmodel.MenuRef{docmodel.Named("docs_intro", "Runtime intro")}, meta.Menus)
	assert.Equal(t, []byte("Body\n"), body)
}

func TestParse_NoFrontMatter_DefaultsAndNoMenu(t *testing.T) {
	meta, body, err := Parse([]byte("# Plain\n"))
	require.NoError(t, err)
	assert.Equal(t, FormatNone, meta.Format)
	assert.Zero(t, meta.Weight)
	assert.Empty(t, meta.Menus)
	assert.Equal(t, []byte("# Plain\n"), body)
}

func TestParse_ReparsingBodyYieldsEmptyMetadata(t *testing.T) {
	inputs := []string{
		"---\ntitle: A\nmenu: docs_intro\nweight: 3\n---\n# A\n\ntext\n",
		"+++\ntitle = \"B\"\n+++\n## B\n",
		"---\n---\n",
	}
	for _, input := range inputs {
		_, body, err := Parse([]byte(input))
		require.NoError(t, err)

		meta, again, err := Parse(body)
		require.NoError(t, err)
		assert.Equal(t, FormatNone, meta.Format)
		assert.Empty(t, meta.Title)
		assert.Empty(t, meta.Menus)
		assert.Zero(t, meta.Weight)
		assert.Equal(t, body, again)
	}
}

func TestParse_WeightAsString(t *testing.T) {
	meta, _, err := Parse([]byte("---\nweight: \"15\"\n---\n"))
	require.NoError(t, err)
	assert.Equal(t, 15, meta.Weight)
}

func TestParse_InvalidValues(t *testing.T) {
	for _, input := range []string{
		"---\nweight: heavy\n---\n",
		"---\nweight: 1.5\n---\n",
		"---\nmenu: 12\n---\n",
		"---\nmenu:\n  main: oops\n---\n",
		"---\nmenu: [1, 2]\n---\n",
	} {
		_, _, err := Parse([]byte(input))
		require.ErrorIs(t, err, ErrInvalidFrontMatter, input)
	}
}

func TestParse_Unterminated(t *testing.T) {
	_, _, err := Parse([]byte("---\ntitle: x\n"))
	require.ErrorIs(t, err, ErrMissingClosingDelimiter)
}
