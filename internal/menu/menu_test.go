package menu

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/docmodel"
)

func doc(path string, order, weight int, menus ...docmodel.MenuRef) *docmodel.Document {
	return &docmodel.Document{Path: path, Title: "Title " + path, Order: order, Weight: weight, Menus: menus}
}

func TestBuild_OrdersByWeight(t *testing.T) {
	first := doc("first", 0, 100, docmodel.Simple("docs_intro"))
	second := doc("second", 1, 10, docmodel.Simple("docs_intro"))

	tree := Build([]*docmodel.Document{first, second})

	g := tree.Group("docs_intro")
	require.NotNil(t, g)
	assert.Equal(t, []string{"second", "first"}, g.Paths())
}

func TestBuild_TiesKeepDiscoveryOrderRegardlessOfInputOrder(t *testing.T) {
	var docs []*docmodel.Document
	for i, p := range []string{"a", "b", "c", "d", "e"} {
		docs = append(docs, doc(p, i, 5, docmodel.Simple("main")))
	}
	docs = append(docs, doc("light", 5, 1, docmodel.Simple("main")))

	rng := rand.New(rand.NewPCG(1, 2))
	for range 20 {
		shuffled := append([]*docmodel.Document(nil), docs...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		g := Build(shuffled).Group("main")
		require.NotNil(t, g)
		assert.Equal(t, []string{"light", "a", "b", "c", "d", "e"}, g.Paths())
	}
}

func TestBuild_EntriesSortedAscending(t *testing.T) {
	var docs []*docmodel.Document
	weights := []int{30, -5, 12, 0, 12, 7}
	for i, w := range weights {
		docs = append(docs, doc(string(rune('a'+i)), i, w, docmodel.Simple("m")))
	}

	entries := Build(docs).Group("m").Entries
	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]
		require.LessOrEqual(t, prev.Weight, cur.Weight)
		if prev.Weight == cur.Weight {
			require.Less(t, prev.Document.Order, cur.Document.Order)
		}
	}
}

func TestBuild_NamedOverrideOnlyAffectsItsMenu(t *testing.T) {
	d := doc("state", 0, 0, docmodel.Named("docs_basics", "State"), docmodel.Simple("main"))

	tree := Build([]*docmodel.Document{d})

	assert.Equal(t, "State", tree.Group("docs_basics").Entries[0].Name)
	assert.Equal(t, "Title state", tree.Group("main").Entries[0].Name)
	assert.Equal(t, "Title state", d.Title)
}

func TestBuild_PerMenuWeightOverride(t *testing.T) {
	w := 1
	heavy := doc("heavy", 0, 50, docmodel.MenuRef{Menu: "m", Weight: &w})
	light := doc("light", 1, 10, docmodel.Simple("m"))

	assert.Equal(t, []string{"heavy", "light"}, Build([]*docmodel.Document{heavy, light}).Group("m").Paths())
}

func TestBuild_DocumentsWithoutMenuAreExcluded(t *testing.T) {
	plain := doc("plain", 0, 0)
	inMenu := doc("in", 1, 0, docmodel.Simple("main"))

	tree := Build([]*docmodel.Document{plain, inMenu})

	assert.Equal(t, []string{"main"}, tree.Names())
	assert.False(t, tree.Contains(plain))
	assert.True(t, tree.Contains(inMenu))
}

func TestBuild_Empty(t *testing.T) {
	tree := Build(nil)
	assert.Empty(t, tree.Names())
	assert.Nil(t, tree.Group("docs_intro"))
}
