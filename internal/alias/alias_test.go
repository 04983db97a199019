package alias

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalIsItsOwnAlias(t *testing.T) {
	tables := map[string]Table{
		"special":   Special,
		"skills":    Skills,
		"stats":     Stats,
		"bodyparts": BodyParts,
		"damages":   Damages,
	}
	for name, table := range tables {
		for _, canonical := range table {
			got, ok := table.Lookup(canonical)
			require.True(t, ok, "%s: canonical %q not registered as alias", name, canonical)
			assert.Equal(t, canonical, got, "%s: canonical %q must resolve to itself", name, canonical)
		}
	}
}

func TestLookupRegisteredAliases(t *testing.T) {
	cases := []struct {
		table Table
		token string
		want  string
	}{
		{Special, "for", "strength"},
		{Special, "CHA", "charisma"},
		{Skills, "crochetage", "lockpick"},
		{Skills, " sg ", "small_guns"},
		{Stats, "lck", "luck"},
		{Stats, "hacker", "computers"},
		{BodyParts, "Tête", "head"},
		{BodyParts, "j", "legs"},
		{Damages, "-$", "remove_money"},
		{Damages, "feu", "fire"},
	}
	for _, tc := range cases {
		got, ok := tc.table.Lookup(tc.token)
		require.True(t, ok, "token %q", tc.token)
		assert.Equal(t, tc.want, got, "token %q", tc.token)
	}
}

func TestResolvePermissivePassThrough(t *testing.T) {
	// Unknown tokens pass through trimmed and lowercased.
	assert.Equal(t, "gauss_rifle", Stats.Resolve("  Gauss_Rifle "))
	assert.Equal(t, "tail", BodyParts.Resolve("TAIL"))
}

func TestLookupStrictRejectsUnknown(t *testing.T) {
	_, ok := Skills.Lookup("underwater_basket_weaving")
	assert.False(t, ok)
}
