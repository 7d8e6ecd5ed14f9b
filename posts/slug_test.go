package posts_test

import (
	"strings"
	"testing"

	"github.com/jrsteele09/nutrition-site/posts"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Café Bowls!", "cafe-bowls"},
		{"  5 Tips for   Better Sleep ", "5-tips-for-better-sleep"},
		{"Protein: how much?", "protein-how-much"},
		{"---", ""},
		{"Crème brûlée & fibre", "creme-brulee-fibre"},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			require.Equal(t, tt.want, posts.Slugify(tt.title))
		})
	}

	t.Run("long titles are truncated", func(t *testing.T) {
		slug := posts.Slugify(strings.Repeat("word ", 40))
		require.LessOrEqual(t, len(slug), 80)
		require.False(t, strings.HasSuffix(slug, "-"))
	})
}

func TestValidSlug(t *testing.T) {
	require.True(t, posts.ValidSlug("meal-prep-101"))
	require.False(t, posts.ValidSlug(""))
	require.False(t, posts.ValidSlug("Meal-Prep"))
	require.False(t, posts.ValidSlug("meal--prep"))
	require.False(t, posts.ValidSlug("../etc"))
}
