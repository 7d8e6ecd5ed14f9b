package posts_test

import (
	"testing"

	"github.com/jrsteele09/nutrition-site/posts"
	"github.com/stretchr/testify/require"
)

func TestSwitch(t *testing.T) {
	var viewed, edited []string
	view := func(slug string) { viewed = append(viewed, slug) }
	edit := func(slug string) { edited = append(edited, slug) }

	posts.Switch("gut-health", true, view, edit)
	require.Equal(t, []string{"gut-health"}, viewed)
	require.Empty(t, edited)

	posts.Switch("gut-health", false, view, edit)
	require.Equal(t, []string{"gut-health"}, edited)
	require.Len(t, viewed, 1)
}
