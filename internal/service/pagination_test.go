package service

import (
	"testing"

	"avocado/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestPaginate_PageCountAndSlices(t *testing.T) {
	for n := 0; n <= 10; n++ {
		posts := samplePosts(n)
		wantTotal := (n + 2) / 3

		first := Paginate(posts, 1, PostsPerPage)
		assert.Equal(t, wantTotal, first.Total, "n=%d", n)

		for k := 1; k <= wantTotal; k++ {
			p := Paginate(posts, k, PostsPerPage)
			start, end := 3*(k-1), min(3*k, n)
			assert.Equal(t, k, p.Current)
			assert.Equal(t, posts[start:end], p.Items, "n=%d k=%d", n, k)
		}
	}
}

func TestPaginate_Clamps(t *testing.T) {
	posts := samplePosts(7)

	tests := []struct {
		name    string
		page    int
		current int
	}{
		{"zero", 0, 1},
		{"negative", -4, 1},
		{"past end", 10, 3},
		{"last", 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.current, Paginate(posts, tt.page, PostsPerPage).Current)
		})
	}

	empty := Paginate([]models.Post{}, 5, PostsPerPage)
	assert.Equal(t, 1, empty.Current)
	assert.Equal(t, 0, empty.Total)
	assert.Empty(t, empty.Items)
	assert.False(t, empty.HasNext())
	assert.False(t, empty.HasPrev())
}

func TestPage_Navigation(t *testing.T) {
	p := Paginate(samplePosts(7), 2, PostsPerPage)
	assert.True(t, p.HasPrev())
	assert.True(t, p.HasNext())
	assert.Equal(t, 1, p.Prev())
	assert.Equal(t, 3, p.Next())
	assert.Equal(t, []int{1, 2, 3}, p.Numbers())

	last := Paginate(samplePosts(7), 3, PostsPerPage)
	assert.False(t, last.HasNext())
	assert.Equal(t, 3, last.Next())
}

func TestFilterByTitle_CaseInsensitive(t *testing.T) {
	posts := []models.Post{
		{ID: 1, Title: "Avocado Toast"},
		{ID: 2, Title: "GUACAMOLE"},
		{ID: 3, Title: "toast with jam"},
		{ID: 4, Title: "Salad"},
	}

	ids := func(ps []models.Post) []uint {
		out := []uint{}
		for _, p := range ps {
			out = append(out, p.ID)
		}
		return out
	}

	assert.Equal(t, []uint{1, 3}, ids(FilterByTitle(posts, "TOAST")))
	assert.Equal(t, []uint{2}, ids(FilterByTitle(posts, "camo")))
	assert.Equal(t, []uint{}, ids(FilterByTitle(posts, "pizza")))
	assert.Len(t, FilterByTitle(posts, ""), 4)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "ab...", Truncate("abc", 2))
	assert.Equal(t, "", Truncate("", 80))
	assert.Equal(t, "아보...", Truncate("아보카도", 2))
}
