package service

import (
	"strings"

	"avocado/internal/models"
)

// PostsPerPage is the listing page size.
const PostsPerPage = 3

// Page is one slice of a paginated list.
type Page[T any] struct {
	Items   []T
	Current int
	Total   int
}

// Paginate returns page `page` of items. Total is ceil(len/perPage) and the
// requested page is clamped to [1, max(Total, 1)].
func Paginate[T any](items []T, page, perPage int) Page[T] {
	if perPage <= 0 {
		perPage = PostsPerPage
	}
	total := (len(items) + perPage - 1) / perPage
	page = max(1, min(page, max(total, 1)))

	start := (page - 1) * perPage
	end := min(start+perPage, len(items))
	if start > end {
		start = end
	}
	return Page[T]{Items: items[start:end], Current: page, Total: total}
}

func (p Page[T]) HasPrev() bool { return p.Current > 1 }
func (p Page[T]) HasNext() bool { return p.Current < p.Total }
func (p Page[T]) Prev() int     { return max(p.Current-1, 1) }
func (p Page[T]) Next() int     { return min(p.Current+1, max(p.Total, 1)) }

// Numbers lists 1..Total for the pagination dots.
func (p Page[T]) Numbers() []int {
	out := make([]int, p.Total)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// FilterByTitle keeps posts whose title contains term, ignoring case. An
// empty term keeps everything.
func FilterByTitle(posts []models.Post, term string) []models.Post {
	if term == "" {
		return posts
	}
	needle := strings.ToLower(term)
	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if strings.Contains(strings.ToLower(p.Title), needle) {
			out = append(out, p)
		}
	}
	return out
}

// Truncate cuts s to n characters and appends "..." when it was longer.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
