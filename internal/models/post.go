// Package models contains the REST resources exchanged with the blog API.
package models

import "strings"

// Post is a blog post as served by GET /api/posts.
type Post struct {
	ID          uint   `json:"id"`
	UserID      uint   `json:"userId"`
	Title       string `json:"title"`
	Article     string `json:"article"`
	PostPicture string `json:"postPicture"`
	Likes       int    `json:"likes"`
	Views       int    `json:"views"`
	CreateAt    string `json:"createAt"`
}

// CreateDate is the calendar part of CreateAt ("2024-05-01T10:00:00" -> "2024-05-01").
func (p Post) CreateDate() string {
	date, _, _ := strings.Cut(p.CreateAt, "T")
	return date
}

// PostInput is the JSON "data" part of a multipart create or update.
type PostInput struct {
	Title   string `json:"title"`
	Article string `json:"article"`
}
