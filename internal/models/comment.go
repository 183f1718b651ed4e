package models

// Comment is a comment under a post.
type Comment struct {
	ID             uint   `json:"id"`
	PostID         uint   `json:"postId,omitempty"`
	UserID         uint   `json:"userId"`
	CommentContent string `json:"commentContent"`
	CreateAt       string `json:"createAt"`
}

// FindComment returns the comment with the given id, or nil.
func FindComment(comments []Comment, id uint) *Comment {
	for i := range comments {
		if comments[i].ID == id {
			return &comments[i]
		}
	}
	return nil
}
