package service

import (
	"context"
	"log/slog"
	"strings"

	"avocado/internal/models"
	"avocado/internal/observability"
)

// CommentService handles the comment actions of the post page. Every method
// works on the page state so the caller can render it without another load.
type CommentService struct {
	api API
}

func NewCommentService(api API) *CommentService {
	return &CommentService{api: api}
}

func validateCommentText(text string) error {
	if strings.TrimSpace(text) == "" {
		return models.NewValidationError(MsgCommentRequired)
	}
	return nil
}

// AddComment posts a comment and appends exactly the comment the API
// returned. The comment list is not fetched again.
func (s *CommentService) AddComment(ctx context.Context, v Viewer, state *DetailState, text string) (*models.Comment, error) {
	if err := validateCommentText(text); err != nil {
		return nil, err
	}
	if err := state.identityErr(); err != nil {
		return nil, err
	}
	comment, err := s.api.CreateComment(ctx, v.Token, state.Post.ID, state.CurrentUserID, text)
	if err != nil {
		return nil, models.NewNetworkError(MsgCommentCreateFailed, err)
	}
	state.Comments = append(state.Comments, *comment)
	return comment, nil
}

// EditComment updates a comment and reloads the list, edited comments included.
func (s *CommentService) EditComment(ctx context.Context, v Viewer, state *DetailState, commentID uint, text string) error {
	if err := validateCommentText(text); err != nil {
		return err
	}
	if err := state.identityErr(); err != nil {
		return err
	}
	existing := models.FindComment(state.Comments, commentID)
	if existing == nil || !state.OwnsComment(*existing) {
		return models.NewUnauthorizedError(MsgCommentEditForbidden)
	}
	if err := s.api.UpdateComment(ctx, v.Token, state.Post.ID, commentID, text); err != nil {
		return models.NewNetworkError(MsgCommentUpdateFailed, err)
	}

	comments, err := s.api.ListComments(ctx, v.Token, state.Post.ID, true)
	if err != nil {
		// The update went through; keep the page consistent locally.
		observability.Logger.DebugContext(ctx, "comment list refresh failed",
			slog.Uint64("post_id", uint64(state.Post.ID)),
			slog.Uint64("comment_id", uint64(commentID)),
			slog.String("error", err.Error()))
		existing.CommentContent = text
		return nil
	}
	state.Comments = comments
	return nil
}

// DeleteComment removes a comment the viewer wrote.
func (s *CommentService) DeleteComment(ctx context.Context, v Viewer, state *DetailState, commentID uint) error {
	if err := state.identityErr(); err != nil {
		return err
	}
	existing := models.FindComment(state.Comments, commentID)
	if existing == nil || !state.OwnsComment(*existing) {
		return models.NewUnauthorizedError(MsgCommentDelForbidden)
	}
	if err := s.api.DeleteComment(ctx, v.Token, state.Post.ID, commentID); err != nil {
		return models.NewNetworkError(MsgDeleteFailed, err)
	}

	kept := state.Comments[:0]
	for _, c := range state.Comments {
		if c.ID != commentID {
			kept = append(kept, c)
		}
	}
	state.Comments = kept
	return nil
}
