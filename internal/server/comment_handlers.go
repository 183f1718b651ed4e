package server

import (
	"fmt"

	"avocado/internal/service"
	"avocado/internal/views"

	"github.com/gofiber/fiber/v2"
)

// SubmitComment creates a comment, or updates one when the form carries
// editing_id. The changed page state is stored so the redirected page shows
// it without loading the comments again.
func (s *Server) SubmitComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	v, ok, rerr := requireLogin(c)
	if !ok {
		return rerr
	}

	back := fmt.Sprintf("/post/%d", postID)
	state, err := s.detailState(c, v, postID)
	if err != nil {
		if isNotFound(err) {
			return fiber.NewError(fiber.StatusNotFound, "Post not found")
		}
		return redirectWithToast(c, back, failureToast(err, service.MsgPostLoadFailed))
	}

	text := c.FormValue("comment")
	editingID := uint(0)
	if raw := c.FormValue("editing_id"); raw != "" {
		id, perr := parseFormID(raw)
		if perr != nil {
			return perr
		}
		editingID = id
	}

	ws := sessionOf(c)
	if editingID != 0 {
		if err := s.commentService.EditComment(c.UserContext(), v, state, editingID, text); err != nil {
			ws.SaveSnapshot(state, true)
			return redirectWithToast(c, fmt.Sprintf("%s?edit=%d#comment-form", back, editingID),
				failureToast(err, service.MsgCommentUpdateFailed))
		}
		ws.SaveSnapshot(state, true)
		return redirectWithToast(c, back, views.Success(service.MsgCommentUpdated))
	}

	if _, err := s.commentService.AddComment(c.UserContext(), v, state, text); err != nil {
		ws.SaveSnapshot(state, true)
		return redirectWithToast(c, back+"#comment-form", failureToast(err, service.MsgCommentCreateFailed))
	}
	ws.SaveSnapshot(state, true)
	return redirectWithToast(c, back, views.Success(service.MsgCommentCreated))
}

// DeleteComment removes a comment the viewer wrote.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return err
	}
	v, ok, rerr := requireLogin(c)
	if !ok {
		return rerr
	}

	back := fmt.Sprintf("/post/%d", postID)
	state, err := s.detailState(c, v, postID)
	if err != nil {
		return redirectWithToast(c, back, failureToast(err, service.MsgPostLoadFailed))
	}

	ws := sessionOf(c)
	if err := s.commentService.DeleteComment(c.UserContext(), v, state, commentID); err != nil {
		ws.SaveSnapshot(state, true)
		return redirectWithToast(c, back, failureToast(err, service.MsgDeleteFailed))
	}
	ws.SaveSnapshot(state, true)
	return redirectWithToast(c, back, views.Success(service.MsgCommentDeleted))
}
