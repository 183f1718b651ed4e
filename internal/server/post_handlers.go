package server

import (
	"fmt"
	"strconv"
	"strings"

	"avocado/internal/models"
	"avocado/internal/service"
	"avocado/internal/views"

	"github.com/gofiber/fiber/v2"
)

// MainPage lists posts with title search and pagination (?q=&page=).
func (s *Server) MainPage(c *fiber.Ctx) error {
	v := sessionOf(c).Viewer()
	listing := s.postService.Listing(c.UserContext(), service.ListingInput{
		Viewer: v,
		Query:  strings.TrimSpace(c.Query("q")),
		Page:   c.QueryInt("page", 1),
	})

	data := fiber.Map{"Title": "Posts", "Listing": listing}
	switch {
	case listing.PostsError != "":
		data["Toast"] = views.Error(listing.PostsError)
	case listing.UsersError != "":
		data["Toast"] = views.Error(listing.UsersError)
	}
	return s.render(c, "main", data)
}

// PostPage shows one post with its comments. ?edit=<commentId> prefills the
// comment form; ?confirm=post or ?confirm=comment-<id> opens the delete modal.
func (s *Server) PostPage(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	ws := sessionOf(c)
	v := ws.Viewer()
	if !v.LoggedIn() {
		return s.render(c, "detail", fiber.Map{"Title": "Post", "MembersOnly": service.MsgMembersOnly})
	}

	editing := uint(c.QueryInt("edit", 0))
	confirm := c.Query("confirm")

	// Right after an action, or while only toggling edit/confirm, the stored
	// state is rendered as is.
	var state *service.DetailState
	if snap := ws.Snapshot(postID); snap != nil && (snap.Fresh || editing != 0 || confirm != "") {
		state = snap.State
	} else {
		state, err = s.postService.PostDetail(c.UserContext(), v, postID)
		if err != nil {
			if isNotFound(err) {
				return fiber.NewError(fiber.StatusNotFound, "Post not found")
			}
			return err
		}
	}
	ws.SaveSnapshot(state, false)

	data := fiber.Map{"Title": state.Post.Title, "State": state}
	if editing != 0 {
		if text, ok := ownCommentText(state, editing); ok {
			data["EditingID"] = editing
			data["CommentText"] = text
		}
	}
	if modal := s.confirmModal(c, state, confirm); modal != nil {
		data["Confirm"] = modal
	}
	return s.render(c, "detail", data)
}

// ownCommentText returns the text of a comment the viewer wrote.
func ownCommentText(state *service.DetailState, id uint) (string, bool) {
	cm := models.FindComment(state.Comments, id)
	if cm == nil || !state.OwnsComment(*cm) {
		return "", false
	}
	return cm.CommentContent, true
}

func (s *Server) confirmModal(c *fiber.Ctx, state *service.DetailState, confirm string) fiber.Map {
	base := fmt.Sprintf("/post/%d", state.Post.ID)
	csrfToken, _ := c.Locals(csrfContextKey).(string)

	if confirm == "post" {
		return fiber.Map{
			"Label":     "Delete this post?",
			"Content":   "A deleted post cannot be restored.",
			"Action":    base + "/delete",
			"CancelURL": base,
			"CSRF":      csrfToken,
		}
	}
	if raw, ok := strings.CutPrefix(confirm, "comment-"); ok {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return nil
		}
		return fiber.Map{
			"Label":     "Delete this comment?",
			"Content":   "A deleted comment cannot be restored.",
			"Action":    fmt.Sprintf("%s/comments/%d/delete", base, id),
			"CancelURL": base,
			"CSRF":      csrfToken,
		}
	}
	return nil
}

// detailState returns the stored page state for postID or loads it again.
func (s *Server) detailState(c *fiber.Ctx, v service.Viewer, postID uint) (*service.DetailState, error) {
	if snap := sessionOf(c).Snapshot(postID); snap != nil {
		return snap.State, nil
	}
	return s.postService.LoadState(c.UserContext(), v, postID)
}

// DeletePost removes a post the viewer wrote and returns to the listing.
func (s *Server) DeletePost(c *fiber.Ctx) error {
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
		return redirectWithToast(c, "/main", failureToast(err, service.MsgPostLoadFailed))
	}
	if err := s.postService.DeletePost(c.UserContext(), v, state); err != nil {
		sessionOf(c).SaveSnapshot(state, true)
		return redirectWithToast(c, back, failureToast(err, service.MsgDeleteFailed))
	}
	sessionOf(c).ClearSnapshot()
	return redirectWithToast(c, "/main", views.Success(service.MsgPostDeleted))
}

// CreatePostPage shows the empty post form.
func (s *Server) CreatePostPage(c *fiber.Ctx) error {
	if _, ok, rerr := requireLogin(c); !ok {
		return rerr
	}
	return s.render(c, "create", fiber.Map{"Title": "New post", "Form": service.PostForm{}})
}

// CreatePost publishes a post from the multipart form.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	v, ok, rerr := requireLogin(c)
	if !ok {
		return rerr
	}

	form, err := postFormFrom(c)
	if err != nil {
		return err
	}
	post, err := s.postService.SubmitCreate(c.UserContext(), v, form)
	if err != nil {
		c.Status(statusForPage(err))
		form.Image = nil
		return s.render(c, "create", fiber.Map{
			"Title": "New post",
			"Form":  form,
			"Toast": failureToast(err, service.MsgPostCreateFailed),
		})
	}
	if post == nil || post.ID == 0 {
		return redirectWithToast(c, "/main", views.Success(service.MsgPostCreated))
	}
	return redirectWithToast(c, fmt.Sprintf("/post/%d", post.ID), views.Success(service.MsgPostCreated))
}

// EditPostPage shows the post form prefilled; only the author gets it.
func (s *Server) EditPostPage(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	v, ok, rerr := requireLogin(c)
	if !ok {
		return rerr
	}

	post, err := s.postService.LoadEditForm(c.UserContext(), v, postID)
	if err != nil {
		if isNotFound(err) {
			return fiber.NewError(fiber.StatusNotFound, "Post not found")
		}
		return redirectWithToast(c, fmt.Sprintf("/post/%d", postID), failureToast(err, service.MsgPostLoadFailed))
	}

	return s.render(c, "edit", fiber.Map{
		"Title":   "Edit post",
		"Action":  fmt.Sprintf("/post/edit/%d", postID),
		"Form":    service.PostForm{Title: post.Title, Article: post.Article},
		"Picture": post.PostPicture,
	})
}

// UpdatePost sends the edited post. Empty fields re-render the form without
// calling the API; otherwise the current post is loaded first so only its
// author can save and the stored picture is kept when no file is chosen.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	v, ok, rerr := requireLogin(c)
	if !ok {
		return rerr
	}

	form, err := postFormFrom(c)
	if err != nil {
		return err
	}

	var picture string
	rerender := func(err error) error {
		c.Status(statusForPage(err))
		form.Image = nil
		return s.render(c, "edit", fiber.Map{
			"Title":   "Edit post",
			"Action":  fmt.Sprintf("/post/edit/%d", postID),
			"Form":    form,
			"Picture": picture,
			"Toast":   failureToast(err, service.MsgPostUpdateFailed),
		})
	}

	if err := form.Validate(); err != nil {
		return rerender(err)
	}
	current, err := s.postService.LoadEditForm(c.UserContext(), v, postID)
	if err != nil {
		if isNotFound(err) {
			return fiber.NewError(fiber.StatusNotFound, "Post not found")
		}
		return rerender(err)
	}
	picture = current.PostPicture

	if err := s.postService.SubmitEdit(c.UserContext(), v, postID, form, picture); err != nil {
		return rerender(err)
	}
	sessionOf(c).ClearSnapshot()
	return redirectWithToast(c, fmt.Sprintf("/post/%d", postID), views.Success(service.MsgPostUpdated))
}

func postFormFrom(c *fiber.Ctx) (service.PostForm, error) {
	upload, err := readUpload(c)
	if err != nil {
		return service.PostForm{}, err
	}
	return service.PostForm{
		Title:   c.FormValue("title"),
		Article: c.FormValue("article"),
		Image:   upload,
	}, nil
}
