package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"avocado/internal/apiclient"
	"avocado/internal/featureflags"
	"avocado/internal/media"
	"avocado/internal/models"
	"avocado/internal/observability"
)

const (
	excerptLength      = 80
	unknownAuthor      = "Unknown"
	viewCounterTimeout = 5 * time.Second
)

// PostService backs the listing, detail and post form pages.
type PostService struct {
	api           API
	flags         *featureflags.Set
	images        *media.Normalizer
	publicBaseURL string

	// async runs fire-and-forget work; replaced in tests.
	async func(func())
}

func NewPostService(api API, flags *featureflags.Set, images *media.Normalizer, publicBaseURL string) *PostService {
	return &PostService{
		api:           api,
		flags:         flags,
		images:        images,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		async:         func(fn func()) { go fn() },
	}
}

// Card is one post in the listing.
type Card struct {
	ID       uint
	Title    string
	Excerpt  string
	Author   string
	Date     string
	Picture  string
	Likes    int
	Views    int
	ShareURL string
}

type ListingInput struct {
	Viewer Viewer
	Query  string
	Page   int
}

// Listing is the main page model. PostsError and UsersError are set
// independently; a failed account fetch still lists posts with "Unknown"
// authors.
type Listing struct {
	Query      string
	Page       Page[Card]
	PostsError string
	UsersError string
}

// Listing fetches posts and accounts concurrently, filters by title and
// returns the requested page.
func (s *PostService) Listing(ctx context.Context, in ListingInput) *Listing {
	var (
		wg                sync.WaitGroup
		posts             []models.Post
		accounts          []models.Account
		postsErr, userErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		posts, postsErr = s.api.ListPosts(ctx, in.Viewer.Token)
	}()
	go func() {
		defer wg.Done()
		accounts, userErr = s.api.ListAccounts(ctx, in.Viewer.Token)
	}()
	wg.Wait()

	out := &Listing{Query: in.Query}
	if postsErr != nil {
		out.PostsError = MsgPostsFetchFailed
		posts = nil
	}
	if userErr != nil {
		out.UsersError = MsgUsersFetchFailed
		accounts = nil
	}

	page := Paginate(FilterByTitle(posts, in.Query), in.Page, PostsPerPage)
	share := s.flags.For(featureflags.ShareLinks, in.Viewer.Email)

	cards := make([]Card, 0, len(page.Items))
	for _, p := range page.Items {
		card := Card{
			ID:      p.ID,
			Title:   p.Title,
			Excerpt: Truncate(p.Article, excerptLength),
			Author:  unknownAuthor,
			Date:    p.CreateDate(),
			Picture: p.PostPicture,
			Likes:   p.Likes,
			Views:   p.Views,
		}
		if acc := models.FindAccount(accounts, p.UserID); acc != nil {
			card.Author = acc.Nickname
		}
		if share {
			card.ShareURL = s.PostURL(p.ID)
		}
		cards = append(cards, card)
	}
	out.Page = Page[Card]{Items: cards, Current: page.Current, Total: page.Total}
	return out
}

// PostURL is the absolute address of a post page.
func (s *PostService) PostURL(id uint) string {
	return fmt.Sprintf("%s/post/%d", s.publicBaseURL, id)
}

// DetailState is everything the post page renders. It is kept in the session
// between a comment action and the redirected page load. UsersError and
// CommentsError are set when those fetches failed; the post still renders.
type DetailState struct {
	Post          *models.Post     `json:"post"`
	Accounts      []models.Account `json:"accounts"`
	Comments      []models.Comment `json:"comments"`
	CurrentUserID uint             `json:"currentUserId"`
	UsersError    string           `json:"usersError,omitempty"`
	CommentsError string           `json:"commentsError,omitempty"`
}

// identityErr is non-nil when the accounts could not be loaded, so the
// viewer's ownership cannot be decided.
func (d *DetailState) identityErr() error {
	if d.UsersError != "" {
		return models.NewNetworkError(d.UsersError, nil)
	}
	return nil
}

// Author of the post, or nil.
func (d *DetailState) Author() *models.Account {
	if d == nil || d.Post == nil {
		return nil
	}
	return models.FindAccount(d.Accounts, d.Post.UserID)
}

// CommentAuthor returns the account that wrote c, or nil.
func (d *DetailState) CommentAuthor(c models.Comment) *models.Account {
	return models.FindAccount(d.Accounts, c.UserID)
}

// OwnsPost reports whether the signed-in user wrote the post.
func (d *DetailState) OwnsPost() bool {
	return d != nil && d.Post != nil && d.CurrentUserID != 0 && d.CurrentUserID == d.Post.UserID
}

// OwnsComment reports whether the signed-in user wrote c.
func (d *DetailState) OwnsComment(c models.Comment) bool {
	return d != nil && d.CurrentUserID != 0 && c.UserID == d.CurrentUserID
}

// PostDetail loads the post, the accounts and the comments (edited ones
// included) concurrently, then bumps the view counter without waiting.
func (s *PostService) PostDetail(ctx context.Context, v Viewer, postID uint) (*DetailState, error) {
	state, err := s.load(ctx, v, postID, true)
	if err != nil {
		return nil, err
	}

	if s.flags.For(featureflags.ViewCounter, v.Email) {
		bg := context.WithoutCancel(ctx)
		s.async(func() {
			ctx, cancel := context.WithTimeout(bg, viewCounterTimeout)
			defer cancel()
			if err := s.api.IncrementViews(ctx, v.Token, postID); err != nil {
				observability.Logger.DebugContext(ctx, "view increment failed",
					slog.Uint64("post_id", uint64(postID)),
					slog.String("error", err.Error()),
				)
			}
		})
	}
	return state, nil
}

// LoadState is PostDetail without the view increment, used when an action
// has no usable snapshot.
func (s *PostService) LoadState(ctx context.Context, v Viewer, postID uint) (*DetailState, error) {
	return s.load(ctx, v, postID, true)
}

func (s *PostService) load(ctx context.Context, v Viewer, postID uint, withComments bool) (*DetailState, error) {
	var (
		wg                         sync.WaitGroup
		post                       *models.Post
		accounts                   []models.Account
		comments                   []models.Comment
		postErr, accErr, commentErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		post, postErr = s.api.GetPost(ctx, v.Token, postID)
	}()
	go func() {
		defer wg.Done()
		accounts, accErr = s.api.ListAccounts(ctx, v.Token)
	}()
	if withComments {
		wg.Add(1)
		go func() {
			defer wg.Done()
			comments, commentErr = s.api.ListComments(ctx, v.Token, postID, true)
		}()
	}
	wg.Wait()

	if postErr != nil {
		if apiclient.IsNotFound(postErr) {
			return nil, models.NewNotFoundError("Post", postID)
		}
		return nil, models.NewNetworkError(MsgPostLoadFailed, postErr)
	}

	state := &DetailState{Post: post, Accounts: accounts, Comments: comments}
	if accErr != nil {
		observability.Logger.WarnContext(ctx, "post page accounts fetch failed",
			slog.Uint64("post_id", uint64(postID)), slog.String("error", accErr.Error()))
		state.Accounts = nil
		state.UsersError = MsgUsersFetchFailed
	}
	if commentErr != nil {
		observability.Logger.WarnContext(ctx, "post page comments fetch failed",
			slog.Uint64("post_id", uint64(postID)), slog.String("error", commentErr.Error()))
		state.Comments = nil
		state.CommentsError = MsgCommentsFetchFailed
	}
	if state.Comments == nil {
		state.Comments = []models.Comment{}
	}
	state.CurrentUserID = v.currentUserID(state.Accounts)
	return state, nil
}

// CanEditPost reports whether the viewer may open the edit form.
func (s *PostService) CanEditPost(state *DetailState) error {
	if err := state.identityErr(); err != nil {
		return err
	}
	if !state.OwnsPost() {
		return models.NewUnauthorizedError(MsgPostEditForbidden)
	}
	return nil
}

// LoadEditForm returns the post to prefill the edit form. Only the author
// may edit.
func (s *PostService) LoadEditForm(ctx context.Context, v Viewer, postID uint) (*models.Post, error) {
	state, err := s.load(ctx, v, postID, false)
	if err != nil {
		return nil, err
	}
	if err := s.CanEditPost(state); err != nil {
		return nil, err
	}
	return state.Post, nil
}

// DeletePost removes the post after checking the viewer wrote it.
func (s *PostService) DeletePost(ctx context.Context, v Viewer, state *DetailState) error {
	if err := state.identityErr(); err != nil {
		return err
	}
	if !state.OwnsPost() {
		return models.NewUnauthorizedError(MsgPostDelForbidden)
	}
	if err := s.api.DeletePost(ctx, v.Token, state.Post.ID); err != nil {
		return models.NewNetworkError(MsgDeleteFailed, err)
	}
	return nil
}

// UploadFile is an image picked in the post form.
type UploadFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// PostForm is the submitted create/edit form.
type PostForm struct {
	Title   string
	Article string
	Image   *UploadFile
}

// Validate requires both a title and content.
func (f PostForm) Validate() error {
	if f.Title == "" || f.Article == "" {
		return models.NewValidationError(MsgPostFieldsRequired)
	}
	return nil
}

func (s *PostService) prepareUpload(f *UploadFile, subject string) (*apiclient.Upload, error) {
	if f == nil || len(f.Data) == 0 {
		return nil, nil
	}
	var (
		img *media.Image
		err error
	)
	if s.flags.For(featureflags.ImageNormalize, subject) {
		img, err = s.images.Normalize(f.Filename, f.ContentType, f.Data)
	} else {
		img, err = s.images.Passthrough(f.Filename, f.ContentType, f.Data)
	}
	if err != nil {
		return nil, err
	}
	return &apiclient.Upload{Filename: img.Filename, ContentType: img.ContentType, Data: img.Data}, nil
}

// SubmitEdit validates the form and sends the multipart update. With no new
// image the current picture URL is kept.
func (s *PostService) SubmitEdit(ctx context.Context, v Viewer, postID uint, form PostForm, existingPicture string) error {
	if err := form.Validate(); err != nil {
		return err
	}
	upload, err := s.prepareUpload(form.Image, v.Email)
	if err != nil {
		return err
	}
	in := models.PostInput{Title: form.Title, Article: form.Article}
	if err := s.api.UpdatePost(ctx, v.Token, postID, in, upload, existingPicture); err != nil {
		if apiclient.IsUnauthorized(err) {
			return models.NewUnauthorizedError(MsgPostEditForbidden)
		}
		return models.NewNetworkError(MsgPostUpdateFailed, err)
	}
	return nil
}

// SubmitCreate validates the form and publishes a new post.
func (s *PostService) SubmitCreate(ctx context.Context, v Viewer, form PostForm) (*models.Post, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	upload, err := s.prepareUpload(form.Image, v.Email)
	if err != nil {
		return nil, err
	}
	post, err := s.api.CreatePost(ctx, v.Token, models.PostInput{Title: form.Title, Article: form.Article}, upload)
	if err != nil {
		return nil, models.NewNetworkError(MsgPostCreateFailed, err)
	}
	return post, nil
}
