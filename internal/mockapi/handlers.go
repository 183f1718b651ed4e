package mockapi

import (
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"avocado/internal/database"
	"avocado/internal/models"
	"avocado/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// timeLayout is how createAt is serialized.
const timeLayout = "2006-01-02T15:04:05"

func toPost(p database.Post) models.Post {
	return models.Post{
		ID:          p.ID,
		UserID:      p.UserID,
		Title:       p.Title,
		Article:     p.Article,
		PostPicture: p.PostPicture,
		Likes:       p.Likes,
		Views:       p.Views,
		CreateAt:    p.CreatedAt.Format(timeLayout),
	}
}

func toAccount(u database.User) models.Account {
	return models.Account{
		UserID:         u.ID,
		Nickname:       u.Nickname,
		Email:          u.Email,
		ProfilePicture: u.ProfilePicture,
	}
}

func toComment(cm database.Comment) models.Comment {
	return models.Comment{
		ID:             cm.ID,
		PostID:         cm.PostID,
		UserID:         cm.UserID,
		CommentContent: cm.Content,
		CreateAt:       cm.CreatedAt.Format(timeLayout),
	}
}

func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		return 0, models.NewValidationError("Invalid " + param)
	}
	return uint(id), nil
}

// ListPosts handles GET /api/posts
func (a *API) ListPosts(c *fiber.Ctx) error {
	rows, err := a.posts.List(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]models.Post, 0, len(rows))
	for _, p := range rows {
		out = append(out, toPost(p))
	}
	return c.JSON(out)
}

// GetPost handles GET /api/posts/:id
func (a *API) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	p, err := a.posts.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(toPost(*p))
}

// postData reads the JSON "data" part of a multipart post form.
func postData(c *fiber.Ctx) (models.PostInput, error) {
	var in models.PostInput
	if err := json.Unmarshal([]byte(c.FormValue("data")), &in); err != nil {
		return in, models.NewValidationError("Invalid data part")
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Article = strings.TrimSpace(in.Article)
	if in.Title == "" || in.Article == "" {
		return in, models.NewValidationError("Title and article are required")
	}
	return in, nil
}

// savedPicture stores a non-empty "file" part. ok is false when none was sent.
func (a *API) savedPicture(c *fiber.Ctx) (url string, ok bool, err error) {
	fh, ferr := c.FormFile("file")
	if ferr != nil || fh.Size == 0 {
		return "", false, nil
	}
	url, err = a.uploads.Save(fh, a.publicURL(c))
	return url, err == nil, err
}

func (a *API) publicURL(c *fiber.Ctx) string {
	if a.config.APIBaseURL != "" && a.config.IsProduction() {
		return a.config.APIBaseURL
	}
	return c.BaseURL()
}

// CreatePost handles POST /api/posts (multipart: file, data)
func (a *API) CreatePost(c *fiber.Ctx) error {
	in, err := postData(c)
	if err != nil {
		return err
	}
	picture, _, err := a.savedPicture(c)
	if err != nil {
		return err
	}

	p := &database.Post{UserID: currentUserID(c), Title: in.Title, Article: in.Article, PostPicture: picture}
	if err := a.posts.Create(c.UserContext(), p); err != nil {
		return err
	}
	observability.Logger.InfoContext(c.UserContext(), "post created", slog.Uint64("post_id", uint64(p.ID)))
	return c.Status(fiber.StatusCreated).JSON(toPost(*p))
}

// ownedPost loads a post and checks the caller wrote it.
func (a *API) ownedPost(c *fiber.Ctx) (*database.Post, error) {
	id, err := parseID(c, "id")
	if err != nil {
		return nil, err
	}
	p, err := a.posts.GetByID(c.UserContext(), id)
	if err != nil {
		return nil, err
	}
	if p.UserID != currentUserID(c) {
		return nil, models.NewUnauthorizedError("Not the author of this post")
	}
	return p, nil
}

// UpdatePost handles PUT /api/posts/:id. A non-empty "file" replaces the
// picture; otherwise "postPicture" is kept, and with neither the picture is
// removed.
func (a *API) UpdatePost(c *fiber.Ctx) error {
	p, err := a.ownedPost(c)
	if err != nil {
		return err
	}
	in, err := postData(c)
	if err != nil {
		return err
	}

	picture, uploaded, err := a.savedPicture(c)
	if err != nil {
		return err
	}
	if !uploaded {
		picture = c.FormValue("postPicture")
	}

	p.Title, p.Article, p.PostPicture = in.Title, in.Article, picture
	if err := a.posts.Update(c.UserContext(), p); err != nil {
		return err
	}
	return c.JSON(toPost(*p))
}

// DeletePost handles DELETE /api/posts/:id
func (a *API) DeletePost(c *fiber.Ctx) error {
	p, err := a.ownedPost(c)
	if err != nil {
		return err
	}
	if err := a.posts.Delete(c.UserContext(), p.ID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// IncrementViews handles PUT /api/posts/:id/views
func (a *API) IncrementViews(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	views, err := a.posts.IncrementViews(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"views": views})
}

// ListAccounts handles GET /api/accounts
func (a *API) ListAccounts(c *fiber.Ctx) error {
	rows, err := a.users.List(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]models.Account, 0, len(rows))
	for _, u := range rows {
		out = append(out, toAccount(u))
	}
	return c.JSON(out)
}

// GetAccount handles GET /api/accounts/:id and wraps the account in "user".
func (a *API) GetAccount(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	u, err := a.users.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": toAccount(*u)})
}

// UpdateNickname handles PUT /api/accounts/:id/nickname. A taken nickname
// answers 409.
func (a *API) UpdateNickname(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if id != currentUserID(c) {
		return models.NewUnauthorizedError("Cannot change another account")
	}

	var body struct {
		Nickname string `json:"nickname"`
	}
	if err := c.BodyParser(&body); err != nil {
		return models.NewValidationError("Invalid request body")
	}
	nickname := strings.TrimSpace(body.Nickname)
	if nickname == "" || len([]rune(nickname)) > 32 {
		return models.NewValidationError("Nickname must be 1 to 32 characters")
	}

	if err := a.users.UpdateNickname(c.UserContext(), id, nickname); err != nil {
		return err
	}
	u, err := a.users.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": toAccount(*u)})
}

// Login handles POST /api/accounts/login
func (a *API) Login(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return models.NewValidationError("Invalid request body")
	}

	u, err := a.users.GetByEmail(c.UserContext(), strings.TrimSpace(body.Email))
	if err != nil || !CheckPassword(u.Password, body.Password) {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid credentials"))
	}

	token, err := a.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return models.NewInternalError(err)
	}
	acc := toAccount(*u)
	return c.JSON(fiber.Map{"token": token, "user": acc})
}

// ListComments handles GET /api/posts/:id/comments[?include_edited=true]
func (a *API) ListComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if _, err := a.posts.GetByID(c.UserContext(), postID); err != nil {
		return err
	}
	rows, err := a.comments.ListByPost(c.UserContext(), postID, c.QueryBool("include_edited", false))
	if err != nil {
		return err
	}
	out := make([]models.Comment, 0, len(rows))
	for _, cm := range rows {
		out = append(out, toComment(cm))
	}
	return c.JSON(out)
}

type commentBody struct {
	CommentContent string `json:"commentContent"`
	UserID         uint   `json:"userId"`
}

// CreateComment handles POST /api/posts/:id/comments
func (a *API) CreateComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var body commentBody
	if err := c.BodyParser(&body); err != nil {
		return models.NewValidationError("Invalid request body")
	}
	content := strings.TrimSpace(body.CommentContent)
	if content == "" {
		return models.NewValidationError("Comment content is required")
	}
	userID := currentUserID(c)
	if body.UserID != 0 && body.UserID != userID {
		return models.NewUnauthorizedError("Cannot comment as another account")
	}
	if _, err := a.posts.GetByID(c.UserContext(), postID); err != nil {
		return err
	}

	cm := &database.Comment{PostID: postID, UserID: userID, Content: content, CreatedAt: time.Now()}
	if err := a.comments.Create(c.UserContext(), cm); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toComment(*cm))
}

// ownedComment loads a comment of the post in :id and checks the caller
// wrote it.
func (a *API) ownedComment(c *fiber.Ctx) (*database.Comment, error) {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil, err
	}
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return nil, err
	}
	cm, err := a.comments.GetByID(c.UserContext(), commentID)
	if err != nil {
		return nil, err
	}
	if cm.PostID != postID {
		return nil, models.NewNotFoundError("Comment", commentID)
	}
	if cm.UserID != currentUserID(c) {
		return nil, models.NewUnauthorizedError("Not the author of this comment")
	}
	return cm, nil
}

// UpdateComment handles PUT /api/posts/:id/comments/:commentId
func (a *API) UpdateComment(c *fiber.Ctx) error {
	cm, err := a.ownedComment(c)
	if err != nil {
		return err
	}
	var body commentBody
	if err := c.BodyParser(&body); err != nil {
		return models.NewValidationError("Invalid request body")
	}
	content := strings.TrimSpace(body.CommentContent)
	if content == "" {
		return models.NewValidationError("Comment content is required")
	}
	if err := a.comments.UpdateContent(c.UserContext(), cm.ID, content); err != nil {
		return err
	}
	cm.Content = content
	return c.JSON(toComment(*cm))
}

// DeleteComment handles DELETE /api/posts/:id/comments/:commentId
func (a *API) DeleteComment(c *fiber.Ctx) error {
	cm, err := a.ownedComment(c)
	if err != nil {
		return err
	}
	if err := a.comments.Delete(c.UserContext(), cm.ID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
