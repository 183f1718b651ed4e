// Package mockapi is a development implementation of the blog REST API the
// web client consumes, backed by gorm.
package mockapi

import (
	"context"
	"errors"

	"avocado/internal/database"
	"avocado/internal/models"
	"avocado/internal/observability"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for accounts.
type UserRepository interface {
	List(ctx context.Context) ([]database.User, error)
	GetByID(ctx context.Context, id uint) (*database.User, error)
	GetByEmail(ctx context.Context, email string) (*database.User, error)
	Create(ctx context.Context, user *database.User) error
	UpdateNickname(ctx context.Context, id uint, nickname string) error
}

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	List(ctx context.Context) ([]database.Post, error)
	GetByID(ctx context.Context, id uint) (*database.Post, error)
	Create(ctx context.Context, post *database.Post) error
	Update(ctx context.Context, post *database.Post) error
	Delete(ctx context.Context, id uint) error
	IncrementViews(ctx context.Context, id uint) (int, error)
}

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	ListByPost(ctx context.Context, postID uint, includeEdited bool) ([]database.Comment, error)
	GetByID(ctx context.Context, id uint) (*database.Comment, error)
	Create(ctx context.Context, comment *database.Comment) error
	UpdateContent(ctx context.Context, id uint, content string) error
	Delete(ctx context.Context, id uint) error
}

// ErrDuplicateNickname is returned when another account already uses a nickname.
var ErrDuplicateNickname = models.NewConflictError("duplicate nickname")

// mapErr converts gorm errors to AppErrors.
func mapErr(err error, resource string, id any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.NewNotFoundError(resource, id)
	default:
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return models.NewInternalError(err)
	}
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a gorm UserRepository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) List(ctx context.Context) (users []database.User, err error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "UserRepository.List", "users")
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("select", "users")()

	err = r.db.WithContext(ctx).Order("id ASC").Find(&users).Error
	return users, mapErr(err, "User", nil)
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (user *database.User, err error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "UserRepository.GetByID", "users")
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("select", "users")()

	var u database.User
	if err = r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, mapErr(err, "User", id)
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (user *database.User, err error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "UserRepository.GetByEmail", "users")
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("select", "users")()

	var u database.User
	if err = r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, mapErr(err, "User", email)
	}
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, user *database.User) (err error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "UserRepository.Create", "users")
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("insert", "users")()

	return mapErr(r.db.WithContext(ctx).Create(user).Error, "User", nil)
}

// UpdateNickname fails with ErrDuplicateNickname when another account holds
// the nickname.
func (r *userRepository) UpdateNickname(ctx context.Context, id uint, nickname string) (err error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "UserRepository.UpdateNickname", "users")
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("update", "users")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&database.User{}).
			Where("nickname = ? AND id <> ?", nickname, id).
			Count(&taken).Error; err != nil {
			return mapErr(err, "User", id)
		}
		if taken > 0 {
			return ErrDuplicateNickname
		}
		res := tx.Model(&database.User{}).Where("id = ?", id).Update("nickname", nickname)
		if res.Error != nil {
			return mapErr(res.Error, "User", id)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("User", id)
		}
		return nil
	})
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository returns a gorm PostRepository.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// List returns every post, newest first.
func (r *postRepository) List(ctx context.Context) (posts []database.Post, err error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "PostRepository.List", "posts")
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("select", "posts")()

	err = r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&posts).Error
	return posts, mapErr(err, "Post", nil)
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (post *database.Post, err error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "PostRepository.GetByID", "posts")
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("select", "posts")()

	var p database.Post
	if err = r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, mapErr(err, "Post", id)
	}
	return &p, nil
}

func (r *postRepository) Create(ctx context.Context, post *database.Post) (err error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "PostRepository.Create", "posts")
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("insert", "posts")()

	return mapErr(r.db.WithContext(ctx).Create(post).Error, "Post", nil)
}

// Update writes title, article and picture.
func (r *postRepository) Update(ctx context.Context, post *database.Post) (err error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "PostRepository.Update", "posts")
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("update", "posts")()

	err = r.db.WithContext(ctx).Model(post).Select("Title", "Article", "PostPicture").Updates(post).Error
	return mapErr(err, "Post", post.ID)
}

// Delete removes the post together with its comments.
func (r *postRepository) Delete(ctx context.Context, id uint) (err error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "PostRepository.Delete", "posts")
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("delete", "posts")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&database.Comment{}).Error; err != nil {
			return mapErr(err, "Comment", nil)
		}
		res := tx.Delete(&database.Post{}, id)
		if res.Error != nil {
			return mapErr(res.Error, "Post", id)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Post", id)
		}
		return nil
	})
}

// IncrementViews adds one view and returns the new count.
func (r *postRepository) IncrementViews(ctx context.Context, id uint) (views int, err error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "PostRepository.IncrementViews", "posts")
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("update", "posts")()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&database.Post{}).Where("id = ?", id).UpdateColumn("views", gorm.Expr("views + ?", 1))
		if res.Error != nil {
			return mapErr(res.Error, "Post", id)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Post", id)
		}
		var p database.Post
		if err := tx.Select("views").First(&p, id).Error; err != nil {
			return mapErr(err, "Post", id)
		}
		views = p.Views
		return nil
	})
	return views, err
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository returns a gorm CommentRepository.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// ListByPost returns the comments of a post, oldest first. Edited comments
// are left out unless includeEdited is set.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint, includeEdited bool) (comments []database.Comment, err error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "CommentRepository.ListByPost", "comments")
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("select", "comments")()

	q := r.db.WithContext(ctx).Where("post_id = ?", postID)
	if !includeEdited {
		q = q.Where("edited = ?", false)
	}
	err = q.Order("created_at ASC").Order("id ASC").Find(&comments).Error
	return comments, mapErr(err, "Comment", nil)
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (comment *database.Comment, err error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "CommentRepository.GetByID", "comments")
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("select", "comments")()

	var cm database.Comment
	if err = r.db.WithContext(ctx).First(&cm, id).Error; err != nil {
		return nil, mapErr(err, "Comment", id)
	}
	return &cm, nil
}

func (r *commentRepository) Create(ctx context.Context, comment *database.Comment) (err error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "CommentRepository.Create", "comments")
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("insert", "comments")()

	return mapErr(r.db.WithContext(ctx).Create(comment).Error, "Comment", nil)
}

// UpdateContent replaces the text and marks the comment edited.
func (r *commentRepository) UpdateContent(ctx context.Context, id uint, content string) (err error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "CommentRepository.UpdateContent", "comments")
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("update", "comments")()

	res := r.db.WithContext(ctx).Model(&database.Comment{}).Where("id = ?", id).
		Updates(map[string]any{"content": content, "edited": true})
	if res.Error != nil {
		return mapErr(res.Error, "Comment", id)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", id)
	}
	return nil
}

func (r *commentRepository) Delete(ctx context.Context, id uint) (err error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "CommentRepository.Delete", "comments")
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("delete", "comments")()

	res := r.db.WithContext(ctx).Delete(&database.Comment{}, id)
	if res.Error != nil {
		return mapErr(res.Error, "Comment", id)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", id)
	}
	return nil
}
