// Package seed fills the development API database with fake accounts, posts
// and comments. It is meant for local development and tests only.
package seed

import (
	"fmt"
	"strings"
	"time"

	"avocado/internal/database"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password"

// Factory builds rows with gofakeit and persists them.
type Factory struct {
	db    *gorm.DB
	faker *gofakeit.Faker
	opts  Options
	hash  string
	// nicknames handed out so far; the column is unique
	taken map[string]bool
}

// NewFactory creates a Factory. A zero opts.RandSeed seeds from the clock.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing seed password: %w", err)
	}
	return &Factory{
		db:    db,
		faker: gofakeit.New(seed),
		opts:  opts,
		hash:  string(hash),
		taken: make(map[string]bool),
	}, nil
}

func (f *Factory) nickname() string {
	for {
		n := strings.ToLower(f.faker.Username())
		if len(n) > 24 {
			n = n[:24]
		}
		if !f.taken[n] {
			f.taken[n] = true
			return n
		}
		n = fmt.Sprintf("%s%d", n, f.faker.Number(100, 999))
		if !f.taken[n] {
			f.taken[n] = true
			return n
		}
	}
}

// BuildUser returns an unsaved account. Overrides run last.
func (f *Factory) BuildUser(overrides ...func(*database.User)) *database.User {
	nick := f.nickname()
	user := &database.User{
		Nickname:       nick,
		Email:          nick + "@" + f.faker.DomainName(),
		Password:       f.hash,
		ProfilePicture: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
	}
	for _, override := range overrides {
		override(user)
	}
	f.taken[user.Nickname] = true
	return user
}

// BuildPost returns an unsaved post by author, dated within the last
// opts.MaxDays days.
func (f *Factory) BuildPost(author *database.User, overrides ...func(*database.Post)) *database.Post {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.faker.Number(0, maxDays*24*60)) * time.Minute
	created := time.Now().Add(-back).Truncate(time.Second)

	post := &database.Post{
		UserID:      author.ID,
		Title:       strings.TrimSuffix(f.faker.Sentence(f.faker.Number(3, 7)), "."),
		Article:     f.faker.Paragraph(f.faker.Number(1, 3), 4, 10, "\n\n"),
		PostPicture: fmt.Sprintf("https://picsum.photos/seed/%s/800/600", f.faker.UUID()),
		Likes:       f.faker.Number(0, 50),
		Views:       f.faker.Number(0, 500),
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	// Some posts go without a picture.
	if f.faker.Number(1, 5) == 1 {
		post.PostPicture = ""
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// BuildComment returns an unsaved comment by author on post, written after
// the post. Roughly one in eight is marked edited.
func (f *Factory) BuildComment(post *database.Post, author *database.User) *database.Comment {
	minutes := int(time.Since(post.CreatedAt) / time.Minute)
	created := post.CreatedAt.Add(time.Duration(f.faker.Number(0, max(minutes, 0))) * time.Minute)
	return &database.Comment{
		PostID:    post.ID,
		UserID:    author.ID,
		Content:   f.faker.Sentence(f.faker.Number(4, 16)),
		Edited:    f.faker.Number(1, 8) == 1,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

// CreateUsers persists n fake accounts.
func (f *Factory) CreateUsers(n int) ([]*database.User, error) {
	users := make([]*database.User, 0, n)
	for i := 0; i < n; i++ {
		users = append(users, f.BuildUser())
	}
	if len(users) == 0 {
		return users, nil
	}
	if err := f.db.CreateInBatches(users, 100).Error; err != nil {
		return nil, fmt.Errorf("creating users: %w", err)
	}
	return users, nil
}

// CreatePosts persists n posts by random authors.
func (f *Factory) CreatePosts(authors []*database.User, n int) ([]*database.Post, error) {
	if len(authors) == 0 || n <= 0 {
		return nil, nil
	}
	posts := make([]*database.Post, 0, n)
	for i := 0; i < n; i++ {
		posts = append(posts, f.BuildPost(authors[f.faker.Number(0, len(authors)-1)]))
	}
	if err := f.db.CreateInBatches(posts, 100).Error; err != nil {
		return nil, fmt.Errorf("creating posts: %w", err)
	}
	return posts, nil
}

// CreateComments gives every post between zero and perPost comments.
func (f *Factory) CreateComments(posts []*database.Post, authors []*database.User, perPost int) (int, error) {
	if len(authors) == 0 || perPost <= 0 {
		return 0, nil
	}
	var comments []*database.Comment
	for _, p := range posts {
		for i, count := 0, f.faker.Number(0, perPost); i < count; i++ {
			comments = append(comments, f.BuildComment(p, authors[f.faker.Number(0, len(authors)-1)]))
		}
	}
	if len(comments) == 0 {
		return 0, nil
	}
	if err := f.db.CreateInBatches(comments, 200).Error; err != nil {
		return 0, fmt.Errorf("creating comments: %w", err)
	}
	return len(comments), nil
}
