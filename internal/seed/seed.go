package seed

import (
	_ "embed"
	"fmt"
	"log"
	"sort"

	"avocado/internal/database"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// DemoEmail and DemoNickname identify the account every seed run creates
// first, so there is always a known login.
const (
	DemoEmail    = "demo@avocado.dev"
	DemoNickname = "avocado"
)

// Options controls how much data Seed creates.
type Options struct {
	Users           int   `yaml:"users"`
	Posts           int   `yaml:"posts"`
	CommentsPerPost int   `yaml:"comments_per_post"`
	MaxDays         int   `yaml:"max_days"`
	Clean           bool  `yaml:"clean"`
	RandSeed        int64 `yaml:"-"`
}

// Summary reports what a Seed run wrote.
type Summary struct {
	Users    int
	Posts    int
	Comments int
}

//go:embed presets.yaml
var presetsYAML []byte

// Presets returns the named seed sizes.
func Presets() (map[string]Options, error) {
	presets := make(map[string]Options)
	if err := yaml.Unmarshal(presetsYAML, &presets); err != nil {
		return nil, fmt.Errorf("parsing presets: %w", err)
	}
	return presets, nil
}

// Preset looks up one named seed size.
func Preset(name string) (Options, error) {
	presets, err := Presets()
	if err != nil {
		return Options{}, err
	}
	opts, ok := presets[name]
	if !ok {
		names := make([]string, 0, len(presets))
		for n := range presets {
			names = append(names, n)
		}
		sort.Strings(names)
		return Options{}, fmt.Errorf("unknown preset %q (have %v)", name, names)
	}
	return opts, nil
}

// Clear deletes every comment, post and account.
func Clear(db *gorm.DB) error {
	tx := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped()
	for _, m := range []any{&database.Comment{}, &database.Post{}, &database.User{}} {
		if err := tx.Delete(m).Error; err != nil {
			return fmt.Errorf("clearing %T: %w", m, err)
		}
	}
	return nil
}

// Seed creates the demo account plus opts.Users fake accounts, opts.Posts
// posts and up to opts.CommentsPerPost comments on each post.
func Seed(db *gorm.DB, opts Options) (*Summary, error) {
	if opts.Clean {
		if err := Clear(db); err != nil {
			return nil, err
		}
		log.Println("Cleared existing data")
	}

	f, err := NewFactory(db, opts)
	if err != nil {
		return nil, err
	}

	var demo database.User
	err = db.Where("email = ?", DemoEmail).
		Attrs(*f.BuildUser(func(u *database.User) {
			u.Email = DemoEmail
			u.Nickname = DemoNickname
		})).
		FirstOrCreate(&demo).Error
	if err != nil {
		return nil, fmt.Errorf("creating demo account: %w", err)
	}

	users, err := f.CreateUsers(opts.Users)
	if err != nil {
		return nil, err
	}
	authors := append([]*database.User{&demo}, users...)
	log.Printf("Created %d users", len(users))

	posts, err := f.CreatePosts(authors, opts.Posts)
	if err != nil {
		return nil, err
	}
	log.Printf("Created %d posts", len(posts))

	comments, err := f.CreateComments(posts, authors, opts.CommentsPerPost)
	if err != nil {
		return nil, err
	}
	log.Printf("Created %d comments", comments)

	return &Summary{Users: len(users), Posts: len(posts), Comments: comments}, nil
}
