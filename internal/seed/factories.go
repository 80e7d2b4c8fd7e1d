// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"math/rand"
	"strings"
	"time"

	"fitcraft/internal/models"
	"fitcraft/internal/storage"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password every seeded account gets.
const DefaultPassword = "password123"

var fitnessTags = []string{
	"fitness", "legday", "cardio", "running", "yoga", "crossfit", "powerlifting",
	"mobility", "hiit", "cycling", "swimming", "nutrition", "mealprep", "gains",
	"recovery", "stretching", "bodyweight", "kettlebell", "marathon", "pushday",
}

var captionTemplates = []string{
	"%s session done. Feeling %s.",
	"New PR today on %s! %s vibes.",
	"Morning %s before work. Stay %s.",
	"Rest day tomorrow, %s today. %s.",
	"Week %d of the program: %s and %s.",
}

var workouts = []string{"squat", "deadlift", "bench", "5k run", "row", "swim", "spin class", "yoga flow", "hill sprints"}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	db    *gorm.DB
	blobs storage.BlobStore
	opts  Options
	rng   *rand.Rand
	// synthetic ID counter when running in DryRun mode
	nextID uint
	hash   string
}

// NewFactory creates a new Factory bound to the provided Gorm DB and blob store.
func NewFactory(db *gorm.DB, blobs storage.BlobStore, opts Options) *Factory {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)
	// #nosec G404: acceptable for seeding
	return &Factory{db: db, blobs: blobs, opts: opts, rng: rand.New(rand.NewSource(seed)), nextID: 1000}
}

func (f *Factory) passwordHash() (string, error) {
	if f.hash != "" {
		return f.hash, nil
	}
	cost := bcrypt.DefaultCost
	if f.opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return "", fmt.Errorf("hash seed password: %w", err)
	}
	f.hash = string(hashed)
	return f.hash, nil
}

// BuildUser constructs a user with its profile but does not persist it.
func (f *Factory) BuildUser(overrides ...func(*models.User)) (*models.User, error) {
	hash, err := f.passwordHash()
	if err != nil {
		return nil, err
	}

	first := gofakeit.FirstName()
	last := gofakeit.LastName()
	email := strings.ToLower(fmt.Sprintf("%s.%s%d@example.com", first, last, gofakeit.Number(100, 9999)))
	age := uint(gofakeit.Number(18, 70))
	height := uint(gofakeit.Number(150, 200))
	weight := uint(gofakeit.Number(50, 120))

	user := &models.User{
		Username:  email,
		Email:     email,
		Password:  hash,
		FirstName: first,
		IsActive:  true,
		Profile: &models.Profile{
			FullName: first + " " + last,
			Bio:      truncate(gofakeit.Sentence(8), models.MaxBioLength),
			Gender:   gofakeit.RandomString([]string{"female", "male", "non-binary", ""}),
			Age:      &age,
			HeightCm: &height,
			WeightKg: &weight,
		},
	}

	for _, override := range overrides {
		override(user)
	}
	return user, nil
}

// CreateUser constructs and persists a sample user and profile.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	user, err := f.BuildUser(overrides...)
	if err != nil {
		return nil, err
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		log.Printf("[dry-run] CreateUser: %s", user.Email)
		return user, nil
	}

	profile := user.Profile
	err = f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Profile").Create(user).Error; err != nil {
			return err
		}
		profile.UserID = user.ID
		return tx.Create(profile).Error
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs a post for user with a caption, hashtags and a
// created_at spread over the last MaxDays. The image is left empty.
func (f *Factory) BuildPost(user *models.User, overrides ...func(*models.Post)) *models.Post {
	post := &models.Post{
		UserID:   user.ID,
		Caption:  f.caption(),
		Hashtags: f.hashtags(),
	}

	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	daysBack := f.rng.Intn(maxDays)
	hoursBack := f.rng.Intn(24)
	minsBack := f.rng.Intn(60)
	post.CreatedAt = time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour - time.Duration(minsBack)*time.Minute)
	post.UpdatedAt = post.CreatedAt

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePost builds a post, uploads a generated image for it and persists it.
func (f *Factory) CreatePost(ctx context.Context, user *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(user, overrides...)

	if f.opts.DryRun {
		f.nextID++
		post.ID = f.nextID
		post.Image = storage.PostDir(user.ID) + "/dry-run.png"
		log.Printf("[dry-run] CreatePost: user=%d caption=%q", post.UserID, post.Caption)
		return post, nil
	}

	if post.Image == "" {
		key, err := f.blobs.Save(ctx, storage.PostDir(user.ID), gofakeit.Word()+".png", f.photo())
		if err != nil {
			return nil, fmt.Errorf("save seed image: %w", err)
		}
		post.Image = key
	}

	if err := f.db.WithContext(ctx).Omit("User").Create(post).Error; err != nil {
		_ = f.blobs.Delete(ctx, post.Image)
		return nil, err
	}
	return post, nil
}

func (f *Factory) caption() string {
	tpl := captionTemplates[f.rng.Intn(len(captionTemplates))]
	workout := workouts[f.rng.Intn(len(workouts))]
	var caption string
	switch strings.Count(tpl, "%") {
	case 3:
		caption = fmt.Sprintf(tpl, f.rng.Intn(12)+1, workout, gofakeit.Adjective())
	default:
		caption = fmt.Sprintf(tpl, workout, gofakeit.Adjective())
	}
	return truncate(caption, models.MaxCaptionLength)
}

func (f *Factory) hashtags() []string {
	n := f.rng.Intn(5)
	tags := make([]string, 0, n)
	seen := map[string]bool{}
	for len(tags) < n {
		tag := fitnessTags[f.rng.Intn(len(fitnessTags))]
		if seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

// photo renders a small gradient PNG in a random color.
func (f *Factory) photo() []byte {
	const size = 64
	base := color.RGBA{R: uint8(f.rng.Intn(256)), G: uint8(f.rng.Intn(256)), B: uint8(f.rng.Intn(256)), A: 255}
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			shade := uint8((x + y) * 2)
			img.Set(x, y, color.RGBA{R: base.R ^ shade, G: base.G, B: base.B ^ shade, A: 255})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
