package model

import (
	"strconv"
	"strings"
	"time"

	"studioapi/internal/theme"
)

// Normalizer is implemented by entities that derive fields before validation.
type Normalizer interface {
	Normalize()
}

// Hero is a slide of the landing page hero carousel.
type Hero struct {
	Base     `bson:",inline"`
	Title    string `json:"title" bson:"title"`
	Subtitle string `json:"subtitle,omitempty" bson:"subtitle,omitempty"`
	Media    Asset  `json:"media" bson:"media"`
	CTALabel string `json:"cta_label,omitempty" bson:"cta_label,omitempty"`
	CTALink  string `json:"cta_link,omitempty" bson:"cta_link,omitempty"`
}

func (h *Hero) Validate() error {
	return firstError(
		required("title", h.Title),
		requireAsset("media", h.Media),
		optionalLink("cta_link", h.CTALink),
	)
}

func (h *Hero) Assets() []Asset { return collect(h.Media) }

// About is the studio introduction block.
type About struct {
	Base            `bson:",inline"`
	Heading         string   `json:"heading" bson:"heading"`
	Body            string   `json:"body" bson:"body"`
	Image           Asset    `json:"image" bson:"image"`
	Highlights      []string `json:"highlights,omitempty" bson:"highlights,omitempty"`
	YearsExperience int      `json:"years_experience,omitempty" bson:"years_experience,omitempty"`
	WeddingsShot    int      `json:"weddings_shot,omitempty" bson:"weddings_shot,omitempty"`
}

func (a *About) Validate() error {
	return firstError(
		required("heading", a.Heading),
		required("body", a.Body),
		checkAsset("image", a.Image),
		nonNegative("years_experience", a.YearsExperience),
		nonNegative("weddings_shot", a.WeddingsShot),
	)
}

func (a *About) Assets() []Asset { return collect(a.Image) }

// FooterLink is one link rendered in a footer column.
type FooterLink struct {
	Base  `bson:",inline"`
	Label string `json:"label" bson:"label"`
	URL   string `json:"url" bson:"url"`
	Group string `json:"group" bson:"group"`
	Icon  string `json:"icon,omitempty" bson:"icon,omitempty"`
	Order int    `json:"order" bson:"order"`
}

func (f *FooterLink) Normalize() { f.Group = theme.Normalize(f.Group) }

func (f *FooterLink) Validate() error {
	return firstError(
		required("label", f.Label),
		checkLink("url", f.URL),
		required("group", f.Group),
	)
}

func (f *FooterLink) Assets() []Asset { return nil }

// GalleryImage is a single portfolio photograph.
type GalleryImage struct {
	Base         `bson:",inline"`
	Title        string `json:"title,omitempty" bson:"title,omitempty"`
	Alt          string `json:"alt,omitempty" bson:"alt,omitempty"`
	Category     string `json:"category" bson:"category"`
	CategorySlug string `json:"category_slug" bson:"category_slug"`
	Image        Asset  `json:"image" bson:"image"`
	Order        int    `json:"order" bson:"order"`
}

func (g *GalleryImage) Normalize() { g.CategorySlug = theme.Normalize(g.Category) }

func (g *GalleryImage) Validate() error {
	return firstError(
		required("category", g.Category),
		requireAsset("image", g.Image),
	)
}

func (g *GalleryImage) Assets() []Asset { return collect(g.Image) }

// Film is a wedding film, either uploaded or embedded from a video host.
type Film struct {
	Base        `bson:",inline"`
	Title       string `json:"title" bson:"title"`
	Couple      string `json:"couple,omitempty" bson:"couple,omitempty"`
	Location    string `json:"location,omitempty" bson:"location,omitempty"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
	Video       Asset  `json:"video" bson:"video"`
	EmbedURL    string `json:"embed_url,omitempty" bson:"embed_url,omitempty"`
	Thumbnail   Asset  `json:"thumbnail" bson:"thumbnail"`
}

func (f *Film) Validate() error {
	if f.Video.IsZero() && f.EmbedURL == "" {
		return invalid("video", "a video upload or embed_url is required")
	}
	return firstError(
		required("title", f.Title),
		checkAsset("video", f.Video),
		optionalLink("embed_url", f.EmbedURL),
		checkAsset("thumbnail", f.Thumbnail),
	)
}

func (f *Film) Assets() []Asset { return collect(f.Video, f.Thumbnail) }

// Review is a rated client review.
type Review struct {
	Base    `bson:",inline"`
	Name    string `json:"name" bson:"name"`
	Rating  int    `json:"rating" bson:"rating"`
	Message string `json:"message" bson:"message"`
	Source  string `json:"source,omitempty" bson:"source,omitempty"`
	Date    string `json:"date,omitempty" bson:"date,omitempty"`
	Avatar  Asset  `json:"avatar" bson:"avatar"`
}

func (r *Review) Validate() error {
	var rating error
	if r.Rating < 1 || r.Rating > 5 {
		rating = invalid("rating", "must be between 1 and 5")
	}
	return firstError(
		required("name", r.Name),
		rating,
		required("message", r.Message),
		optionalDate("date", r.Date),
		checkAsset("avatar", r.Avatar),
	)
}

func (r *Review) Assets() []Asset { return collect(r.Avatar) }

// Service is a photography package offered by the studio.
type Service struct {
	Base        `bson:",inline"`
	Title       string   `json:"title" bson:"title"`
	Description string   `json:"description" bson:"description"`
	Price       string   `json:"price,omitempty" bson:"price,omitempty"`
	Features    []string `json:"features,omitempty" bson:"features,omitempty"`
	Image       Asset    `json:"image" bson:"image"`
	Order       int      `json:"order" bson:"order"`
}

func (s *Service) Validate() error {
	return firstError(
		required("title", s.Title),
		required("description", s.Description),
		checkAsset("image", s.Image),
	)
}

func (s *Service) Assets() []Asset { return collect(s.Image) }

// Story is a long-form wedding story with a photo set.
type Story struct {
	Base         `bson:",inline"`
	Title        string  `json:"title" bson:"title"`
	Couple       string  `json:"couple" bson:"couple"`
	Location     string  `json:"location,omitempty" bson:"location,omitempty"`
	Date         string  `json:"date,omitempty" bson:"date,omitempty"`
	Category     string  `json:"category,omitempty" bson:"category,omitempty"`
	CategorySlug string  `json:"category_slug,omitempty" bson:"category_slug,omitempty"`
	Body         string  `json:"body,omitempty" bson:"body,omitempty"`
	Featured     bool    `json:"featured" bson:"featured"`
	Cover        Asset   `json:"cover" bson:"cover"`
	Images       []Asset `json:"images,omitempty" bson:"images,omitempty"`
}

func (s *Story) Normalize() { s.CategorySlug = theme.Normalize(s.Category) }

func (s *Story) Validate() error {
	return firstError(
		required("title", s.Title),
		required("couple", s.Couple),
		optionalDate("date", s.Date),
		requireAsset("cover", s.Cover),
		checkAssets("images", s.Images),
	)
}

func (s *Story) Assets() []Asset { return collect(append([]Asset{s.Cover}, s.Images...)...) }

// Testimonial is a quote from a couple.
type Testimonial struct {
	Base     `bson:",inline"`
	Couple   string `json:"couple" bson:"couple"`
	Quote    string `json:"quote" bson:"quote"`
	Location string `json:"location,omitempty" bson:"location,omitempty"`
	Image    Asset  `json:"image" bson:"image"`
}

func (t *Testimonial) Validate() error {
	return firstError(
		required("couple", t.Couple),
		required("quote", t.Quote),
		checkAsset("image", t.Image),
	)
}

func (t *Testimonial) Assets() []Asset { return collect(t.Image) }

// Reel is a short vertical video clip.
type Reel struct {
	Base      `bson:",inline"`
	Title     string `json:"title,omitempty" bson:"title,omitempty"`
	Caption   string `json:"caption,omitempty" bson:"caption,omitempty"`
	Video     Asset  `json:"video" bson:"video"`
	Thumbnail Asset  `json:"thumbnail" bson:"thumbnail"`
}

func (r *Reel) Validate() error {
	return firstError(
		requireAsset("video", r.Video),
		checkAsset("thumbnail", r.Thumbnail),
	)
}

func (r *Reel) Assets() []Asset { return collect(r.Video, r.Thumbnail) }

// WeddingGallery is an album of images for one category.
type WeddingGallery struct {
	Base         `bson:",inline"`
	Title        string  `json:"title" bson:"title"`
	Category     string  `json:"category,omitempty" bson:"category,omitempty"`
	CategorySlug string  `json:"category_slug,omitempty" bson:"category_slug,omitempty"`
	Images       []Asset `json:"images" bson:"images"`
}

func (w *WeddingGallery) Normalize() { w.CategorySlug = theme.Normalize(w.Category) }

func (w *WeddingGallery) Validate() error {
	if len(w.Images) == 0 {
		return invalid("images", "at least one image is required")
	}
	return firstError(
		required("title", w.Title),
		checkAssets("images", w.Images),
	)
}

func (w *WeddingGallery) Assets() []Asset { return collect(w.Images...) }

// Wedding is a featured wedding card.
type Wedding struct {
	Base         `bson:",inline"`
	Couple       string `json:"couple" bson:"couple"`
	Venue        string `json:"venue,omitempty" bson:"venue,omitempty"`
	Location     string `json:"location,omitempty" bson:"location,omitempty"`
	Date         string `json:"date,omitempty" bson:"date,omitempty"`
	Category     string `json:"category,omitempty" bson:"category,omitempty"`
	CategorySlug string `json:"category_slug,omitempty" bson:"category_slug,omitempty"`
	Description  string `json:"description,omitempty" bson:"description,omitempty"`
	Cover        Asset  `json:"cover" bson:"cover"`
}

func (w *Wedding) Normalize() { w.CategorySlug = theme.Normalize(w.Category) }

func (w *Wedding) Validate() error {
	return firstError(
		required("couple", w.Couple),
		optionalDate("date", w.Date),
		requireAsset("cover", w.Cover),
	)
}

func (w *Wedding) Assets() []Asset { return collect(w.Cover) }

// Section groups stories under a heading on the marketing site.
type Section struct {
	Base        `bson:",inline"`
	Title       string   `json:"title" bson:"title"`
	Slug        string   `json:"slug" bson:"slug"`
	Description string   `json:"description,omitempty" bson:"description,omitempty"`
	StoryIDs    []string `json:"story_ids" bson:"story_ids"`
	Order       int      `json:"order" bson:"order"`
}

func (s *Section) Normalize() {
	if s.Slug == "" {
		s.Slug = s.Title
	}
	s.Slug = theme.Normalize(s.Slug)
	s.StoryIDs = dedupe(s.StoryIDs)
}

func (s *Section) Validate() error {
	return firstError(
		required("title", s.Title),
		required("slug", s.Slug),
	)
}

func (s *Section) Assets() []Asset { return nil }

// SettingsID is the fixed id of the site settings singleton.
const SettingsID = "site"

// Settings holds site-wide contact and branding details.
type Settings struct {
	Base         `bson:",inline"`
	SiteName     string            `json:"site_name" bson:"site_name"`
	Tagline      string            `json:"tagline,omitempty" bson:"tagline,omitempty"`
	ContactEmail string            `json:"contact_email,omitempty" bson:"contact_email,omitempty"`
	Phone        string            `json:"phone,omitempty" bson:"phone,omitempty"`
	WhatsApp     string            `json:"whatsapp,omitempty" bson:"whatsapp,omitempty"`
	Address      string            `json:"address,omitempty" bson:"address,omitempty"`
	Social       map[string]string `json:"social,omitempty" bson:"social,omitempty"`
	Logo         Asset             `json:"logo" bson:"logo"`
}

func (s *Settings) Validate() error {
	var email error
	if s.ContactEmail != "" && !looksLikeEmail(s.ContactEmail) {
		email = invalid("contact_email", "must be a valid email address")
	}
	var social error
	for name, link := range s.Social {
		if err := checkLink("social."+name, link); err != nil {
			social = err
			break
		}
	}
	return firstError(
		required("site_name", s.SiteName),
		email,
		social,
		checkAsset("logo", s.Logo),
	)
}

func (s *Settings) Assets() []Asset { return collect(s.Logo) }

// Admin is a dashboard user.
type Admin struct {
	Base         `bson:",inline"`
	Email        string     `json:"email" bson:"email"`
	Name         string     `json:"name,omitempty" bson:"name,omitempty"`
	PasswordHash string     `json:"password_hash,omitempty" bson:"password_hash"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" bson:"last_login_at,omitempty"`
}

func (a *Admin) Normalize() { a.Email = NormalizeEmail(a.Email) }

func (a *Admin) Validate() error {
	var email error
	if !looksLikeEmail(a.Email) {
		email = invalid("email", "must be a valid email address")
	}
	return firstError(
		required("email", a.Email),
		email,
		required("password_hash", a.PasswordHash),
	)
}

func (a *Admin) Assets() []Asset { return nil }

// AdminView is the public projection of an Admin; it never carries the hash.
type AdminView struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// View strips credentials from the admin record.
func (a *Admin) View() AdminView {
	return AdminView{ID: a.ID, Email: a.Email, Name: a.Name, LastLoginAt: a.LastLoginAt}
}

// NormalizeEmail lower-cases and trims an email for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func looksLikeEmail(v string) bool {
	at := strings.LastIndex(v, "@")
	return at > 0 && at < len(v)-1 && !strings.ContainsAny(v, " \t\n")
}

func optionalLink(field, v string) error {
	if v == "" {
		return nil
	}
	return checkLink(field, v)
}

func optionalDate(field, v string) error {
	if v == "" {
		return nil
	}
	if _, err := time.Parse(time.DateOnly, v); err != nil {
		return invalid(field, "must be a YYYY-MM-DD date")
	}
	return nil
}

func nonNegative(field string, v int) error {
	if v < 0 {
		return invalid(field, "must not be negative")
	}
	return nil
}

func checkAssets(field string, assets []Asset) error {
	for i, a := range assets {
		if a.IsZero() {
			return invalid(fieldIndex(field, i), "is empty")
		}
		if err := checkAsset(fieldIndex(field, i), a); err != nil {
			return err
		}
	}
	return nil
}

func fieldIndex(field string, i int) string {
	return field + "[" + strconv.Itoa(i) + "]"
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
