package model

// Kind names double as the REST path segment and the collection name.
const (
	KindHero           = "hero"
	KindAbout          = "about"
	KindFooter         = "footer"
	KindGallery        = "gallery"
	KindFilms          = "films"
	KindReviews        = "reviews"
	KindServices       = "services"
	KindStories        = "stories"
	KindTestimonials   = "testimonials"
	KindReels          = "reels"
	KindWeddingGallery = "wedding-gallery"
	KindWeddings       = "weddings"
	KindSections       = "sections"
	KindSettings       = "settings"
	KindAdmins         = "admins"
)

// Collections lists every kind that owns a collection (Mongo) or table (Postgres).
func Collections() []string {
	return []string{
		KindHero,
		KindAbout,
		KindFooter,
		KindGallery,
		KindFilms,
		KindReviews,
		KindServices,
		KindStories,
		KindTestimonials,
		KindReels,
		KindWeddingGallery,
		KindWeddings,
		KindSections,
		KindSettings,
		KindAdmins,
	}
}

// MediaFolders are the kinds uploads may be filed under.
func MediaFolders() []string {
	return []string{
		KindHero,
		KindAbout,
		KindGallery,
		KindFilms,
		KindReviews,
		KindServices,
		KindStories,
		KindTestimonials,
		KindReels,
		KindWeddingGallery,
		KindWeddings,
		KindSettings,
	}
}
