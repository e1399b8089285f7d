package types

// PageKind is the classification of a visited page.
type PageKind int

const (
	KindUnsupported PageKind = iota
	KindVideo
	KindGallery
	KindLiveBlog
	KindStandardArticle
)

func (k PageKind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindGallery:
		return "gallery"
	case KindLiveBlog:
		return "live_blog"
	case KindStandardArticle:
		return "standard_article"
	default:
		return "unsupported"
	}
}

// Terminal returns true for kinds that are recognized but never extracted.
func (k PageKind) Terminal() bool {
	return k == KindVideo || k == KindGallery
}
