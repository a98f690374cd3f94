package domain

import "context"

// Product is the slice of a catalog entry the slideshow pipeline cares
// about: where its images live.
type Product struct {
	ID         string
	MediaURLs  []string
	PreviewURL string
	Link       string
}

// SlideURLs resolves the ordered image URLs for one product: the expanded
// media list when present, otherwise the single preview (or link) fallback.
func (p Product) SlideURLs() []string {
	if len(p.MediaURLs) > 0 {
		return p.MediaURLs
	}
	if p.PreviewURL != "" {
		return []string{p.PreviewURL}
	}
	if p.Link != "" {
		return []string{p.Link}
	}
	return nil
}

// ProductLister provides the ordered catalog contents for one store
// category. The ordering it returns determines slide order.
type ProductLister interface {
	ListByCategory(ctx context.Context, ownerID, categoryID string) ([]Product, error)
}
