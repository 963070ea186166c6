// Package documents prepares uploaded compliance documents for display.
package documents

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/findmyridesa/provider-admin/app/models"
)

// IsPDF guesses from the URL whether a document is a PDF rather than an
// image. Storage providers rarely keep the extension at the end, so a few
// known markers are accepted as well.
func IsPDF(url string) bool {
	if url == "" {
		return false
	}
	path := strings.ToLower(strings.SplitN(url, "?", 2)[0])
	return strings.HasSuffix(path, ".pdf") ||
		strings.Contains(url, "format=pdf") ||
		strings.Contains(url, "exportFormat=pdf") ||
		strings.Contains(url, "/pdf")
}

// Label turns a document key such as "vehicleRegistration" into
// "VEHICLE REGISTRATION".
func Label(key string) string {
	var b strings.Builder
	for i, r := range key {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// Item is a document ready to render.
type Item struct {
	Key        string     `json:"key"`
	Label      string     `json:"label"`
	URL        string     `json:"url"`
	IsPDF      bool       `json:"isPdf"`
	ExpiryDate *time.Time `json:"expiryDate,omitempty"`
}

// Resolver turns a stored document reference into a URL a browser can open.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// PassThrough returns references unchanged.
type PassThrough struct{}

func (PassThrough) Resolve(_ context.Context, ref string) (string, error) {
	return ref, nil
}

// List resolves every document of a provider, ordered by key. The PDF
// check runs on the stored reference so signing parameters cannot affect it.
func List(ctx context.Context, docs map[string]models.Document, resolver Resolver) ([]Item, error) {
	keys := make([]string, 0, len(docs))
	for k, d := range docs {
		if d.URL != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	items := make([]Item, 0, len(keys))
	for _, k := range keys {
		d := docs[k]
		url, err := resolver.Resolve(ctx, d.URL)
		if err != nil {
			return nil, err
		}
		items = append(items, Item{
			Key:        k,
			Label:      Label(k),
			URL:        url,
			IsPDF:      IsPDF(d.URL),
			ExpiryDate: d.ExpiryDate,
		})
	}
	return items, nil
}
