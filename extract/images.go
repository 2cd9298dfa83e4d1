package extract

import (
	"net/url"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// imageKey identifies an image independent of scheme, query string and
// fragment, so CDN cache-busting parameters do not split one image in two.
func imageKey(raw string) uint64 {
	s := strings.TrimSpace(raw)
	if u, err := url.Parse(s); err == nil && u.Host != "" {
		s = strings.ToLower(u.Host) + u.EscapedPath()
	} else {
		s = strings.TrimPrefix(strings.TrimPrefix(s, "https:"), "http:")
		if i := strings.IndexAny(s, "?#"); i >= 0 {
			s = s[:i]
		}
	}
	return xxhash.Sum64String(s)
}

func imageKeys(images []string) map[uint64]struct{} {
	keys := make(map[uint64]struct{}, len(images))
	for _, img := range images {
		keys[imageKey(img)] = struct{}{}
	}
	return keys
}

// DedupeImages drops repeated images, keeping first occurrences in order.
func DedupeImages(images []string) []string {
	seen := make(map[uint64]struct{}, len(images))
	out := make([]string, 0, len(images))
	for _, img := range images {
		if strings.TrimSpace(img) == "" {
			continue
		}
		k := imageKey(img)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, img)
	}
	return out
}

// ExcludeImages returns images without those listed in exclude.
func ExcludeImages(images, exclude []string) []string {
	if len(exclude) == 0 {
		return images
	}
	skip := imageKeys(exclude)
	out := make([]string, 0, len(images))
	for _, img := range images {
		if _, ok := skip[imageKey(img)]; !ok {
			out = append(out, img)
		}
	}
	return out
}

// SharedImages returns the images of a that also appear in b, deduplicated.
// Images shared by two different products belong to the site, not to
// either product.
func SharedImages(a, b []string) []string {
	inB := imageKeys(b)
	var out []string
	for _, img := range DedupeImages(a) {
		if _, ok := inB[imageKey(img)]; ok {
			out = append(out, img)
		}
	}
	return out
}
