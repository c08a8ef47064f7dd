package media

import (
	"path"
	"strings"
)

// ShardWidth is the number of hash characters used as a key prefix directory.
const ShardWidth = 2

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Extension returns the file extension for a supported image content type.
func Extension(contentType string) (string, bool) {
	ext, ok := extensions[contentType]
	return ext, ok
}

// ComputeKey generates the object key of a listing photo.
//
// Example:
//
//	slug: "restaurants", id: "65a1...", hash: "abcdef..."
//	result: "restaurants/65a1.../ab/abcdef....jpg"
func ComputeKey(slug, listingID, contentHash, ext string) string {
	parts := []string{slug, listingID}
	if len(contentHash) >= ShardWidth {
		parts = append(parts, contentHash[:ShardWidth])
	}
	parts = append(parts, contentHash+ext)
	return path.Join(parts...)
}

// JoinURL joins a base URL and an object key with exactly one slash.
func JoinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
