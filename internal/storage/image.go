package storage

import (
	"fmt"
	"math/rand"
	"net/url"
	"strings"
)

// DefaultImage is the object every new profile points at until an upload replaces it
const DefaultImage = "user.png"

// AllowedImageTypes are the MIME types accepted for profile images
var AllowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

// IsAllowedImageType reports whether contentType may be uploaded
func IsAllowedImageType(contentType string) bool {
	return AllowedImageTypes[strings.ToLower(strings.TrimSpace(contentType))]
}

// ImageObjectName builds "<random number>.<ext>" from the uploaded file name.
// The extension is whatever follows the last dot.
func ImageObjectName(filename string) string {
	ext := "png"
	if i := strings.LastIndex(filename, "."); i >= 0 && i < len(filename)-1 {
		ext = strings.ToLower(filename[i+1:])
	}
	return fmt.Sprintf("%d.%s", rand.Int63n(1_000_000_000_000), ext)
}

// ImageURL is the public, token-carrying URL of an object
func ImageURL(baseURL, key, token string) string {
	u := strings.TrimSuffix(baseURL, "/") + "/" + key + "?alt=media"
	if token != "" {
		u += "&token=" + url.QueryEscape(token)
	}
	return u
}

// DefaultImageURL is the URL of DefaultImage under baseURL
func DefaultImageURL(baseURL string) string {
	return ImageURL(baseURL, DefaultImage, "")
}
