package utils

import (
	"crypto/md5"
	"fmt"
	"strings"
)

// GetGravatarURL builds the avatar URL for an email address. Size defaults
// to 200px; "mp" gives the neutral silhouette for unknown addresses.
func GetGravatarURL(email string, size int) string {
	if size <= 0 {
		size = 200
	}

	email = strings.ToLower(strings.TrimSpace(email))
	hash := md5.Sum([]byte(email))

	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?s=%d&d=mp", hash, size)
}
