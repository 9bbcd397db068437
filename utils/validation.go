package utils

import (
	"fmt"
	"mime/multipart"
	"regexp"
	"strings"
	"unicode/utf8"
)

var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Folder and file names share the same rules.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name cannot be empty")
	}

	if len(name) > 255 {
		return fmt.Errorf("name too long (max 255 characters)")
	}

	if !utf8.ValidString(name) {
		return fmt.Errorf("name contains invalid UTF-8 characters")
	}

	invalidChars := []string{"<", ">", ":", "\"", "|", "?", "*", "\x00", "/", "\\"}
	for _, char := range invalidChars {
		if strings.Contains(name, char) {
			return fmt.Errorf("name contains invalid character: %s", char)
		}
	}

	if strings.HasSuffix(name, ".") {
		return fmt.Errorf("name cannot end with a dot")
	}

	return nil
}

// ValidateFileName is slightly looser than folder names: dots and
// extensions are expected.
func ValidateFileName(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	if len(filename) > 255 {
		return fmt.Errorf("filename too long (max 255 characters)")
	}

	if !utf8.ValidString(filename) {
		return fmt.Errorf("filename contains invalid UTF-8 characters")
	}

	invalidChars := []string{"<", ">", ":", "\"", "|", "?", "*", "\x00", "/", "\\"}
	for _, char := range invalidChars {
		if strings.Contains(filename, char) {
			return fmt.Errorf("filename contains invalid character: %s", char)
		}
	}

	return nil
}

func ValidateFileSize(size, maxSize int64) error {
	if size <= 0 {
		return fmt.Errorf("file size must be positive")
	}
	if size > maxSize {
		return fmt.Errorf("file size %d bytes exceeds maximum allowed size of %d bytes", size, maxSize)
	}
	return nil
}

func ValidateFileHeader(header *multipart.FileHeader, maxSize int64) error {
	if err := ValidateFileName(header.Filename); err != nil {
		return err
	}
	return ValidateFileSize(header.Size, maxSize)
}

// ValidateSlug checks the public URL path segment for a link.
func ValidateSlug(slug string) error {
	if len(slug) < 3 || len(slug) > 63 {
		return fmt.Errorf("slug must be between 3 and 63 characters")
	}
	if !slugRegex.MatchString(slug) {
		return fmt.Errorf("slug may only contain lowercase letters, digits and single hyphens")
	}
	return nil
}

// SlugifyUsername derives a slug candidate from a username.
func SlugifyUsername(username string) string {
	slug := strings.ToLower(username)
	var b strings.Builder
	lastHyphen := true
	for _, r := range slug {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}

	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}

	return nil
}

func ValidatePermissionRole(role string) error {
	allowedRoles := []string{"owner", "editor", "uploader"}
	for _, allowedRole := range allowedRoles {
		if role == allowedRole {
			return nil
		}
	}
	return fmt.Errorf("invalid role: %s. Allowed roles: %s", role, strings.Join(allowedRoles, ", "))
}

func ValidateStorageQuota(currentUsage, additionalSize, maxStorage int64) error {
	if currentUsage+additionalSize > maxStorage {
		return fmt.Errorf("storage quota exceeded. Current: %d bytes, Additional: %d bytes, Max: %d bytes",
			currentUsage, additionalSize, maxStorage)
	}
	return nil
}
