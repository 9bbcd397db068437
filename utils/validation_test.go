package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

// ValidationTestSuite tests the input validators shared by the API
// surface.
type ValidationTestSuite struct {
	suite.Suite
}

func (s *ValidationTestSuite) TestValidateName() {
	s.NoError(ValidateName("Wedding Photos"))
	s.NoError(ValidateName("2026 — tax documents"))

	s.Error(ValidateName(""))
	s.Error(ValidateName("   "))
	s.Error(ValidateName(strings.Repeat("a", 256)))
	s.Error(ValidateName("photos/2026"))
}

func (s *ValidationTestSuite) TestValidateFileName() {
	s.NoError(ValidateFileName("report.pdf"))
	s.NoError(ValidateFileName("w2 (1).pdf"))

	s.Error(ValidateFileName(""))
	s.Error(ValidateFileName("../etc/passwd"))
	s.Error(ValidateFileName("nul\x00byte.txt"))
}

func (s *ValidationTestSuite) TestValidateSlug() {
	valid := []string{"wedding-photos", "abc", "tax-docs-2026", "a1b2c3"}
	for _, slug := range valid {
		s.NoError(ValidateSlug(slug), "slug %q should be valid", slug)
	}

	invalid := []string{"", "ab", "UPPER", "two--dashes", "-leading", "trailing-", "with space", strings.Repeat("a", 64)}
	for _, slug := range invalid {
		s.Error(ValidateSlug(slug), "slug %q should be invalid", slug)
	}
}

func (s *ValidationTestSuite) TestSlugifyUsername() {
	s.Equal("jane-doe", SlugifyUsername("Jane Doe"))
	s.Equal("jane-example-com", SlugifyUsername("jane@example.com"))
	s.Equal("j-d", SlugifyUsername("J_D"))
}

func (s *ValidationTestSuite) TestValidateEmail() {
	s.NoError(ValidateEmail("contributor@example.com"))
	s.Error(ValidateEmail(""))
	s.Error(ValidateEmail("not-an-email"))
	s.Error(ValidateEmail("missing@domain"))
}

func (s *ValidationTestSuite) TestValidatePermissionRole() {
	s.NoError(ValidatePermissionRole("owner"))
	s.NoError(ValidatePermissionRole("editor"))
	s.NoError(ValidatePermissionRole("uploader"))
	s.Error(ValidatePermissionRole("admin"))
	s.Error(ValidatePermissionRole(""))
}

func (s *ValidationTestSuite) TestValidateStorageQuota() {
	s.NoError(ValidateStorageQuota(0, 100, 1000))
	s.NoError(ValidateStorageQuota(900, 100, 1000))
	s.Error(ValidateStorageQuota(950, 100, 1000))
}

func (s *ValidationTestSuite) TestValidateFileSize() {
	s.NoError(ValidateFileSize(1, 100))
	s.NoError(ValidateFileSize(100, 100))
	s.Error(ValidateFileSize(0, 100))
	s.Error(ValidateFileSize(101, 100))
}

func TestValidationTestSuite(t *testing.T) {
	suite.Run(t, new(ValidationTestSuite))
}
