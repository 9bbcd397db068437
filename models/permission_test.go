package models

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

// PermissionTestSuite tests role ranking and effective-role resolution.
type PermissionTestSuite struct {
	suite.Suite
}

func (s *PermissionTestSuite) TestRoleLevelOrdering() {
	s.Greater(RoleLevel(RoleOwner), RoleLevel(RoleEditor))
	s.Greater(RoleLevel(RoleEditor), RoleLevel(RoleUploader))
	s.Greater(RoleLevel(RoleUploader), 0)
}

func (s *PermissionTestSuite) TestRoleLevelUnknown() {
	s.Equal(0, RoleLevel("admin"))
	s.Equal(0, RoleLevel(""))
}

// TestUnverifiedEditorActsAsUploader: an editor grant is dormant until
// the email is verified.
func (s *PermissionTestSuite) TestUnverifiedEditorActsAsUploader() {
	perm := Permission{Role: RoleEditor, Verified: false}
	s.Equal(RoleUploader, perm.EffectiveRole())

	perm.Verified = true
	s.Equal(RoleEditor, perm.EffectiveRole())
}

func (s *PermissionTestSuite) TestOwnerIsAlwaysEffective() {
	perm := Permission{Role: RoleOwner, Verified: false}
	s.Equal(RoleOwner, perm.EffectiveRole())
}

func (s *PermissionTestSuite) TestHasAtLeast() {
	owner := Permission{Role: RoleOwner, Verified: true}
	s.True(owner.HasAtLeast(RoleUploader))
	s.True(owner.HasAtLeast(RoleEditor))
	s.True(owner.HasAtLeast(RoleOwner))

	pendingEditor := Permission{Role: RoleEditor, Verified: false}
	s.True(pendingEditor.HasAtLeast(RoleUploader))
	s.False(pendingEditor.HasAtLeast(RoleEditor))

	uploader := Permission{Role: RoleUploader}
	s.False(uploader.HasAtLeast("unknown"))
}

func TestPermissionTestSuite(t *testing.T) {
	suite.Run(t, new(PermissionTestSuite))
}
