package models

// DeletionPolicy says what happens to dependent rows when their parent
// is deleted. Every parent/child relationship must declare one here;
// delete paths walk this table instead of growing ad hoc branches.
type DeletionPolicy int

const (
	// Cascade removes the dependent rows.
	Cascade DeletionPolicy = iota
	// Detach nulls the foreign reference and keeps the rows.
	Detach
)

func (p DeletionPolicy) String() string {
	if p == Cascade {
		return "cascade"
	}
	return "detach"
}

// Entity names used as relation endpoints.
const (
	EntityUser       = "user"
	EntityWorkspace  = "workspace"
	EntityLink       = "link"
	EntityFolder     = "folder"
	EntityFile       = "file"
	EntityPermission = "permission"
)

// Relation declares the policy for one parent/child edge. Field is the
// child's foreign-key field in storage.
type Relation struct {
	Parent string
	Child  string
	Field  string
	Policy DeletionPolicy
}

// DeletionPolicies is the authoritative relationship table. Deleting a
// link keeps its content (folders/files detach to personal) but drops
// its allow-list; only user and workspace deletes cascade through content.
var DeletionPolicies = []Relation{
	{Parent: EntityUser, Child: EntityWorkspace, Field: "user_id", Policy: Cascade},
	{Parent: EntityWorkspace, Child: EntityLink, Field: "workspace_id", Policy: Cascade},
	{Parent: EntityWorkspace, Child: EntityFolder, Field: "workspace_id", Policy: Cascade},
	{Parent: EntityWorkspace, Child: EntityFile, Field: "workspace_id", Policy: Cascade},
	{Parent: EntityLink, Child: EntityPermission, Field: "link_id", Policy: Cascade},
	{Parent: EntityLink, Child: EntityFolder, Field: "link_id", Policy: Detach},
	{Parent: EntityLink, Child: EntityFile, Field: "link_id", Policy: Detach},
	{Parent: EntityFolder, Child: EntityFolder, Field: "parent_id", Policy: Detach},
	{Parent: EntityFolder, Child: EntityFile, Field: "parent_id", Policy: Detach},
}

// RelationsOf returns the declared child relations for a parent entity.
func RelationsOf(parent string) []Relation {
	var out []Relation
	for _, r := range DeletionPolicies {
		if r.Parent == parent {
			out = append(out, r)
		}
	}
	return out
}

// PolicyFor looks up the declared policy for one edge; ok is false when
// the edge was never declared, which callers must treat as a bug.
func PolicyFor(parent, child, field string) (DeletionPolicy, bool) {
	for _, r := range DeletionPolicies {
		if r.Parent == parent && r.Child == child && r.Field == field {
			return r.Policy, true
		}
	}
	return Cascade, false
}
