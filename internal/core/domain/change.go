package domain

// ChangeType describes what happened to a watched file.
type ChangeType string

// Change types reported by folder watchers.
const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// String returns the string representation.
func (c ChangeType) String() string {
	return string(c)
}

// FileChange is a change to one file in a watched folder.
type FileChange struct {
	Type ChangeType

	// Path is the absolute path of the file.
	Path string
}
