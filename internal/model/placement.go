package model

// Placement locates a task (or a rule's future tasks) inside the project /
// heading / area hierarchy. All references are optional.
type Placement struct {
	ProjectID *string `gorm:"index"`
	HeadingID *string
	AreaID    *string `gorm:"index"`
}
