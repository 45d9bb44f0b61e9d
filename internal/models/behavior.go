package models

// FocusBehavior is a behavioral category teachers award DB$ for.
type FocusBehavior struct {
	ID              int     `json:"id" db:"id"`
	Name            string  `json:"name" db:"name"`
	Description     *string `json:"description" db:"description"`
	IsSystemDefault bool    `json:"isSystemDefault" db:"is_system_default"`
	IsActive        bool    `json:"isActive" db:"is_active"`
}

// TeacherFocusBehavior links a teacher to one of their selected quick-award
// behaviors. Each teacher keeps 3-5 active selections.
type TeacherFocusBehavior struct {
	ID           int  `json:"id" db:"id"`
	TeacherID    int  `json:"teacherId" db:"teacher_id"`
	BehaviorID   int  `json:"behaviorId" db:"behavior_id"`
	IsActive     bool `json:"isActive" db:"is_active"`
	DisplayOrder int  `json:"displayOrder" db:"display_order"`
}
