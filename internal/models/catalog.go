package models

// Category tags courses and preferences.
type Category struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// CreateCategoryRequest creates a category.
type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// Course is a catalog entry.
type Course struct {
	ID          string  `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Description string  `db:"description" json:"description"`
	Price       float64 `db:"price" json:"price"`
	Duration    int     `db:"duration" json:"duration"`
}

// CourseInfo is the wire shape with nested categories and instructors.
type CourseInfo struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       float64          `json:"price"`
	Duration    int              `json:"duration"`
	Categories  []Category       `json:"category"`
	Instructors []InstructorInfo `json:"instructors"`
}

// CreateCourseRequest creates a course. The instructor set is always forced to
// the authenticated caller, so no instructor ids are accepted here.
type CreateCourseRequest struct {
	Name        string   `json:"name" validate:"required,max=255"`
	Description string   `json:"description"`
	CategoryIDs []string `json:"category" validate:"required,min=1,dive,required"`
	Price       float64  `json:"price" validate:"gte=0"`
	Duration    int      `json:"duration" validate:"gte=0"`
}

// CourseFilter captures limit/offset paging for the course list.
type CourseFilter struct {
	Limit  int
	Offset int
}
