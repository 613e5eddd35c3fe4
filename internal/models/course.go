package models

// DefaultInstructor is used when a course is created without an instructor name
const DefaultInstructor = "Admin"

// Course represents a course in the catalog
type Course struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Instructor  string `json:"instructor"`
}

// CreateCourseRequest represents the admin course creation form
type CreateCourseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Instructor  string `json:"instructor"`
}

// CourseResource is the wire schema of the course REST resource.
//
// The field list is the contract of /api/courses.
type CourseResource struct {
	ID          int    `json:"id"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
	Instructor  string `json:"instructor" validate:"max=100"`
}

// CoursePatch represents a partial update of the course REST resource
type CoursePatch struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,min=1"`
	Instructor  *string `json:"instructor,omitempty" validate:"omitempty,max=100"`
}

// ToCourse converts the resource into a course, applying the instructor default
func (c CourseResource) ToCourse() *Course {
	instructor := c.Instructor
	if instructor == "" {
		instructor = DefaultInstructor
	}
	return &Course{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Instructor:  instructor,
	}
}

// NewCourseResource converts a course into its wire schema
func NewCourseResource(c *Course) CourseResource {
	return CourseResource{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Instructor:  c.Instructor,
	}
}
