package models

// Enrollment links one user to one course.
//
// The pair (UserID, CourseID) is unique.
type Enrollment struct {
	ID       int `json:"id"`
	UserID   int `json:"userId"`
	CourseID int `json:"courseId"`
}

// EnrollmentWithCourse represents an enrollment joined with its course
type EnrollmentWithCourse struct {
	EnrollmentID int    `json:"enrollmentId"`
	Course       Course `json:"course"`
}

// EnrollResult is returned by the enrollment service.
//
// Created is false when the enrollment already existed.
type EnrollResult struct {
	Enrollment *Enrollment
	Course     *Course
	Created    bool
}

// EnrollmentResource is the wire schema of the enrollment REST resource.
//
// "user" and "course" hold ids.
type EnrollmentResource struct {
	ID     int `json:"id"`
	User   int `json:"user" validate:"required,gt=0"`
	Course int `json:"course" validate:"required,gt=0"`
}

// EnrollmentPatch represents a partial update of the enrollment REST resource
type EnrollmentPatch struct {
	User   *int `json:"user,omitempty" validate:"omitempty,gt=0"`
	Course *int `json:"course,omitempty" validate:"omitempty,gt=0"`
}

// NewEnrollmentResource converts an enrollment into its wire schema
func NewEnrollmentResource(e *Enrollment) EnrollmentResource {
	return EnrollmentResource{
		ID:     e.ID,
		User:   e.UserID,
		Course: e.CourseID,
	}
}
