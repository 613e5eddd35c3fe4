package handlers

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/lmsportal/backend/internal/middleware"
	"github.com/lmsportal/backend/internal/models"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// Messages rendered by the web pages
const (
	msgRegistered         = "Registration successful! You can now log in."
	msgUsernameTaken      = "Username already exists!"
	msgCredentialsMissing = "Username and password are required."
	msgInvalidLogin       = "Invalid username or password."
	msgCourseAdded        = "Course added successfully!"
	msgEnrolledFormat     = "You have been enrolled in %s!"
	msgAlreadyEnrolled    = "You are already enrolled in this course."
	msgInvalidCourse      = "Invalid course."
	msgCourseNotFound     = "Course not found."
)

// Enroll redirect statuses carried in the my-courses query string
const (
	enrollStatusEnrolled = "enrolled"
	enrollStatusAlready  = "already"
)

// AuthService is the interface that wraps methods for account and session handling
type AuthService interface {
	// Method Register creates a non-admin account.
	//
	// Returns models.ErrValidation for empty credentials and models.ErrDuplicateUser for a taken username.
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	// Method Authenticate verifies credentials and issues a session token.
	//
	// Returns models.ErrInvalidCredentials for an unknown user or a wrong password.
	Authenticate(ctx context.Context, req *models.LoginRequest) (*models.SessionToken, error)
}

// CourseService is the interface that wraps methods for the course catalog
type CourseService interface {
	// Method ListCourses returns all courses in id order.
	ListCourses(ctx context.Context) ([]models.Course, error)
	// Method GetCourse returns a course by ID, or models.ErrNotFound.
	GetCourse(ctx context.Context, id int) (*models.Course, error)
	// Method CreateCourse creates a course on behalf of actor.
	//
	// Returns models.ErrPermissionDenied for non-admins and models.ErrValidation for missing fields.
	CreateCourse(ctx context.Context, actor *models.User, req *models.CreateCourseRequest) (*models.Course, error)
}

// EnrollmentService is the interface that wraps methods for enrollments
type EnrollmentService interface {
	// Method Enroll enrolls actor in a course, idempotently.
	//
	// Returns models.ErrNotFound for an unknown course.
	Enroll(ctx context.Context, actor *models.User, courseID int) (*models.EnrollResult, error)
	// Method ListForUser returns the enrollments of actor joined with course data.
	ListForUser(ctx context.Context, actor *models.User) ([]models.EnrollmentWithCourse, error)
}

// pageData is passed to every page template
type pageData struct {
	User        *models.User
	Message     string
	Error       string
	Username    string
	CSRFToken   string
	Courses     []models.Course
	Enrollments []models.EnrollmentWithCourse
}

// WebHandler serves the HTML pages and form submissions
type WebHandler struct {
	BaseHandler
	auth         AuthService
	courses      CourseService
	enrollments  EnrollmentService
	pages        map[string]*template.Template
	cookieSecure bool
}

// NewWebHandler parses the page templates and creates a new web handler
func NewWebHandler(
	auth AuthService,
	courses CourseService,
	enrollments EnrollmentService,
	cookieSecure bool,
	logger *zap.Logger,
) (*WebHandler, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	return &WebHandler{
		BaseHandler:  BaseHandler{logger: logger},
		auth:         auth,
		courses:      courses,
		enrollments:  enrollments,
		pages:        pages,
		cookieSecure: cookieSecure,
	}, nil
}

// parsePages builds one template set per page on top of the shared layout
func parsePages() (map[string]*template.Template, error) {
	names := []string{"home", "register", "login", "courses", "my_courses", "admin", "error"}
	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

// RegisterRoutes registers all page routes
func (h *WebHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Home)
	r.Get("/register", h.RegisterForm)
	r.Post("/register", h.Register)
	r.Get("/login", h.LoginForm)
	r.Post("/login", h.Login)
	r.Get("/logout", h.Logout)
	r.Get("/courses", h.Courses)
	r.Get("/my-courses", h.MyCourses)
	r.Get("/admin", h.AdminForm)
	r.Post("/admin", h.AdminCreateCourse)
	r.Post("/enroll", h.Enroll)
}

// Home handles GET /
func (h *WebHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "home", h.newPage(r))
}

// RegisterForm handles GET /register
func (h *WebHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "register", h.newPage(r))
}

// Register handles POST /register
func (h *WebHandler) Register(w http.ResponseWriter, r *http.Request) {
	data := h.newPage(r)
	req := &models.RegisterRequest{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}

	_, err := h.auth.Register(r.Context(), req)
	switch {
	case err == nil:
		data.Message = msgRegistered
		h.render(w, r, http.StatusOK, "register", data)
	case errors.Is(err, models.ErrValidation):
		data.Error = msgCredentialsMissing
		if strings.TrimSpace(req.Username) != "" && req.Password != "" {
			data.Error = sentence(errorDetail(err, models.ErrValidation))
		}
		data.Username = req.Username
		h.render(w, r, http.StatusBadRequest, "register", data)
	case errors.Is(err, models.ErrDuplicateUser):
		data.Error = msgUsernameTaken
		data.Username = req.Username
		h.render(w, r, http.StatusConflict, "register", data)
	default:
		h.renderError(w, r, err, "failed to register user")
	}
}

// LoginForm handles GET /login
func (h *WebHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "login", h.newPage(r))
}

// Login handles POST /login
func (h *WebHandler) Login(w http.ResponseWriter, r *http.Request) {
	req := &models.LoginRequest{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}

	session, err := h.auth.Authenticate(r.Context(), req)
	if errors.Is(err, models.ErrInvalidCredentials) {
		data := h.newPage(r)
		data.Error = msgInvalidLogin
		data.Username = req.Username
		h.render(w, r, http.StatusUnauthorized, "login", data)
		return
	}
	if err != nil {
		h.renderError(w, r, err, "failed to authenticate user")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles GET /logout.
//
// Only the cookie is cleared; the token itself stays valid until it expires.
func (h *WebHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

// Courses handles GET /courses
func (h *WebHandler) Courses(w http.ResponseWriter, r *http.Request) {
	data := h.newPage(r)
	if data.User == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	h.renderCourses(w, r, http.StatusOK, data)
}

func (h *WebHandler) renderCourses(w http.ResponseWriter, r *http.Request, status int, data *pageData) {
	courses, err := h.courses.ListCourses(r.Context())
	if err != nil {
		h.renderError(w, r, err, "failed to list courses")
		return
	}
	data.Courses = courses
	h.render(w, r, status, "courses", data)
}

// Enroll handles POST /enroll
func (h *WebHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	data := h.newPage(r)
	if data.User == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	courseID, err := strconv.Atoi(r.PostFormValue("course_id"))
	if err != nil || courseID <= 0 {
		data.Error = msgInvalidCourse
		h.renderCourses(w, r, http.StatusBadRequest, data)
		return
	}

	result, err := h.enrollments.Enroll(r.Context(), data.User, courseID)
	if errors.Is(err, models.ErrNotFound) {
		data.Error = msgCourseNotFound
		h.renderCourses(w, r, http.StatusNotFound, data)
		return
	}
	if err != nil {
		h.renderError(w, r, err, "failed to enroll user")
		return
	}

	status := enrollStatusEnrolled
	if !result.Created {
		status = enrollStatusAlready
	}
	query := url.Values{}
	query.Set("status", status)
	query.Set("course", strconv.Itoa(result.Course.ID))
	http.Redirect(w, r, "/my-courses?"+query.Encode(), http.StatusSeeOther)
}

// MyCourses handles GET /my-courses
func (h *WebHandler) MyCourses(w http.ResponseWriter, r *http.Request) {
	data := h.newPage(r)
	if data.User == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	switch r.URL.Query().Get("status") {
	case enrollStatusEnrolled:
		if id, err := strconv.Atoi(r.URL.Query().Get("course")); err == nil {
			if course, err := h.courses.GetCourse(r.Context(), id); err == nil {
				data.Message = fmt.Sprintf(msgEnrolledFormat, course.Title)
			}
		}
	case enrollStatusAlready:
		data.Message = msgAlreadyEnrolled
	}

	enrollments, err := h.enrollments.ListForUser(r.Context(), data.User)
	if err != nil {
		h.renderError(w, r, err, "failed to list enrollments")
		return
	}
	data.Enrollments = enrollments
	h.render(w, r, http.StatusOK, "my_courses", data)
}

// AdminForm handles GET /admin
func (h *WebHandler) AdminForm(w http.ResponseWriter, r *http.Request) {
	data := h.newPage(r)
	if data.User == nil || !data.User.IsAdmin {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	h.render(w, r, http.StatusOK, "admin", data)
}

// AdminCreateCourse handles POST /admin
func (h *WebHandler) AdminCreateCourse(w http.ResponseWriter, r *http.Request) {
	data := h.newPage(r)
	if data.User == nil || !data.User.IsAdmin {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	req := &models.CreateCourseRequest{
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
		Instructor:  r.PostFormValue("instructor"),
	}

	_, err := h.courses.CreateCourse(r.Context(), data.User, req)
	switch {
	case err == nil:
		data.Message = msgCourseAdded
		h.render(w, r, http.StatusOK, "admin", data)
	case errors.Is(err, models.ErrValidation):
		data.Error = "Could not add course: " + errorDetail(err, models.ErrValidation)
		h.render(w, r, http.StatusBadRequest, "admin", data)
	case errors.Is(err, models.ErrPermissionDenied):
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		h.renderError(w, r, err, "failed to create course")
	}
}

// sentence capitalizes detail and terminates it with a period
func sentence(detail string) string {
	first, size := utf8.DecodeRuneInString(detail)
	if size == 0 {
		return detail
	}
	return string(unicode.ToUpper(first)) + detail[size:] + "."
}

// newPage starts page data with the authenticated user, if any
func (h *WebHandler) newPage(r *http.Request) *pageData {
	user, _ := middleware.UserFromContext(r.Context())
	return &pageData{User: user, CSRFToken: middleware.CSRFToken(r.Context())}
}

// render executes a page into a buffer so that a template failure still yields a clean 500
func (h *WebHandler) render(w http.ResponseWriter, r *http.Request, status int, page string, data *pageData) {
	var buf bytes.Buffer
	if err := h.pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		h.logger.Error("failed to render page",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.String("page", page),
			zap.Error(err),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Debug("failed to write page", zap.Error(err))
	}
}

// renderError logs a storage failure and renders the generic error page
func (h *WebHandler) renderError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	h.logger.Error(msg,
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.Error(err),
	)
	h.render(w, r, http.StatusInternalServerError, "error", h.newPage(r))
}
