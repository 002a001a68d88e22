package auth

import (
	"errors"
	"net/http"

	"github.com/dense-analysis/stocker/internal/config"
	"github.com/dense-analysis/stocker/internal/model"
	"github.com/dense-analysis/stocker/internal/route/util"
	"github.com/dense-analysis/stocker/internal/session"
	"github.com/dense-analysis/stocker/internal/template"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var validate = validator.New()

var deniedMessages = map[model.Role]string{
	model.RoleAdmin:  "Access denied. Admins only.",
	model.RoleTrader: "Access denied. Traders only.",
}

// DashboardPath returns the landing page for a role.
func DashboardPath(role model.Role) string {
	if role == model.RoleAdmin {
		return "/admin"
	}

	return "/trader"
}

// HashPassword hashes a password for storage.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// loadSessionUser loads the user saved in the session, if there is one.
func loadSessionUser(db *gorm.DB, request *http.Request) (*model.User, error) {
	actor, ok := session.LoadActor(request)

	if !ok {
		return nil, nil
	}

	var user model.User

	if err := model.FindUserByID(request.Context(), db, &user, actor.UserID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, nil
		}

		return nil, err
	}

	// A role changed since login invalidates the session.
	if user.Role != actor.Role {
		return nil, nil
	}

	return &user, nil
}

// LoadUser puts the logged in user, if any, in the request context.
func LoadUser(db *gorm.DB) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			user, err := loadSessionUser(db, request)

			if err != nil {
				util.RespondInternalServerError(writer, err)

				return
			}

			if user != nil {
				request = request.WithContext(session.WithUser(request.Context(), user))
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// RequireRole only lets users with the given role through.
//
// Anyone else is sent to the login page with a message saying who may enter.
func RequireRole(db *gorm.DB, role model.Role) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			user, err := session.UserFromContext(request.Context())

			if err != nil {
				user, err = loadSessionUser(db, request)

				if err != nil {
					util.RespondInternalServerError(writer, err)

					return
				}
			}

			if user == nil || user.Role != role {
				util.RedirectWithFlash(writer, request, "/login", session.FlashError, deniedMessages[role])

				return
			}

			next.ServeHTTP(writer, request.WithContext(session.WithUser(request.Context(), user)))
		})
	}
}

type LoginForm struct {
	Email    string     `validate:"required,email"`
	Password string     `validate:"required"`
	Role     model.Role `validate:"required,oneof=admin trader"`
}

type LoginPageData struct {
	util.Page
	Email string
	Role  model.Role
}

func HandleViewLoginForm(writer http.ResponseWriter, request *http.Request) {
	data := LoginPageData{Page: util.LoadPage(writer, request), Role: model.RoleTrader}

	template.Render(template.Login, writer, data)
}

func HandleLogin(db *gorm.DB, writer http.ResponseWriter, request *http.Request) {
	request.ParseForm()

	form := LoginForm{
		Email:    request.Form.Get("email"),
		Password: request.Form.Get("password"),
		Role:     model.Role(request.Form.Get("role")),
	}

	var user model.User
	loginValid := false

	if validate.Struct(form) == nil {
		err := model.FindUserByEmail(request.Context(), db, &user, form.Email, form.Role)

		switch {
		case err == nil:
			loginValid = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(form.Password)) == nil
		case !errors.Is(err, model.ErrNotFound):
			util.RespondInternalServerError(writer, err)

			return
		}
	}

	if !loginValid {
		log.WithField("email", form.Email).Info("failed login attempt")
		util.RedirectWithFlash(writer, request, "/login", session.FlashError, "Invalid credentials or role mismatch.")

		return
	}

	if err := session.SaveUserInSession(writer, request, &user); err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	util.RedirectWithFlash(writer, request, DashboardPath(user.Role), session.FlashSuccess, "Login successful!")
}

type SignupForm struct {
	Username string     `validate:"required,max=150"`
	Email    string     `validate:"required,email,max=150"`
	Password string     `validate:"required,min=8,max=72"`
	Role     model.Role `validate:"required,oneof=admin trader"`
}

type SignupPageData struct {
	util.Page
	Username   string
	Email      string
	AllowAdmin bool
	Problems   []string
}

var fieldProblems = map[string]string{
	"Username": "Please enter a username of at most 150 characters.",
	"Email":    "Please enter a valid email address.",
	"Password": "Passwords must be between 8 and 72 characters long.",
	"Role":     "Please choose a valid role.",
}

func describeProblems(err error) []string {
	var validationErrors validator.ValidationErrors

	if !errors.As(err, &validationErrors) {
		return []string{err.Error()}
	}

	problems := make([]string, 0, len(validationErrors))

	for _, fieldError := range validationErrors {
		problems = append(problems, fieldProblems[fieldError.Field()])
	}

	return problems
}

func HandleViewSignupForm(cfg *config.Config, writer http.ResponseWriter, request *http.Request) {
	data := SignupPageData{Page: util.LoadPage(writer, request), AllowAdmin: cfg.AllowAdminSignup}

	template.Render(template.Signup, writer, data)
}

func HandleSignup(db *gorm.DB, cfg *config.Config, writer http.ResponseWriter, request *http.Request) {
	request.ParseForm()

	form := SignupForm{
		Username: request.Form.Get("username"),
		Email:    model.NormalizeEmail(request.Form.Get("email")),
		Password: request.Form.Get("password"),
		Role:     model.Role(request.Form.Get("role")),
	}

	if form.Role == "" {
		form.Role = model.RoleTrader
	}

	var problems []string

	if err := validate.Struct(form); err != nil {
		problems = describeProblems(err)
	} else if form.Role == model.RoleAdmin && !cfg.AllowAdminSignup {
		problems = []string{"Admin accounts cannot be created here."}
	}

	if len(problems) > 0 {
		data := SignupPageData{
			Page:       util.LoadPage(writer, request),
			Username:   form.Username,
			Email:      form.Email,
			AllowAdmin: cfg.AllowAdminSignup,
			Problems:   problems,
		}

		writer.WriteHeader(http.StatusBadRequest)
		template.Render(template.Signup, writer, data)

		return
	}

	var existing model.User

	if err := model.FindUserByEmail(request.Context(), db, &existing, form.Email, ""); err == nil {
		util.RedirectWithFlash(writer, request, "/login", session.FlashWarning, "User already exists. Please login.")

		return
	} else if !errors.Is(err, model.ErrNotFound) {
		util.RespondInternalServerError(writer, err)

		return
	}

	hash, err := HashPassword(form.Password, cfg.BcryptCost)

	if err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	user := model.User{
		Username: form.Username,
		Email:    form.Email,
		Password: hash,
		Role:     form.Role,
	}

	if err := model.CreateUser(request.Context(), db, &user); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			util.RedirectWithFlash(writer, request, "/login", session.FlashWarning, "User already exists. Please login.")
		} else {
			util.RespondInternalServerError(writer, err)
		}

		return
	}

	log.WithFields(log.Fields{"user_id": user.ID, "role": user.Role}).Info("user signed up")
	util.RedirectWithFlash(writer, request, "/login", session.FlashSuccess, "Account created for "+user.Username)
}

func HandleLogout(writer http.ResponseWriter, request *http.Request) {
	if err := session.ClearSession(writer, request); err != nil {
		log.WithError(err).Error("failed to clear session")
	}

	util.RedirectWithFlash(writer, request, "/", session.FlashInfo, "You have been logged out.")
}
