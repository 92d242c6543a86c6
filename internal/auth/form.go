package auth

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/papr-project/papr/internal/backend"
)

// Mode selects between the two faces of the auth form.
type Mode string

const (
	ModeLogin  Mode = "login"
	ModeSignup Mode = "signup"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FormState carries the form fields, per-field validation errors, and the
// whole-form error used for remote failures.
type FormState struct {
	Mode           Mode
	Username       string
	Email          string
	Password       string
	RepeatPassword string
	IsSubmitting   bool
	ErrorMessage   string
	FieldErrors    map[string]string
}

// Form validates and submits login/register requests. On success the session
// is handed to the auth coordinator, which persists the token.
type Form struct {
	client  *backend.Client
	session *Coordinator
	notify  func()

	mu    sync.Mutex
	state FormState
}

// NewForm builds a form starting in the given mode.
func NewForm(client *backend.Client, session *Coordinator, mode Mode, notify func()) *Form {
	return &Form{
		client:  client,
		session: session,
		notify:  notify,
		state:   FormState{Mode: mode, FieldErrors: map[string]string{}},
	}
}

// Snapshot returns a copy of the form state with a cloned error map.
func (f *Form) Snapshot() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	state := f.state
	state.FieldErrors = cloneErrors(f.state.FieldErrors)
	return state
}

func (f *Form) setState(mutate func(*FormState)) {
	f.mu.Lock()
	next := f.state
	next.FieldErrors = cloneErrors(f.state.FieldErrors)
	mutate(&next)
	f.state = next
	f.mu.Unlock()
	if f.notify != nil {
		f.notify()
	}
}

// SetMode switches between login and signup, clearing stale errors.
func (f *Form) SetMode(mode Mode) {
	f.setState(func(s *FormState) {
		s.Mode = mode
		s.ErrorMessage = ""
		s.FieldErrors = map[string]string{}
	})
}

// Field setters clear that field's error, mirroring as-you-type recovery.

func (f *Form) SetUsername(v string) {
	f.setState(func(s *FormState) {
		s.Username = v
		delete(s.FieldErrors, "username")
	})
}

func (f *Form) SetEmail(v string) {
	f.setState(func(s *FormState) {
		s.Email = v
		delete(s.FieldErrors, "email")
	})
}

func (f *Form) SetPassword(v string) {
	f.setState(func(s *FormState) {
		s.Password = v
		delete(s.FieldErrors, "password")
	})
}

func (f *Form) SetRepeatPassword(v string) {
	f.setState(func(s *FormState) {
		s.RepeatPassword = v
		delete(s.FieldErrors, "repeatPassword")
	})
}

func validateEmail(email string) string {
	if strings.TrimSpace(email) == "" {
		return "Email is required"
	}
	if !emailPattern.MatchString(email) {
		return "Please enter a valid email address"
	}
	return ""
}

func validatePassword(password string) string {
	if password == "" {
		return "Password is required"
	}
	if len(password) < 6 {
		return "Password must be at least 6 characters"
	}
	return ""
}

func validateUsername(username string) string {
	if strings.TrimSpace(username) == "" {
		return "Username is required"
	}
	if len(username) < 3 {
		return "Username must be at least 3 characters"
	}
	return ""
}

func validateRepeatPassword(password, repeat string) string {
	if repeat == "" {
		return "Please confirm your password"
	}
	if password != repeat {
		return "Passwords do not match"
	}
	return ""
}

func (f *Form) validate() map[string]string {
	f.mu.Lock()
	state := f.state
	f.mu.Unlock()

	errors := map[string]string{}
	if state.Mode == ModeSignup {
		if msg := validateUsername(state.Username); msg != "" {
			errors["username"] = msg
		}
		if msg := validateRepeatPassword(state.Password, state.RepeatPassword); msg != "" {
			errors["repeatPassword"] = msg
		}
	}
	if msg := validateEmail(state.Email); msg != "" {
		errors["email"] = msg
	}
	if msg := validatePassword(state.Password); msg != "" {
		errors["password"] = msg
	}
	return errors
}

// Submit validates locally, then runs the register or login mutation. Field
// failures short-circuit before any network call.
func (f *Form) Submit(ctx context.Context) {
	f.setState(func(s *FormState) {
		s.IsSubmitting = true
		s.ErrorMessage = ""
		s.FieldErrors = map[string]string{}
	})

	if errors := f.validate(); len(errors) > 0 {
		f.setState(func(s *FormState) {
			s.IsSubmitting = false
			s.FieldErrors = errors
		})
		return
	}

	f.mu.Lock()
	state := f.state
	f.mu.Unlock()

	var payload *backend.AuthPayload
	var err error
	if state.Mode == ModeSignup {
		payload, err = f.client.Register(ctx, state.Username, state.Email, state.Password)
	} else {
		payload, err = f.client.Login(ctx, state.Email, state.Password)
	}
	if err == nil {
		err = f.session.AcceptSession(payload)
	}
	if err != nil {
		fallback := "Login failed"
		if state.Mode == ModeSignup {
			fallback = "Signup failed"
		}
		message := err.Error()
		if message == "" {
			message = fallback
		}
		f.setState(func(s *FormState) {
			s.IsSubmitting = false
			s.ErrorMessage = message
		})
		return
	}

	f.setState(func(s *FormState) { s.IsSubmitting = false })
}

func cloneErrors(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
