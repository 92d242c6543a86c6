package auth

import (
	"context"
	"testing"

	"github.com/papr-project/papr/internal/backendtest"
)

func newForm(t *testing.T, fake *backendtest.Fake, mode Mode) (*Form, *Coordinator) {
	t.Helper()
	session := New(fake.Client(), newStore(t), nil)
	return NewForm(fake.Client(), session, mode, nil), session
}

func TestSubmitLoginValidationShortCircuitsNetwork(t *testing.T) {
	t.Parallel()

	fake := backendtest.New()
	t.Cleanup(fake.Close)

	form, _ := newForm(t, fake, ModeLogin)
	form.Submit(context.Background())

	state := form.Snapshot()
	if state.IsSubmitting {
		t.Fatal("submit flag not cleared")
	}
	if got := state.FieldErrors["email"]; got != "Email is required" {
		t.Fatalf("email error = %q", got)
	}
	if got := state.FieldErrors["password"]; got != "Password is required" {
		t.Fatalf("password error = %q", got)
	}
	if fake.CallCount("login") != 0 {
		t.Fatalf("invalid form reached the network (%d calls)", fake.CallCount("login"))
	}
}

func TestSubmitSignupCollectsAllFieldErrors(t *testing.T) {
	t.Parallel()

	fake := backendtest.New()
	t.Cleanup(fake.Close)

	form, _ := newForm(t, fake, ModeSignup)
	form.SetUsername("ab")
	form.SetEmail("not-an-email")
	form.SetPassword("short")
	form.SetRepeatPassword("different")
	form.Submit(context.Background())

	state := form.Snapshot()
	want := map[string]string{
		"username":       "Username must be at least 3 characters",
		"email":          "Please enter a valid email address",
		"password":       "Password must be at least 6 characters",
		"repeatPassword": "Passwords do not match",
	}
	for field, message := range want {
		if got := state.FieldErrors[field]; got != message {
			t.Fatalf("%s error = %q, want %q", field, got, message)
		}
	}
	if fake.CallCount("register") != 0 {
		t.Fatal("invalid signup reached the network")
	}
}

func TestSubmitSignupRequiresRepeatPassword(t *testing.T) {
	t.Parallel()

	fake := backendtest.New()
	t.Cleanup(fake.Close)

	form, _ := newForm(t, fake, ModeSignup)
	form.SetUsername("ada")
	form.SetEmail("ada@example.com")
	form.SetPassword("secret-pass")
	form.Submit(context.Background())

	if got := form.Snapshot().FieldErrors["repeatPassword"]; got != "Please confirm your password" {
		t.Fatalf("repeatPassword error = %q", got)
	}
}

func TestSetFieldClearsItsError(t *testing.T) {
	t.Parallel()

	fake := backendtest.New()
	t.Cleanup(fake.Close)

	form, _ := newForm(t, fake, ModeLogin)
	form.Submit(context.Background())
	if form.Snapshot().FieldErrors["email"] == "" {
		t.Fatal("expected an email error to clear")
	}

	form.SetEmail("ada@example.com")

	state := form.Snapshot()
	if _, ok := state.FieldErrors["email"]; ok {
		t.Fatal("typing did not clear the email error")
	}
	if _, ok := state.FieldErrors["password"]; !ok {
		t.Fatal("unrelated field error was dropped")
	}
}

func TestSubmitLoginEstablishesSession(t *testing.T) {
	t.Parallel()

	fake := backendtest.New()
	t.Cleanup(fake.Close)

	form, session := newForm(t, fake, ModeLogin)
	form.SetEmail("ada@example.com")
	form.SetPassword("secret-pass")
	form.Submit(context.Background())

	if state := form.Snapshot(); state.ErrorMessage != "" || state.IsSubmitting {
		t.Fatalf("unexpected form state %+v", state)
	}
	auth := session.Snapshot()
	if !auth.IsAuthenticated || auth.Token != backendtest.ValidToken {
		t.Fatalf("session not established: %+v", auth)
	}
	if auth.User == nil || auth.User.Username != "ada" {
		t.Fatalf("user not installed: %+v", auth.User)
	}
}

func TestSubmitSurfacesRemoteError(t *testing.T) {
	t.Parallel()

	fake := backendtest.New()
	t.Cleanup(fake.Close)
	fake.FailOps["login"] = "Invalid credentials"

	form, session := newForm(t, fake, ModeLogin)
	form.SetEmail("ada@example.com")
	form.SetPassword("wrong-pass")
	form.Submit(context.Background())

	state := form.Snapshot()
	if state.ErrorMessage != "Invalid credentials" {
		t.Fatalf("error message = %q", state.ErrorMessage)
	}
	if state.IsSubmitting {
		t.Fatal("submit flag not cleared after failure")
	}
	if session.IsAuthenticated() {
		t.Fatal("failed login established a session")
	}
}

func TestSetModeClearsErrors(t *testing.T) {
	t.Parallel()

	fake := backendtest.New()
	t.Cleanup(fake.Close)

	form, _ := newForm(t, fake, ModeLogin)
	form.Submit(context.Background())
	form.SetMode(ModeSignup)

	state := form.Snapshot()
	if len(state.FieldErrors) != 0 || state.ErrorMessage != "" {
		t.Fatalf("mode switch kept stale errors: %+v", state)
	}
	if state.Mode != ModeSignup {
		t.Fatalf("mode = %q", state.Mode)
	}
}
