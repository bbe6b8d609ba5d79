package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/agegate/webapp/internal/classifier"
	"github.com/agegate/webapp/internal/logging"
	"github.com/agegate/webapp/internal/mail"
	"github.com/agegate/webapp/internal/services"
	"github.com/agegate/webapp/internal/store"
	"github.com/agegate/webapp/internal/token"
	"github.com/agegate/webapp/types"
	"github.com/go-chi/chi/v5"
)

type memRepo struct {
	nextID int
	users  map[int]types.User
}

func newMemRepo() *memRepo {
	return &memRepo{nextID: 1, users: map[int]types.User{}}
}

func (m *memRepo) GetByID(_ context.Context, id int) (types.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return types.User{}, store.ErrNotFound
}

func (m *memRepo) GetByUsername(_ context.Context, username string) (types.User, error) {
	for _, user := range m.users {
		if user.Username == username {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memRepo) Create(_ context.Context, user types.User) (types.User, error) {
	for _, existing := range m.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return types.User{}, store.ErrDuplicate
		}
	}
	user.ID = m.nextID
	m.nextID++
	m.users[user.ID] = user
	return user, nil
}

func (m *memRepo) Update(_ context.Context, user types.User) (types.User, error) {
	if _, ok := m.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	m.users[user.ID] = user
	return user, nil
}

type capturingNotifier struct {
	messages []mail.Message
}

func (c *capturingNotifier) Send(_ context.Context, msg mail.Message) error {
	c.messages = append(c.messages, msg)
	return nil
}

type fixedModel struct {
	label classifier.Label
	err   error
}

func (f fixedModel) Classify(_ context.Context, r io.Reader) (classifier.Label, error) {
	_, _ = io.Copy(io.Discard, r)
	return f.label, f.err
}

type memObjects struct {
	puts    map[string][]byte
	deleted []string
}

func newMemObjects() *memObjects {
	return &memObjects{puts: map[string][]byte{}}
}

func (m *memObjects) EnsureBucket(context.Context) error { return nil }

func (m *memObjects) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.puts[key] = data
	return nil
}

func (m *memObjects) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.puts[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memObjects) Delete(_ context.Context, key string) error {
	delete(m.puts, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *memObjects) Bucket() string { return "test" }

type env struct {
	handler  *Handler
	router   http.Handler
	repo     *memRepo
	users    *services.UserService
	tokens   *token.Service
	notifier *capturingNotifier
	objects  *memObjects
	sessions *SessionManager
}

func newEnv(t *testing.T) *env {
	t.Helper()

	repo := newMemRepo()
	users := services.NewUserService(repo)
	tokens := token.NewService("test-secret", time.Hour, time.Hour)
	sessions := NewSessionManager("test-secret", time.Hour)
	notifier := &capturingNotifier{}
	objects := newMemObjects()

	handler := New(Deps{
		Users:       users,
		Tokens:      tokens,
		Notifier:    notifier,
		Model:       fixedModel{label: classifier.LabelChild},
		Uploads:     objects,
		Sessions:    sessions,
		Log:         logging.Nop{},
		ExternalURL: "http://localhost:8080",
	})

	router := chi.NewRouter()
	handler.Routes(router)

	return &env{
		handler:  handler,
		router:   router,
		repo:     repo,
		users:    users,
		tokens:   tokens,
		notifier: notifier,
		objects:  objects,
		sessions: sessions,
	}
}

func (e *env) do(t *testing.T, req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *env) get(t *testing.T, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, httptest.NewRequest(http.MethodGet, path, nil), cookies...)
}

func (e *env) postForm(t *testing.T, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(t, req, cookies...)
}

func (e *env) sessionCookie(t *testing.T, userID int) *http.Cookie {
	t.Helper()
	rr := httptest.NewRecorder()
	if err := e.sessions.Establish(rr, userID); err != nil {
		t.Fatalf("establish session: %v", err)
	}
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func (e *env) seedUser(t *testing.T, username, email, password string, confirmed bool) types.User {
	t.Helper()
	user, err := e.users.Register(context.Background(), username, email, password)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if confirmed {
		if user, err = e.users.Confirm(context.Background(), email); err != nil {
			t.Fatalf("seed confirm: %v", err)
		}
	}
	return user
}

func flashFrom(t *testing.T, rr *httptest.ResponseRecorder) *Flash {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == flashCookieName && c.Value != "" {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(c)
			return popFlash(httptest.NewRecorder(), req)
		}
	}
	return nil
}

func sessionCookieFrom(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookieName && c.Value != "" && c.MaxAge >= 0 {
			return c
		}
	}
	return nil
}

func location(rr *httptest.ResponseRecorder) string {
	return rr.Header().Get("Location")
}

func registrationForm(username, email, password string) url.Values {
	return url.Values{
		"username":  {username},
		"email":     {email},
		"password":  {password},
		"password2": {password},
	}
}

func TestRegisterCreatesUnconfirmedUserAndSendsConfirmation(t *testing.T) {
	e := newEnv(t)

	rr := e.postForm(t, "/register", registrationForm("alice", "a@x.com", "pw123secret"))

	if rr.Code != http.StatusSeeOther || location(rr) != "/login" {
		t.Fatalf("expected redirect to /login, got %d %q", rr.Code, location(rr))
	}
	user, err := e.repo.GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("user not created: %v", err)
	}
	if user.Confirmed || user.ConfirmedOn != nil {
		t.Fatal("new account must be unconfirmed")
	}
	if len(e.notifier.messages) != 1 {
		t.Fatalf("expected 1 mail, got %d", len(e.notifier.messages))
	}
	msg := e.notifier.messages[0]
	if msg.To != "a@x.com" {
		t.Fatalf("mail sent to %q", msg.To)
	}
	if !strings.Contains(msg.HTML, "/confirm/") {
		t.Fatal("confirmation mail has no confirm URL")
	}
	flash := flashFrom(t, rr)
	if flash == nil || flash.Kind != flashSuccess {
		t.Fatalf("expected success flash, got %+v", flash)
	}
}

func TestRegisterDuplicateAddsNoRowAndRerenders(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "alice", "a@x.com", "pw123secret", false)

	cases := map[string]url.Values{
		"username": registrationForm("alice", "fresh@x.com", "pw123secret"),
		"email":    registrationForm("fresh", "a@x.com", "pw123secret"),
	}
	for name, form := range cases {
		rr := e.postForm(t, "/register", form)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected re-render, got %d", name, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "Please use a different") {
			t.Fatalf("%s: field error missing from response", name)
		}
		if len(e.repo.users) != 1 {
			t.Fatalf("%s: duplicate registration added a row", name)
		}
	}
	if len(e.notifier.messages) != 0 {
		t.Fatal("duplicate registration sent mail")
	}
}

func TestRegisterValidationFailureRerenders(t *testing.T) {
	e := newEnv(t)

	form := registrationForm("alice", "not-an-email", "pw123secret")
	rr := e.postForm(t, "/register", form)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Invalid email address") {
		t.Fatalf("expected email validation error, got %d", rr.Code)
	}

	form = registrationForm("alice", "a@x.com", "short")
	rr = e.postForm(t, "/register", form)
	if !strings.Contains(rr.Body.String(), "at least 8 characters") {
		t.Fatal("expected password length error")
	}

	if len(e.repo.users) != 0 {
		t.Fatal("invalid registration added a row")
	}
}

func TestRegisterAuthenticatedRedirectsHome(t *testing.T) {
	e := newEnv(t)
	user := e.seedUser(t, "alice", "a@x.com", "pw123secret", true)
	cookie := e.sessionCookie(t, user.ID)

	rr := e.get(t, "/register", cookie)
	if rr.Code != http.StatusSeeOther || location(rr) != "/" {
		t.Fatalf("expected redirect home, got %d %q", rr.Code, location(rr))
	}
	rr = e.postForm(t, "/register", registrationForm("bob", "b@x.com", "pw123secret"), cookie)
	if location(rr) != "/" {
		t.Fatalf("authenticated POST not redirected home: %q", location(rr))
	}
}

func TestLoginFailureIsUniform(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "alice", "a@x.com", "pw123secret", true)

	wrongPassword := e.postForm(t, "/login", url.Values{"username": {"alice"}, "password": {"wrong-password"}})
	unknownUser := e.postForm(t, "/login", url.Values{"username": {"nobody"}, "password": {"pw123secret"}})

	for name, rr := range map[string]*httptest.ResponseRecorder{"wrong password": wrongPassword, "unknown user": unknownUser} {
		if rr.Code != http.StatusSeeOther || location(rr) != "/login" {
			t.Fatalf("%s: expected redirect to /login, got %d %q", name, rr.Code, location(rr))
		}
		if sessionCookieFrom(rr) != nil {
			t.Fatalf("%s: session established on failed login", name)
		}
	}

	a, b := flashFrom(t, wrongPassword), flashFrom(t, unknownUser)
	if a == nil || b == nil || a.Message != b.Message || a.Message != "Invalid username or password" {
		t.Fatalf("failure messages differ: %+v vs %+v", a, b)
	}
}

func TestLoginSuccessEstablishesSession(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "alice", "a@x.com", "pw123secret", true)

	rr := e.postForm(t, "/login", url.Values{"username": {"alice"}, "password": {"pw123secret"}})
	if rr.Code != http.StatusSeeOther || location(rr) != "/" {
		t.Fatalf("expected redirect home, got %d %q", rr.Code, location(rr))
	}
	cookie := sessionCookieFrom(rr)
	if cookie == nil {
		t.Fatal("session cookie not set")
	}

	// the session resolves back to the user
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	id, err := e.sessions.UserID(req)
	if err != nil || id < 1 {
		t.Fatalf("session does not resolve: %v", err)
	}
}

func TestLoginNextRedirect(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "alice", "a@x.com", "pw123secret", true)

	cases := map[string]string{
		"/inference":            "/inference",
		"":                      "/",
		"http://evil.com/phish": "/",
		"https://evil.com":      "/",
		"//evil.com/phish":      "/",
		"/login/../inference":   "/login/../inference",
	}
	for next, want := range cases {
		form := url.Values{"username": {"alice"}, "password": {"pw123secret"}}
		if next != "" {
			form.Set("next", next)
		}
		rr := e.postForm(t, "/login", form)
		if location(rr) != want {
			t.Errorf("next=%q: redirected to %q, want %q", next, location(rr), want)
		}
	}
}

func TestLogoutClearsSession(t *testing.T) {
	e := newEnv(t)
	user := e.seedUser(t, "alice", "a@x.com", "pw123secret", true)

	rr := e.get(t, "/logout", e.sessionCookie(t, user.ID))
	if rr.Code != http.StatusSeeOther || location(rr) != "/" {
		t.Fatalf("expected redirect home, got %d %q", rr.Code, location(rr))
	}
	cleared := false
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("session cookie not cleared")
	}

	// logout without a session is a no-op redirect
	rr = e.get(t, "/logout")
	if location(rr) != "/" {
		t.Fatal("anonymous logout did not redirect home")
	}
}

func TestConfirmEmailFlow(t *testing.T) {
	e := newEnv(t)
	user := e.seedUser(t, "alice", "a@x.com", "pw123secret", false)
	cookie := e.sessionCookie(t, user.ID)

	confirmToken, err := e.tokens.Issue("a@x.com", token.PurposeConfirm)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	rr := e.get(t, "/confirm/"+confirmToken, cookie)
	if rr.Code != http.StatusSeeOther || location(rr) != "/" {
		t.Fatalf("expected redirect home, got %d %q", rr.Code, location(rr))
	}
	flash := flashFrom(t, rr)
	if flash == nil || flash.Kind != flashSuccess {
		t.Fatalf("expected success flash, got %+v", flash)
	}

	confirmed, _ := e.repo.GetByID(context.Background(), user.ID)
	if !confirmed.Confirmed || confirmed.ConfirmedOn == nil {
		t.Fatal("confirmation did not set confirmed/confirmed_on")
	}
	firstConfirmedOn := *confirmed.ConfirmedOn

	// consuming the token twice leaves state unchanged
	rr = e.get(t, "/confirm/"+confirmToken, cookie)
	flash = flashFrom(t, rr)
	if flash == nil || !strings.Contains(flash.Message, "already been confirmed") {
		t.Fatalf("expected already-confirmed notice, got %+v", flash)
	}
	again, _ := e.repo.GetByID(context.Background(), user.ID)
	if again.ConfirmedOn == nil || !again.ConfirmedOn.Equal(firstConfirmedOn) {
		t.Fatal("second confirmation mutated state")
	}
}

func TestConfirmEmailInvalidTokenShortCircuits(t *testing.T) {
	e := newEnv(t)
	user := e.seedUser(t, "alice", "a@x.com", "pw123secret", false)

	rr := e.get(t, "/confirm/garbage-token", e.sessionCookie(t, user.ID))
	if rr.Code != http.StatusSeeOther || location(rr) != "/" {
		t.Fatalf("expected redirect home, got %d %q", rr.Code, location(rr))
	}
	flash := flashFrom(t, rr)
	if flash == nil || flash.Kind != flashError {
		t.Fatalf("expected error flash, got %+v", flash)
	}
	unchanged, _ := e.repo.GetByID(context.Background(), user.ID)
	if unchanged.Confirmed {
		t.Fatal("invalid token confirmed the account")
	}
}

func TestConfirmEmailRequiresSession(t *testing.T) {
	e := newEnv(t)

	rr := e.get(t, "/confirm/whatever")
	if rr.Code != http.StatusSeeOther || !strings.HasPrefix(location(rr), "/login?next=") {
		t.Fatalf("expected login redirect, got %d %q", rr.Code, location(rr))
	}
}

func TestInferenceGate(t *testing.T) {
	e := newEnv(t)

	// anonymous requests go to login
	rr := e.get(t, "/inference")
	if location(rr) != "/login?next=%2Finference" {
		t.Fatalf("anonymous: redirected to %q", location(rr))
	}

	// unconfirmed users go home with a notice
	unconfirmed := e.seedUser(t, "bob", "b@x.com", "pw123secret", false)
	rr = e.get(t, "/inference", e.sessionCookie(t, unconfirmed.ID))
	if rr.Code != http.StatusSeeOther || location(rr) != "/" {
		t.Fatalf("unconfirmed: expected redirect home, got %d %q", rr.Code, location(rr))
	}
	flash := flashFrom(t, rr)
	if flash == nil || !strings.Contains(flash.Message, "confirm your email") {
		t.Fatalf("unconfirmed: expected confirm notice, got %+v", flash)
	}

	// confirmed users see the form
	confirmed := e.seedUser(t, "alice", "a@x.com", "pw123secret", true)
	rr = e.get(t, "/inference", e.sessionCookie(t, confirmed.ID))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Perform Inference") {
		t.Fatalf("confirmed: expected inference page, got %d", rr.Code)
	}
}

func multipartUpload(t *testing.T, filename string, content []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestInferClassifiesAndCleansUp(t *testing.T) {
	e := newEnv(t)
	user := e.seedUser(t, "alice", "a@x.com", "pw123secret", true)
	cookie := e.sessionCookie(t, user.ID)

	body, contentType := multipartUpload(t, "photo one.png", []byte("png bytes"))
	req := httptest.NewRequest(http.MethodPost, "/inference", body)
	req.Header.Set("Content-Type", contentType)
	rr := e.do(t, req, cookie)

	if rr.Code != http.StatusSeeOther || location(rr) != "/inference" {
		t.Fatalf("expected redirect to /inference, got %d %q", rr.Code, location(rr))
	}
	flash := flashFrom(t, rr)
	if flash == nil || flash.Message != "The uploaded picture is of a Child" {
		t.Fatalf("unexpected flash %+v", flash)
	}

	// stored under the sanitized name, then deleted after classification
	if len(e.objects.deleted) != 1 || e.objects.deleted[0] != "photo_one.png" {
		t.Fatalf("expected sanitized key to be deleted, got %v", e.objects.deleted)
	}
	if len(e.objects.puts) != 0 {
		t.Fatal("upload retained without UPLOAD_RETAIN")
	}
}

func TestInferAdultPhrasing(t *testing.T) {
	e := newEnv(t)
	e.handler.model = fixedModel{label: classifier.LabelAdult}
	user := e.seedUser(t, "alice", "a@x.com", "pw123secret", true)

	body, contentType := multipartUpload(t, "photo.png", []byte("png bytes"))
	req := httptest.NewRequest(http.MethodPost, "/inference", body)
	req.Header.Set("Content-Type", contentType)
	rr := e.do(t, req, e.sessionCookie(t, user.ID))

	flash := flashFrom(t, rr)
	if flash == nil || flash.Message != "The uploaded picture is of an Adult" {
		t.Fatalf("unexpected flash %+v", flash)
	}
}

func TestInferRetainsUploadsWhenConfigured(t *testing.T) {
	e := newEnv(t)
	e.handler.retainUploads = true
	user := e.seedUser(t, "alice", "a@x.com", "pw123secret", true)

	body, contentType := multipartUpload(t, "photo.png", []byte("png bytes"))
	req := httptest.NewRequest(http.MethodPost, "/inference", body)
	req.Header.Set("Content-Type", contentType)
	e.do(t, req, e.sessionCookie(t, user.ID))

	if len(e.objects.deleted) != 0 {
		t.Fatal("upload deleted despite retention")
	}
	if _, ok := e.objects.puts["photo.png"]; !ok {
		t.Fatal("upload not stored")
	}
}

func TestResetPasswordRequestIsEnumerationResistant(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "alice", "a@x.com", "pw123secret", true)

	known := e.postForm(t, "/reset_password_request", url.Values{"email": {"a@x.com"}})
	unknown := e.postForm(t, "/reset_password_request", url.Values{"email": {"nobody@x.com"}})

	if known.Code != unknown.Code || location(known) != location(unknown) {
		t.Fatal("responses differ between known and unknown email")
	}
	a, b := flashFrom(t, known), flashFrom(t, unknown)
	if a == nil || b == nil || a.Message != b.Message || a.Kind != b.Kind {
		t.Fatalf("flash differs: %+v vs %+v", a, b)
	}
	if len(e.notifier.messages) != 1 || e.notifier.messages[0].To != "a@x.com" {
		t.Fatalf("expected exactly one mail to the known address, got %v", e.notifier.messages)
	}
}

func TestResetPasswordWithValidToken(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "alice", "a@x.com", "pw123secret", true)

	resetToken, err := e.tokens.Issue("a@x.com", token.PurposeReset)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	rr := e.get(t, "/reset_password/"+resetToken)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected reset form, got %d", rr.Code)
	}

	rr = e.postForm(t, "/reset_password/"+resetToken, url.Values{
		"password":  {"newsecret99"},
		"password2": {"newsecret99"},
	})
	if rr.Code != http.StatusSeeOther || location(rr) != "/login" {
		t.Fatalf("expected redirect to /login, got %d %q", rr.Code, location(rr))
	}

	if _, err := e.users.Authenticate(context.Background(), "alice", "newsecret99"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
	if _, err := e.users.Authenticate(context.Background(), "alice", "pw123secret"); err == nil {
		t.Fatal("old password still works")
	}
}

func TestResetPasswordInvalidTokenNeverChangesPassword(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, "alice", "a@x.com", "pw123secret", true)

	expired := token.NewService("test-secret", -time.Minute, -time.Minute)
	expiredToken, err := expired.Issue("a@x.com", token.PurposeReset)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	for name, tok := range map[string]string{"expired": expiredToken, "garbage": "garbage"} {
		rr := e.get(t, "/reset_password/"+tok)
		if rr.Code != http.StatusSeeOther || location(rr) != "/" {
			t.Fatalf("%s GET: expected silent redirect home, got %d %q", name, rr.Code, location(rr))
		}
		rr = e.postForm(t, "/reset_password/"+tok, url.Values{
			"password":  {"hacked12345"},
			"password2": {"hacked12345"},
		})
		if location(rr) != "/" {
			t.Fatalf("%s POST: expected redirect home, got %q", name, location(rr))
		}
	}

	if _, err := e.users.Authenticate(context.Background(), "alice", "pw123secret"); err != nil {
		t.Fatal("password changed via invalid token")
	}
}

func TestEndToEndRegisterConfirmLoginInfer(t *testing.T) {
	e := newEnv(t)

	// register
	rr := e.postForm(t, "/register", registrationForm("alice", "a@x.com", "pw123secret"))
	if location(rr) != "/login" {
		t.Fatalf("register: redirected to %q", location(rr))
	}
	user, err := e.repo.GetByUsername(context.Background(), "alice")
	if err != nil || user.Confirmed {
		t.Fatalf("register: user=%+v err=%v", user, err)
	}

	// login before confirmation: allowed, but inference is gated
	rr = e.postForm(t, "/login", url.Values{"username": {"alice"}, "password": {"pw123secret"}})
	cookie := sessionCookieFrom(rr)
	if cookie == nil {
		t.Fatal("login: no session cookie")
	}
	rr = e.get(t, "/inference", cookie)
	if location(rr) != "/" {
		t.Fatalf("inference before confirmation: redirected to %q, want home", location(rr))
	}

	// confirm using the URL from the email
	if len(e.notifier.messages) != 1 {
		t.Fatalf("expected confirmation mail, got %d messages", len(e.notifier.messages))
	}
	text := e.notifier.messages[0].Text
	confirmURL := text[strings.LastIndex(text, " ")+1:]
	u, err := url.Parse(confirmURL)
	if err != nil || !strings.HasPrefix(u.Path, "/confirm/") {
		t.Fatalf("bad confirm URL %q", confirmURL)
	}
	rr = e.get(t, u.Path, cookie)
	if location(rr) != "/" {
		t.Fatalf("confirm: redirected to %q", location(rr))
	}
	user, _ = e.repo.GetByID(context.Background(), user.ID)
	if !user.Confirmed || user.ConfirmedOn == nil {
		t.Fatal("confirm: state not updated")
	}

	// inference now renders
	rr = e.get(t, "/inference", cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("inference after confirmation: got %d", rr.Code)
	}
}
