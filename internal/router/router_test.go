package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/movie-review-api/internal/config"
	"github.com/iliyamo/movie-review-api/internal/handler"
	"github.com/iliyamo/movie-review-api/internal/middleware"
	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/service"
	"github.com/iliyamo/movie-review-api/internal/storetest"
	"github.com/iliyamo/movie-review-api/internal/utils"
)

const (
	testSecret = "router-secret"
	testBase   = "http://api.test"
	password   = "Tr1cky-Horse-9"
)

type server struct {
	t      *testing.T
	e      *echo.Echo
	outbox *storetest.Outbox
	users  *storetest.Users
}

func newServer(t *testing.T) *server {
	t.Helper()
	log := zap.NewNop()
	cat := storetest.NewCatalog()
	outbox := &storetest.Outbox{}
	users := storetest.NewUsers()
	auth := service.NewAuthService(service.AuthConfig{
		Secret:     testSecret,
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
		VerifyTTL:  time.Minute,
		ResetTTL:   time.Minute,
		BcryptCost: bcrypt.MinCost,
		Policy:     utils.PasswordPolicy{MinLength: 8},
		BaseURL:    testBase,
	}, users, storetest.NewTokens(), outbox, log)

	e := New(Deps{
		Auth:      handler.NewAuthHandler(auth, log),
		Genres:    handler.NewGenreHandler(service.NewGenreService(cat.Genres(), cat.Movies()), log),
		Movies:    handler.NewMovieHandler(service.NewMovieService(cat.Movies()), log),
		Reviews:   handler.NewReviewHandler(service.NewReviewService(cat.Reviews(), cat.Movies()), log),
		JWTSecret: testSecret,
		Users:     users,
		Cache:     middleware.NewResponseCache(config.CacheConfig{Enabled: true}, nil, log),
		Log:       log,
	})
	return &server{t: t, e: e, outbox: outbox, users: users}
}

func (s *server) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

// mailedPath returns the path of the link in the most recent email.
func (s *server) mailedPath() string {
	s.t.Helper()
	body := s.outbox.Last().Body
	i := strings.Index(body, testBase)
	require.GreaterOrEqual(s.t, i, 0, body)
	link := body[i+len(testBase):]
	if j := strings.IndexByte(link, '\n'); j >= 0 {
		link = link[:j]
	}
	return link
}

// signup registers and verifies a user and returns an access and a
// refresh token from login.
func (s *server) signup(email, username string) (access, refresh string) {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/register/", echo.Map{
		"email": email, "username": username, "password": password, "password2": password,
	}, "")
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = s.do(http.MethodGet, s.mailedPath(), nil, "")
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/login/", echo.Map{"email": email, "password": password}, "")
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	tokens := decode(s.t, rec)["tokens"].(map[string]interface{})
	return tokens["access"].(string), tokens["refresh"].(string)
}

func TestRegisterVerifyLogin(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodPost, "/register", echo.Map{
		"email": "ann@example.com", "username": "ann", "password": password, "password2": password,
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "Verification email sent.", body["msg"])
	assert.Contains(t, body["token"], "access")
	assert.Contains(t, body["token"], "refresh")

	rec = s.do(http.MethodPost, "/login/", echo.Map{"email": "ann@example.com", "password": password}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Email is not verified."}`, rec.Body.String())

	verify := s.mailedPath()
	rec = s.do(http.MethodGet, verify, nil, "")
	assert.JSONEq(t, `{"email":"Verified successfully."}`, rec.Body.String())
	rec = s.do(http.MethodGet, verify, nil, "")
	assert.JSONEq(t, `{"email":"Already Verified."}`, rec.Body.String())
	rec = s.do(http.MethodGet, "/email-verify/?token=junk", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid token."}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/login/", echo.Map{"email": "ann@example.com", "password": "nope-nope"}, "")
	assert.JSONEq(t, `{"error":"Invalid credentials, try again."}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/login/", echo.Map{"email": "ann@example.com", "password": password}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "ann@example.com", body["email"])
	assert.Equal(t, "ann", body["username"])

	access := body["tokens"].(map[string]interface{})["access"].(string)
	rec = s.do(http.MethodGet, "/profile/", nil, access)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ann@example.com", decode(t, rec)["email"])

	rec = s.do(http.MethodGet, "/profile/", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterFieldErrors(t *testing.T) {
	s := newServer(t)
	rec := s.do(http.MethodPost, "/register/", echo.Map{
		"email": "bad", "username": "ok", "password": "abcdefgh1", "password2": "different",
	}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Contains(t, body, "email")
	assert.Contains(t, body, "password")
}

func TestLogoutAndRefresh(t *testing.T) {
	s := newServer(t)
	access, refresh := s.signup("bo@example.com", "bo")

	rec := s.do(http.MethodPost, "/token/refresh/", echo.Map{"refresh": refresh}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["access"])

	rec = s.do(http.MethodPost, "/logout/", echo.Map{"refresh": refresh}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/logout/", echo.Map{"refresh": refresh}, access)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodPost, "/logout/", echo.Map{"refresh": refresh}, access)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Token is expired or invalid."}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/token/refresh/", echo.Map{"refresh": refresh}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/token/refresh/", echo.Map{}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"refresh":"This field is required."}`, rec.Body.String())
}

func TestPasswordChangeAndReset(t *testing.T) {
	s := newServer(t)
	access, _ := s.signup("cy@example.com", "cy")

	rec := s.do(http.MethodPost, "/password-change/", echo.Map{"password": "Fresh-Pass-1", "password2": "Fresh-Pass-1"}, access)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"msg":"Password changed successfully"}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/request-password-reset-email/", echo.Map{"email": "ghost@example.com"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"email":"You are not a registered user"}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/request-password-reset-email/", echo.Map{"email": "cy@example.com"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	resetPath := s.mailedPath()
	assert.True(t, strings.HasPrefix(resetPath, "/password-reset/"), resetPath)

	newPass := echo.Map{"password": "Reset-Pass-2", "password2": "Reset-Pass-2"}
	rec = s.do(http.MethodPost, resetPath, newPass, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"msg":"Password reset successfully."}`, rec.Body.String())

	rec = s.do(http.MethodPost, resetPath, newPass, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Token is not valid or expired."}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/login/", echo.Map{"email": "cy@example.com", "password": "Reset-Pass-2"}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCatalogFlow(t *testing.T) {
	s := newServer(t)
	alice, _ := s.signup("alice@example.com", "alice")
	bob, _ := s.signup("bob@example.com", "bob")

	rec := s.do(http.MethodPost, "/create-genre/", echo.Map{"name": "Drama"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/create-genre/", echo.Map{"name": "Drama"}, alice)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(http.MethodPost, "/create-genre/", echo.Map{"name": "drama"}, alice)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"genre already exists."}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/create-movie/", echo.Map{
		"name": "The Shawshank Redemption", "release_date": "1994-09-23", "rating": 9,
		"genre": []string{"drama", "Prison"},
	}, alice)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	movie := decode(t, rec)
	assert.Equal(t, "1994-09-23", movie["release_date"])
	assert.Len(t, movie["genre"], 2)
	assert.Empty(t, movie["movie_reviews"])

	rec = s.do(http.MethodPost, "/create-movie/", echo.Map{"name": "x", "release_date": "1994-09-23", "rating": 11}, alice)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec), "rating")

	rec = s.do(http.MethodGet, "/1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodGet, "/99/", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPatch, "/update-movie/1/", echo.Map{"rating": 10, "genre": []string{"PRISON"}}, alice)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	movie = decode(t, rec)
	assert.EqualValues(t, 10, movie["rating"])
	assert.Equal(t, "The Shawshank Redemption", movie["name"])
	assert.Len(t, movie["genre"], 1)

	rec = s.do(http.MethodPost, "/create-review/1/", echo.Map{"description": "Hope."}, alice)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	review := decode(t, rec)
	rec = s.do(http.MethodPost, "/create-review/1/", echo.Map{"description": "Again."}, alice)
	assert.JSONEq(t, `{"error":"review already exists."}`, rec.Body.String())
	rec = s.do(http.MethodPost, "/create-review/99/", echo.Map{"description": "?"}, alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPut, "/update-review/1/", echo.Map{"description": "mine now"}, bob)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"you can only edit your own review."}`, rec.Body.String())
	rec = s.do(http.MethodPut, "/update-review/1/", echo.Map{"description": "Hope is good."}, alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hope is good.", decode(t, rec)["description"])
	assert.Equal(t, review["id"], decode(t, rec)["id"])

	rec = s.do(http.MethodGet, "/genres/", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var genres []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &genres))
	require.Len(t, genres, 2)

	rec = s.do(http.MethodGet, "/genre/1/", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var tagged []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tagged))
	require.Len(t, tagged, 1)
	assert.Len(t, tagged[0]["movie_reviews"], 1)

	rec = s.do(http.MethodDelete, "/delete-genre/1/", nil, alice)
	assert.JSONEq(t, `{"error":"only empty genre can be deleted."}`, rec.Body.String())
	rec = s.do(http.MethodDelete, "/delete-genre/2/", nil, alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"genre":"deleted"}`, rec.Body.String())

	rec = s.do(http.MethodDelete, "/delete-review/1/", nil, bob)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(http.MethodDelete, "/delete-movie/1/", nil, alice)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodDelete, "/delete-review/1/", nil, alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(http.MethodDelete, "/delete-genre/1/", nil, alice)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	s := newServer(t)
	rec := s.do(http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/genre/abc/", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/no/such/route/", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decode(t, rec), "error")
}

func TestDeactivatedUserLosesWriteAccess(t *testing.T) {
	s := newServer(t)
	access, _ := s.signup("dee@example.com", "dee")

	rec := s.do(http.MethodPost, "/create-genre/", echo.Map{"name": "Noir"}, access)
	require.Equal(t, http.StatusCreated, rec.Code)

	u, err := s.users.GetByEmail(context.Background(), "dee@example.com")
	require.NoError(t, err)
	require.NoError(t, s.users.Update(u.ID, func(u *model.User) { u.IsActive = false }))

	rec = s.do(http.MethodPost, "/create-genre/", echo.Map{"name": "Western"}, access)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"User is inactive"}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/genres/", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMovieGenreToggleOverHTTP(t *testing.T) {
	s := newServer(t)
	access, _ := s.signup("eve@example.com", "eve")

	rec := s.do(http.MethodPost, "/create-movie/", echo.Map{
		"name": "Heat", "release_date": "1995-12-15", "rating": 0, "genre": []string{"Drama"},
	}, access)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.EqualValues(t, 0, decode(t, rec)["rating"])

	rec = s.do(http.MethodPatch, "/update-movie/1/", echo.Map{"genre": []string{"Drama"}}, access)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["genre"])

	rec = s.do(http.MethodPut, "/update-movie/1/", echo.Map{"genre": []string{"drama"}, "rating": 10}, access)
	require.Equal(t, http.StatusOK, rec.Code)
	movie := decode(t, rec)
	assert.EqualValues(t, 10, movie["rating"])
	require.Len(t, movie["genre"], 1)
	assert.Equal(t, "Drama", movie["genre"].([]interface{})[0].(map[string]interface{})["name"])
}
