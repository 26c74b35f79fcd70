package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/mhasan/tweetpilot/internal/apperror"
	"github.com/mhasan/tweetpilot/internal/auth"
	"github.com/mhasan/tweetpilot/internal/model"
	"github.com/mhasan/tweetpilot/internal/service"
)

// AuthHandler owns registration, login, and both Twitter OAuth flows.
//
// Two distinct OAuth dances live here and must not be confused:
//   - OAuth 2.0 + PKCE ("sign in with Twitter"): identity only
//   - OAuth 1.0a ("connect account"): durable posting credentials,
//     started by an already-authenticated user
type AuthHandler struct {
	service     *service.AuthService
	oauth2      *auth.TwitterProvider
	oauth1      *auth.TwitterLinkProvider
	flows       *auth.FlowStore
	frontendURL string
	logger      *slog.Logger
}

// NewAuthHandler creates an AuthHandler. frontendURL is where browser-driven
// OAuth callbacks redirect when they finish.
func NewAuthHandler(
	svc *service.AuthService,
	oauth2 *auth.TwitterProvider,
	oauth1 *auth.TwitterLinkProvider,
	flows *auth.FlowStore,
	frontendURL string,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		service:     svc,
		oauth2:      oauth2,
		oauth1:      oauth1,
		flows:       flows,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// authResponse is the body returned by register/login/callback endpoints.
type authResponse struct {
	Token string      `json:"access_token"`
	Type  string      `json:"token_type"`
	User  *model.User `json:"user"`
}

func newAuthResponse(res *service.AuthResult) authResponse {
	return authResponse{Token: res.Token, Type: "bearer", User: res.User}
}

// HandleRegister creates an account: POST /api/auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.service.Register(r.Context(), req.Username, req.Email, req.Password, req.FullName)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newAuthResponse(res))
}

// HandleToken exchanges username/password for a JWT: POST /api/auth/token
//
// The body may be JSON or an OAuth2 password-grant style form
// (application/x-www-form-urlencoded), keyed on Content-Type.
func (h *AuthHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	username, password, err := loginCredentials(r)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := h.service.Login(r.Context(), username, password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newAuthResponse(res))
}

func loginCredentials(r *http.Request) (username, password string, err error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return "", "", apperror.ValidationFailed("body", "malformed form body")
		}
		return r.PostFormValue("username"), r.PostFormValue("password"), nil
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		return "", "", err
	}
	return req.Username, req.Password, nil
}

// HandleMe returns the authenticated user: GET /api/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	user, err := h.service.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleOAuth2Init starts the sign-in flow: GET /api/auth/oauth2/twitter/init
//
// The PKCE verifier never leaves the server: only the derived challenge goes
// into the consent URL, and the verifier waits in the flow store keyed by
// the single-use state.
func (h *AuthHandler) HandleOAuth2Init(w http.ResponseWriter, r *http.Request) {
	state, err := auth.NewState()
	if err != nil {
		writeError(w, err)
		return
	}

	verifier := h.oauth2.GenerateVerifier()
	h.flows.PutVerifier(state, verifier)

	writeJSON(w, http.StatusOK, map[string]string{
		"authorization_url": h.oauth2.AuthURL(state, verifier),
		"state":             state,
	})
}

// HandleOAuth2Callback finishes the sign-in flow:
// GET /api/auth/oauth2/twitter/callback?state=...&code=...
func (h *AuthHandler) HandleOAuth2Callback(w http.ResponseWriter, r *http.Request) {
	if errCode := r.URL.Query().Get("error"); errCode != "" {
		// User denied consent on twitter.com.
		h.redirectFrontend(w, r, url.Values{"auth": {"denied"}})
		return
	}

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		writeError(w, apperror.ValidationFailed("state", "missing state or code"))
		return
	}

	verifier, ok := h.flows.TakeVerifier(state)
	if !ok {
		writeError(w, apperror.Unauthorized("unknown or expired oauth state"))
		return
	}

	tok, err := h.oauth2.Exchange(r.Context(), code, verifier)
	if err != nil {
		h.logger.Error("oauth2 code exchange failed", slog.String("error", err.Error()))
		writeError(w, apperror.Unauthorized("twitter authorization failed"))
		return
	}

	profile, err := h.oauth2.Profile(r.Context(), tok.AccessToken)
	if err != nil {
		h.logger.Error("oauth2 profile fetch failed", slog.String("error", err.Error()))
		writeError(w, apperror.Unauthorized("twitter authorization failed"))
		return
	}

	res, err := h.service.LoginWithTwitter(r.Context(), profile, tok)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newAuthResponse(res))
}

// HandleTwitterLogin starts the OAuth 1.0a linking flow:
// POST /api/auth/twitter/login (authenticated)
func (h *AuthHandler) HandleTwitterLogin(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	requestToken, requestSecret, err := h.oauth1.RequestToken()
	if err != nil {
		h.logger.Error("oauth1 request token failed", slog.String("error", err.Error()))
		writeError(w, apperror.Unavailable("twitter", err))
		return
	}

	// The secret and the linking user ride along until the callback.
	h.flows.PutRequestSecret(requestToken, requestSecret, userID)

	authURL, err := h.oauth1.AuthorizationURL(requestToken)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"authorization_url": authURL,
		"oauth_token":       requestToken,
	})
}

// HandleTwitterCallback finishes the linking flow:
// GET /api/auth/twitter/callback?oauth_token=...&oauth_verifier=...
//
// Twitter redirects the browser here without our JWT, so the linking user is
// recovered from the flow store entry created at login time.
func (h *AuthHandler) HandleTwitterCallback(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("denied") != "" {
		h.redirectFrontend(w, r, url.Values{"twitter": {"denied"}})
		return
	}

	requestToken := r.URL.Query().Get("oauth_token")
	verifier := r.URL.Query().Get("oauth_verifier")
	if requestToken == "" || verifier == "" {
		writeError(w, apperror.ValidationFailed("oauth_token", "missing oauth token or verifier"))
		return
	}

	requestSecret, userID, ok := h.flows.TakeRequestSecret(requestToken)
	if !ok {
		writeError(w, apperror.Unauthorized("unknown or expired oauth request token"))
		return
	}

	creds, err := h.oauth1.AccessToken(requestToken, requestSecret, verifier)
	if err != nil {
		h.logger.Error("oauth1 access token failed", slog.String("error", err.Error()))
		writeError(w, apperror.Unauthorized("twitter authorization failed"))
		return
	}

	// Best effort: the token exchange does not identify the account, so ask
	// verify_credentials for the user ID and handle. Linking still succeeds
	// without them.
	if err := h.oauth1.Verify(r.Context(), creds); err != nil {
		h.logger.Warn("oauth1 credential verify failed", slog.String("error", err.Error()))
	}

	if _, err := h.service.LinkTwitter(r.Context(), userID, creds); err != nil {
		writeError(w, err)
		return
	}

	h.redirectFrontend(w, r, url.Values{"twitter": {"linked"}})
}

// HandleTwitterStatus reports the link state: GET /api/auth/twitter/status
func (h *AuthHandler) HandleTwitterStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	status, err := h.service.GetTwitterStatus(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// HandleTwitterDisconnect drops the stored credentials:
// DELETE /api/auth/twitter/disconnect
func (h *AuthHandler) HandleTwitterDisconnect(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	if err := h.service.UnlinkTwitter(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}

func (h *AuthHandler) redirectFrontend(w http.ResponseWriter, r *http.Request, params url.Values) {
	target := h.frontendURL
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
