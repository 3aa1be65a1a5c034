package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	defaultIdentityToolkitURL = "https://identitytoolkit.googleapis.com"
	defaultSecureTokenURL     = "https://securetoken.googleapis.com"
)

// Firebase performs Firebase Authentication anonymous sign-up through the
// Identity Toolkit REST API. Requests are bounded only by the caller's
// context.
type Firebase struct {
	apiKey         string
	baseURL        string
	secureTokenURL string
	httpClient     *http.Client
	now            func() time.Time
}

// NewFirebase creates a Firebase authenticator for the given web API key.
func NewFirebase(apiKey string) *Firebase {
	return &Firebase{
		apiKey:         apiKey,
		baseURL:        defaultIdentityToolkitURL,
		secureTokenURL: defaultSecureTokenURL,
		httpClient:     &http.Client{},
		now:            time.Now,
	}
}

// NewFirebaseWithBaseURL points the authenticator at a custom endpoint (the
// Auth emulator, or a test server). Both sign-up and token refresh go there.
func NewFirebaseWithBaseURL(apiKey, baseURL string) *Firebase {
	f := NewFirebase(apiKey)
	f.baseURL = strings.TrimRight(baseURL, "/")
	f.secureTokenURL = f.baseURL
	return f
}

type signUpResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	LocalID      string `json:"localId"`
}

type refreshResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignIn creates a new anonymous Firebase user. The returned identity's
// TokenSource refreshes the ID token through the Secure Token API once it
// expires.
func (f *Firebase) SignIn(ctx context.Context) (Identity, error) {
	body, err := json.Marshal(map[string]bool{"returnSecureToken": true})
	if err != nil {
		return Identity{}, fmt.Errorf("marshaling request: %w", err)
	}

	var out signUpResponse
	err = f.post(ctx, "anonymous sign-in", f.baseURL+"/v1/accounts:signUp", "application/json", bytes.NewReader(body), &out)
	if err != nil {
		return Identity{}, err
	}
	if out.LocalID == "" || out.IDToken == "" {
		return Identity{}, fmt.Errorf("anonymous sign-in: response missing user id or token")
	}

	tok := f.token(out.IDToken, out.RefreshToken, out.ExpiresIn)
	src := &refreshSource{f: f, refreshToken: out.RefreshToken}
	return Identity{
		UID:         out.LocalID,
		Anonymous:   true,
		TokenSource: oauth2.ReuseTokenSource(tok, src),
	}, nil
}

func (f *Firebase) token(idToken, refreshToken, expiresIn string) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  idToken,
		TokenType:    "Bearer",
		RefreshToken: refreshToken,
	}
	if secs, err := strconv.Atoi(expiresIn); err == nil && secs > 0 {
		tok.Expiry = f.now().Add(time.Duration(secs) * time.Second)
	}
	return tok
}

func (f *Firebase) post(ctx context.Context, op, endpoint, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"?key="+url.QueryEscape(f.apiKey), body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var er errorResponse
		if json.Unmarshal(respBody, &er) == nil && er.Error.Message != "" {
			return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode, er.Error.Message)
		}
		return fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", op, err)
	}
	return nil
}

// refreshSource exchanges a Firebase refresh token for a new ID token.
// oauth2.ReuseTokenSource serializes calls to Token.
type refreshSource struct {
	f            *Firebase
	refreshToken string
}

func (r *refreshSource) Token() (*oauth2.Token, error) {
	if r.refreshToken == "" {
		return nil, fmt.Errorf("token refresh: no refresh token")
	}
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {r.refreshToken},
	}

	var out refreshResponse
	err := r.f.post(context.Background(), "token refresh", r.f.secureTokenURL+"/v1/token",
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()), &out)
	if err != nil {
		return nil, err
	}
	if out.IDToken == "" {
		return nil, fmt.Errorf("token refresh: response missing token")
	}
	if out.RefreshToken != "" {
		r.refreshToken = out.RefreshToken
	}
	return r.f.token(out.IDToken, r.refreshToken, out.ExpiresIn), nil
}
