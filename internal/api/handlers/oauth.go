package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/lyricforge/lyricforge-api/internal/config"
	"github.com/lyricforge/lyricforge-api/internal/models"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/github"
	"github.com/markbates/goth/providers/google"
	"gorm.io/gorm"
)

// OAuth providers offered at /api/auth/:provider.
const (
	providerGoogle = "google"
	providerGitHub = "github"
)

type OAuthHandler struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewOAuthHandler(db *gorm.DB, cfg *config.Config) *OAuthHandler {
	store := sessions.NewCookieStore([]byte(cfg.JWTSecret))
	store.Options.HttpOnly = true
	store.Options.Secure = cfg.Environment == "production"
	gothic.Store = store

	goth.UseProviders(
		google.New(
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.BaseURL+"/api/auth/google/callback",
			"email", "profile",
		),
		github.New(
			cfg.GitHubClientID,
			cfg.GitHubClientSecret,
			cfg.BaseURL+"/api/auth/github/callback",
			"user:email",
		),
	)

	return &OAuthHandler{db: db, cfg: cfg}
}

// BeginAuth redirects the user to the provider's consent screen.
func (h *OAuthHandler) BeginAuth(c *gin.Context) {
	provider := c.Param("provider")
	if provider != providerGoogle && provider != providerGitHub {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported provider"})
		return
	}

	setGothicProvider(c, provider)
	gothic.BeginAuthHandler(c.Writer, c.Request)
}

// Callback completes the OAuth flow, signs the user in (creating the
// account on first login), and hands the tokens to the web app.
func (h *OAuthHandler) Callback(c *gin.Context) {
	provider := c.Param("provider")
	if provider != providerGoogle && provider != providerGitHub {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported provider"})
		return
	}

	setGothicProvider(c, provider)
	gothUser, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "OAuth authentication failed"})
		return
	}

	// GitHub returns no email when the user hides it; without one we
	// cannot key the account.
	if gothUser.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "OAuth provider did not share an email address"})
		return
	}

	user, isNew, err := h.findOrCreateOAuthUser(&gothUser)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	authHandler := &AuthHandler{db: h.db, cfg: h.cfg}
	accessToken, err := authHandler.generateAccessToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
		return
	}
	refreshToken, err := authHandler.generateRefreshToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate refresh token"})
		return
	}

	authHandler.setAuthCookies(c, accessToken, refreshToken)

	// The API serves no pages itself; finish on the web app's callback
	// route so it can store the session and route the user onward.
	redirectURL := fmt.Sprintf("%s/auth/callback?access_token=%s&refresh_token=%s&is_new=%v",
		h.cfg.FrontendURL, accessToken, refreshToken, isNew)
	c.Redirect(http.StatusTemporaryRedirect, redirectURL)
}

// setGothicProvider tells gothic which provider to use; it reads the
// provider from the query string rather than route params.
func setGothicProvider(c *gin.Context, provider string) {
	q := c.Request.URL.Query()
	q.Add("provider", provider)
	c.Request.URL.RawQuery = q.Encode()
}

// findOrCreateOAuthUser resolves the provider identity to an account,
// creating one on first login.
func (h *OAuthHandler) findOrCreateOAuthUser(gothUser *goth.User) (*models.User, bool, error) {
	var oauthProvider models.OAuthProvider
	err := h.db.Where("provider = ? AND provider_user_id = ?",
		gothUser.Provider, gothUser.UserID).
		Preload("User").
		First(&oauthProvider).Error

	if err == nil {
		return &oauthProvider.User, false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, false, err
	}

	return h.createOAuthUser(gothUser)
}

// createOAuthUser links the provider identity to an existing account with
// the same email, or creates a fresh one. OAuth emails count as verified:
// the provider already confirmed ownership, so these accounts skip the
// verification mail entirely.
func (h *OAuthHandler) createOAuthUser(gothUser *goth.User) (*models.User, bool, error) {
	tx := h.db.Begin()

	var existingUser models.User
	emailExists := tx.Where("email = ?", gothUser.Email).First(&existingUser).Error == nil
	if emailExists {
		oauthProvider := models.OAuthProvider{
			UserID:         existingUser.ID,
			Provider:       gothUser.Provider,
			ProviderUserID: gothUser.UserID,
		}
		if err := tx.Create(&oauthProvider).Error; err != nil {
			tx.Rollback()
			return nil, false, err
		}
		tx.Commit()
		return &existingUser, false, nil
	}

	now := time.Now()
	user := models.User{
		Email:         gothUser.Email,
		Name:          oauthDisplayName(gothUser),
		IsActive:      true,
		EmailVerified: true,
		VerifiedAt:    &now,
		Password:      "", // OAuth accounts have no local password
	}
	if err := tx.Create(&user).Error; err != nil {
		tx.Rollback()
		return nil, false, err
	}

	oauthProvider := models.OAuthProvider{
		UserID:         user.ID,
		Provider:       gothUser.Provider,
		ProviderUserID: gothUser.UserID,
	}
	if err := tx.Create(&oauthProvider).Error; err != nil {
		tx.Rollback()
		return nil, false, err
	}

	credits := models.UserCredits{
		UserID:  user.ID,
		Credits: models.GetInitialCreditsForRole(user.Role),
	}
	if err := tx.Create(&credits).Error; err != nil {
		tx.Rollback()
		return nil, false, err
	}

	tx.Commit()
	return &user, true, nil
}

// oauthDisplayName falls back to the email local part when the provider
// shares no name.
func oauthDisplayName(gothUser *goth.User) string {
	if gothUser.Name != "" {
		return gothUser.Name
	}
	local, _, _ := strings.Cut(gothUser.Email, "@")
	return local
}
