package services

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"time"

	"github.com/lyricforge/lyricforge-api/internal/config"
	"github.com/lyricforge/lyricforge-api/internal/models"
	"github.com/aws/aws-sdk-go/aws"         //nolint:staticcheck // TODO: Migrate to aws-sdk-go-v2
	"github.com/aws/aws-sdk-go/aws/session" //nolint:staticcheck
	"github.com/aws/aws-sdk-go/service/ses" //nolint:staticcheck
	"gorm.io/gorm"
)

type EmailService struct {
	db        *gorm.DB
	cfg       *config.Config
	sesClient *ses.SES
}

func NewEmailService(db *gorm.DB, cfg *config.Config) *EmailService {
	sess := session.Must(session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWSRegion),
	}))

	return &EmailService{
		db:        db,
		cfg:       cfg,
		sesClient: ses.New(sess),
	}
}

const (
	tokenBytes              = 32
	verificationTokenExpiry = 24 * time.Hour
)

// GenerateVerificationToken creates a new email verification token
func (s *EmailService) GenerateVerificationToken(userID uint) (string, error) {
	randomBytes := make([]byte, tokenBytes)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(randomBytes)

	verificationToken := models.EmailVerificationToken{
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Now().Add(verificationTokenExpiry),
	}

	if err := s.db.Create(&verificationToken).Error; err != nil {
		return "", err
	}

	return token, nil
}

// SendVerificationEmail sends a verification email to the user
func (s *EmailService) SendVerificationEmail(user *models.User, token string) error {
	verificationURL := fmt.Sprintf("%s/verify-email?token=%s", s.cfg.FrontendURL, token)

	htmlBody, err := renderEmailTemplate(verificationEmailHTML, map[string]string{
		"Name":            user.Name,
		"VerificationURL": verificationURL,
	})
	if err != nil {
		return err
	}

	textBody := fmt.Sprintf(`Welcome to LyricForge!

Please verify your email address by opening the link below:

%s

The link expires in 24 hours.

---
LyricForge
Turn your lyrics into songs
`, verificationURL)

	return s.send(user.Email, "Verify your email - LyricForge 🎵", htmlBody, textBody)
}

// SendInvitationEmail sends an invitation code to a potential user
func (s *EmailService) SendInvitationEmail(email, code, note string) error {
	signupURL := fmt.Sprintf("%s/auth/accept-invitation?email=%s&code=%s", s.cfg.FrontendURL, email, code)

	htmlBody, err := renderEmailTemplate(invitationEmailHTML, map[string]string{
		"Code":      code,
		"Note":      note,
		"SignupURL": signupURL,
	})
	if err != nil {
		return err
	}

	textBody := fmt.Sprintf(`You're invited to LyricForge!

You've been invited to LyricForge - write lyrics, pick a genre, and get a
finished song back. Open the link below to accept the invitation and set
your password:

%s

---
LyricForge
Turn your lyrics into songs
`, signupURL)

	return s.send(email, "You're invited to LyricForge! 🎵", htmlBody, textBody)
}

// VerifyEmail verifies an email using the provided token
func (s *EmailService) VerifyEmail(token string) error {
	var verificationToken models.EmailVerificationToken
	if err := s.db.Where("token = ?", token).First(&verificationToken).Error; err != nil {
		return fmt.Errorf("invalid verification token")
	}

	if verificationToken.UsedAt != nil {
		return fmt.Errorf("verification token already used")
	}
	if time.Now().After(verificationToken.ExpiresAt) {
		return fmt.Errorf("verification token expired")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		verificationToken.UsedAt = &now
		if err := tx.Save(&verificationToken).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", verificationToken.UserID).Updates(map[string]interface{}{
			"email_verified": true,
			"verified_at":    now,
		}).Error
	})
}

// ResendVerificationEmail generates a new token and resends the verification email
func (s *EmailService) ResendVerificationEmail(email string) error {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		return fmt.Errorf("user not found")
	}

	if user.EmailVerified {
		return fmt.Errorf("email already verified")
	}

	// Invalidate old tokens
	s.db.Model(&models.EmailVerificationToken{}).
		Where("user_id = ? AND used_at IS NULL", user.ID).
		Update("used_at", time.Now())

	token, err := s.GenerateVerificationToken(user.ID)
	if err != nil {
		return err
	}

	return s.SendVerificationEmail(&user, token)
}

func (s *EmailService) send(to, subject, htmlBody, textBody string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(s.cfg.EmailFrom),
		Destination: &ses.Destination{
			ToAddresses: []*string{aws.String(to)},
		},
		Message: &ses.Message{
			Subject: &ses.Content{
				Data:    aws.String(subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &ses.Body{
				Html: &ses.Content{
					Data:    aws.String(htmlBody),
					Charset: aws.String("UTF-8"),
				},
				Text: &ses.Content{
					Data:    aws.String(textBody),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	_, err := s.sesClient.SendEmail(input)
	return err
}

func renderEmailTemplate(tmplText string, data map[string]string) (string, error) {
	tmpl, err := template.New("email").Parse(tmplText)
	if err != nil {
		return "", err
	}
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return "", err
	}
	return body.String(), nil
}

const verificationEmailHTML = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Verify Your Email - LyricForge</title>
</head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="background: linear-gradient(135deg, #f7971e 0%, #ffd200 100%);
                padding: 30px; border-radius: 10px 10px 0 0; text-align: center;">
        <h1 style="color: white; margin: 0;">🎵 LyricForge</h1>
    </div>
    <div style="background-color: white; padding: 40px; border-radius: 0 0 10px 10px;
                box-shadow: 0 2px 10px rgba(0,0,0,0.1);">
        <h2 style="color: #333;">Welcome{{if .Name}}, {{.Name}}{{end}}!</h2>
        <p style="color: #666; line-height: 1.6;">
            Thanks for signing up for LyricForge. Verify your email address to
            start turning your lyrics into songs.
        </p>
        <div style="text-align: center; margin: 30px 0;">
            <a href="{{.VerificationURL}}"
               style="background: linear-gradient(135deg, #f7971e 0%, #ffd200 100%);
                      color: white; padding: 15px 40px; text-decoration: none;
                      border-radius: 5px; font-weight: bold; display: inline-block;">
                Verify Email
            </a>
        </div>
        <p style="color: #999; font-size: 12px; margin-top: 30px;">
            If the button doesn't work, copy and paste this link into your browser:<br>
            <a href="{{.VerificationURL}}" style="color: #f7971e;">{{.VerificationURL}}</a>
        </p>
    </div>
    <div style="text-align: center; padding: 20px; color: #999; font-size: 12px;">
        <p>© 2026 LyricForge. All rights reserved.</p>
    </div>
</body>
</html>`

const invitationEmailHTML = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>You're Invited to LyricForge!</title>
</head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="background: linear-gradient(135deg, #f7971e 0%, #ffd200 100%);
                padding: 30px; border-radius: 10px 10px 0 0; text-align: center;">
        <h1 style="color: white; margin: 0;">🎵 LyricForge</h1>
    </div>
    <div style="background-color: white; padding: 40px; border-radius: 0 0 10px 10px;
                box-shadow: 0 2px 10px rgba(0,0,0,0.1);">
        <h2 style="color: #333;">You're Invited!</h2>
        <p style="color: #666; line-height: 1.6;">
            You've been invited to LyricForge - write lyrics, pick a genre,
            and get a finished song back. Click the button below to set your
            password and get started!
        </p>
        {{if .Note}}
        <p style="color: #666; line-height: 1.6; font-style: italic;">
            Note: {{.Note}}
        </p>
        {{end}}
        <div style="text-align: center; margin: 30px 0;">
            <a href="{{.SignupURL}}"
               style="background: linear-gradient(135deg, #f7971e 0%, #ffd200 100%);
                      color: white; padding: 15px 40px; text-decoration: none;
                      border-radius: 5px; font-weight: bold; display: inline-block;">
                Accept Invitation & Set Password
            </a>
        </div>
        <p style="color: #999; font-size: 12px; margin-top: 30px;">
            If the button doesn't work, copy and paste this link into your browser:<br>
            <a href="{{.SignupURL}}" style="color: #f7971e;">{{.SignupURL}}</a>
        </p>
    </div>
    <div style="text-align: center; padding: 20px; color: #999; font-size: 12px;">
        <p>© 2026 LyricForge. All rights reserved.</p>
    </div>
</body>
</html>`
