package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lyricforge/lyricforge-api/internal/models"
	"github.com/lyricforge/lyricforge-api/internal/services"
	"gorm.io/gorm"
)

const (
	// defaultInvitationTTL applies when no explicit expiry is requested.
	// Open-ended codes circulate forever; two weeks covers any real
	// onboarding conversation.
	defaultInvitationTTL = 14 * 24 * time.Hour
	// maxInvitationUses caps multi-use codes so a leaked one cannot seed
	// an unbounded number of beta accounts.
	maxInvitationUses = 100
)

// InvitationHandler manages beta invitation codes. Registering with a valid
// code grants the beta role (unlimited credits, no email verification);
// plain registration stays open without one.
type InvitationHandler struct {
	db           *gorm.DB
	emailService *services.EmailService
}

func NewInvitationHandler(db *gorm.DB, emailService *services.EmailService) *InvitationHandler {
	return &InvitationHandler{
		db:           db,
		emailService: emailService,
	}
}

type CreateInvitationRequest struct {
	Note           string `json:"note"`
	MaxUses        int    `json:"max_uses"`         // default 1
	ExpiresInHours int    `json:"expires_in_hours"` // default 14 days
}

type SendInvitationRequest struct {
	Email          string `json:"email" binding:"required,email"`
	Note           string `json:"note"`
	MaxUses        int    `json:"max_uses"`
	ExpiresInHours int    `json:"expires_in_hours"`
}

type ResendInvitationRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type InvitationResponse struct {
	models.InvitationCode
	GrantsRole     string `json:"grants_role"`
	CreatedByEmail string `json:"created_by_email,omitempty"`
	UsedByEmail    string `json:"used_by_email,omitempty"`
}

// newInvitation builds a code with the product defaults applied.
func newInvitation(createdBy uint, note string, maxUses, expiresInHours int) (*models.InvitationCode, error) {
	code, err := models.GenerateInvitationCode()
	if err != nil {
		return nil, err
	}

	if maxUses <= 0 {
		maxUses = 1
	}
	if maxUses > maxInvitationUses {
		maxUses = maxInvitationUses
	}

	ttl := defaultInvitationTTL
	if expiresInHours > 0 {
		ttl = time.Duration(expiresInHours) * time.Hour
	}
	expiresAt := time.Now().Add(ttl)

	return &models.InvitationCode{
		Code:        code,
		CreatedByID: createdBy,
		Note:        note,
		MaxUses:     maxUses,
		ExpiresAt:   &expiresAt,
	}, nil
}

// CreateInvitation mints a beta invitation code.
func (h *InvitationHandler) CreateInvitation(c *gin.Context) {
	var req CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	adminID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	invitation, err := newInvitation(adminID.(uint), req.Note, req.MaxUses, req.ExpiresInHours)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate invitation code"})
		return
	}

	if err := h.db.Create(invitation).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create invitation"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"invitation":  invitation,
		"grants_role": models.RoleBeta,
	})
}

// SendInvitation mints a code and mails it in one step.
func (h *InvitationHandler) SendInvitation(c *gin.Context) {
	var req SendInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	adminID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	// The note defaults to the recipient so the admin list stays legible.
	note := req.Note
	if note == "" {
		note = req.Email
	}

	invitation, err := newInvitation(adminID.(uint), note, req.MaxUses, req.ExpiresInHours)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate invitation code"})
		return
	}

	if err := h.db.Create(invitation).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create invitation"})
		return
	}

	if err := h.emailService.SendInvitationEmail(req.Email, invitation.Code, note); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invitation created but failed to send email"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Invitation created and sent successfully",
		"invitation":  invitation,
		"grants_role": models.RoleBeta,
	})
}

// ResendInvitation mails an existing code again. Exhausted or expired codes
// are refused; mint a fresh one instead.
func (h *InvitationHandler) ResendInvitation(c *gin.Context) {
	invitationID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invitation ID"})
		return
	}

	var req ResendInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var invitation models.InvitationCode
	if err := h.db.First(&invitation, invitationID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invitation not found"})
		return
	}

	if !invitation.IsValid() {
		c.JSON(http.StatusConflict, gin.H{"error": "Invitation is expired or fully used"})
		return
	}

	if err := h.emailService.SendInvitationEmail(req.Email, invitation.Code, invitation.Note); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send email"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invitation resent successfully"})
}

// ListInvitations returns all codes, optionally filtered by status.
func (h *InvitationHandler) ListInvitations(c *gin.Context) {
	query := h.db.Preload("CreatedBy").Preload("UsedBy")

	switch c.Query("status") {
	case "active":
		query = query.Where("current_uses < max_uses").
			Where("expires_at IS NULL OR expires_at > ?", time.Now())
	case "used":
		query = query.Where("current_uses >= max_uses")
	case "expired":
		query = query.Where("expires_at IS NOT NULL AND expires_at < ?", time.Now())
	}

	var invitations []models.InvitationCode
	if err := query.Order("created_at DESC").Find(&invitations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch invitations"})
		return
	}

	responses := make([]InvitationResponse, 0, len(invitations))
	for _, inv := range invitations {
		resp := InvitationResponse{
			InvitationCode: inv,
			GrantsRole:     models.RoleBeta,
		}
		if inv.CreatedBy != nil {
			resp.CreatedByEmail = inv.CreatedBy.Email
		}
		if inv.UsedBy != nil {
			resp.UsedByEmail = inv.UsedBy.Email
		}
		responses = append(responses, resp)
	}

	c.JSON(http.StatusOK, gin.H{"invitations": responses})
}

// GetInvitationStats summarizes the invitation pool.
func (h *InvitationHandler) GetInvitationStats(c *gin.Context) {
	var total, used, active, expired int64

	now := time.Now()
	h.db.Model(&models.InvitationCode{}).Count(&total)
	h.db.Model(&models.InvitationCode{}).Where("current_uses >= max_uses").Count(&used)
	h.db.Model(&models.InvitationCode{}).
		Where("current_uses < max_uses").
		Where("expires_at IS NULL OR expires_at > ?", now).
		Count(&active)
	h.db.Model(&models.InvitationCode{}).Where("expires_at IS NOT NULL AND expires_at < ?", now).Count(&expired)

	c.JSON(http.StatusOK, gin.H{
		"total":   total,
		"used":    used,
		"active":  active,
		"expired": expired,
	})
}

// DeleteInvitation revokes a code before anyone registers with it.
func (h *InvitationHandler) DeleteInvitation(c *gin.Context) {
	invitationID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invitation ID"})
		return
	}

	if err := h.db.Delete(&models.InvitationCode{}, invitationID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete invitation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invitation deleted successfully"})
}
