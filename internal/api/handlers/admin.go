package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lyricforge/lyricforge-api/internal/models"
	"gorm.io/gorm"
)

// recentActivityLimit bounds the usage log slice returned with user details.
const recentActivityLimit = 50

// AdminHandler exposes the account management surface. Every route here
// sits behind the admin role check.
type AdminHandler struct {
	db *gorm.DB
}

func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin beta user"`
}

type UpdateCreditsRequest struct {
	Credits   int    `json:"credits" binding:"required"`
	Operation string `json:"operation" binding:"required,oneof=set add subtract"`
}

// accountSummary is one row of the user list: the account plus its balance
// and how many songs it has rendered.
type accountSummary struct {
	models.User
	Credits   int   `json:"credits"`
	SongCount int64 `json:"song_count"`
}

// loadUser resolves the :id route param to an account.
func (h *AdminHandler) loadUser(c *gin.Context) (*models.User, bool) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return nil, false
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return nil, false
	}
	return &user, true
}

// ListUsers returns all accounts with balances and song counts, optionally
// filtered by role or active status.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	query := h.db.Model(&models.User{})

	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if isActive := c.Query("is_active"); isActive != "" {
		query = query.Where("is_active = ?", isActive == "true")
	}

	var users []models.User
	if err := query.Order("created_at DESC").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	summaries := make([]accountSummary, 0, len(users))
	for _, user := range users {
		summary := accountSummary{User: user}

		var credits models.UserCredits
		if err := h.db.Where("user_id = ?", user.ID).First(&credits).Error; err == nil {
			summary.Credits = credits.Credits
		}
		h.db.Model(&models.Song{}).Where("user_id = ?", user.ID).Count(&summary.SongCount)

		summaries = append(summaries, summary)
	}

	c.JSON(http.StatusOK, gin.H{
		"users": summaries,
		"total": len(summaries),
	})
}

// GetUserDetails returns one account with its balance, song count, and
// recent usage activity.
func (h *AdminHandler) GetUserDetails(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}

	var credits models.UserCredits
	h.db.Where("user_id = ?", user.ID).First(&credits)

	var songCount int64
	h.db.Model(&models.Song{}).Where("user_id = ?", user.ID).Count(&songCount)

	var usageLogs []models.UsageLog
	h.db.Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Limit(recentActivityLimit).
		Find(&usageLogs)

	c.JSON(http.StatusOK, gin.H{
		"user":         user,
		"credits":      credits.Credits,
		"song_count":   songCount,
		"recent_usage": usageLogs,
	})
}

// UpdateUserRole changes an account's role. Moving a user to beta or admin
// lifts the credit gate on their next request.
func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.Model(user).Update("role", req.Role).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update role"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Role updated successfully",
		"user_id": user.ID,
		"role":    req.Role,
	})
}

// ToggleUserActive flips the account's active flag. Deactivated accounts
// fail authentication on their next request.
func (h *AdminHandler) ToggleUserActive(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}

	newState := !user.IsActive
	if err := h.db.Model(user).Update("is_active", newState).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "User status updated",
		"user_id":   user.ID,
		"is_active": newState,
	})
}

// UpdateUserCredits adjusts an account's balance. Balances never go
// negative; subtract clamps to zero.
func (h *AdminHandler) UpdateUserCredits(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}

	var req UpdateCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var credits models.UserCredits
	err := h.db.Where("user_id = ?", user.ID).First(&credits).Error
	if err == gorm.ErrRecordNotFound {
		credits = models.UserCredits{UserID: user.ID}
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch credits"})
		return
	}

	switch req.Operation {
	case "set":
		credits.Credits = req.Credits
	case "add":
		credits.Credits += req.Credits
	case "subtract":
		credits.Credits -= req.Credits
	}
	if credits.Credits < 0 {
		credits.Credits = 0
	}

	if err := h.db.Save(&credits).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update credits"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Credits updated successfully",
		"user_id": user.ID,
		"credits": credits.Credits,
	})
}

// DeleteUser removes an account and everything keyed to it. Invitation
// codes the user touched survive with the references nulled, so the
// invitation audit trail outlives the account.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.UserCredits{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.UsageLog{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Song{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.EmailVerificationToken{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.InvitationCode{}).
			Where("created_by_id = ?", user.ID).
			Update("created_by_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.InvitationCode{}).
			Where("used_by_id = ?", user.ID).
			Update("used_by_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(user).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
