package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/daybook/internal/api"
	"github.com/dmitrijs2005/daybook/internal/server/models"
)

func toWire(e *models.Entry) api.Entry {
	return api.Entry{
		ID:        e.ID,
		Date:      e.Date,
		Content:   e.Content,
		Mood:      e.Mood,
		Images:    e.Images,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func (h *Handler) putEntry(c *gin.Context) {
	var input api.Entry
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// The path decides which day is written; a mismatching body date is not
	// trusted.
	entry := &models.Entry{
		ID:        input.ID,
		UserID:    currentUserID(c),
		Date:      c.Param("date"),
		Content:   input.Content,
		Mood:      input.Mood,
		Images:    input.Images,
		CreatedAt: input.CreatedAt,
		UpdatedAt: input.UpdatedAt,
	}

	if err := h.entries.Save(c.Request.Context(), entry); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) getEntry(c *gin.Context) {
	entry, err := h.entries.Get(c.Request.Context(), currentUserID(c), c.Param("date"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toWire(entry))
}

func (h *Handler) deleteEntry(c *gin.Context) {
	if err := h.entries.Delete(c.Request.Context(), currentUserID(c), c.Param("date")); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listEntries(c *gin.Context) {
	list, err := h.entries.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	out := make([]api.Entry, 0, len(list))
	for _, e := range list {
		out = append(out, toWire(e))
	}
	c.JSON(http.StatusOK, out)
}

// deleteEntries clears the user's journal, or prunes days older than the
// older_than_days query parameter when it is present.
func (h *Handler) deleteEntries(c *gin.Context) {
	userID := currentUserID(c)

	if raw, ok := c.GetQuery("older_than_days"); ok {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "older_than_days must be a non-negative integer"})
			return
		}
		if err := h.entries.DeleteOlderThan(c.Request.Context(), userID, days); err != nil {
			h.abortWithError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
		return
	}

	if err := h.entries.Clear(c.Request.Context(), userID); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
