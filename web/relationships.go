package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/deemkeen/anancus/domain"
	"github.com/gin-gonic/gin"
)

// Relationship mutations. The acting account is the local :username, the
// target is addressed by id since remote accounts have no unique local name.

func (api *API) paramTargetId(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("target_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid target id"})
		return 0, false
	}
	return id, true
}

func (api *API) renderEdgeResult(c *gin.Context, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	case errors.Is(err, domain.ErrInvalidRelationship):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid relationship"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "relationship update failed"})
	}
}

func (api *API) edgeHandler(f func(ctx *gin.Context, sourceId, targetId int64) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		acc, ok := api.lookupAccount(c)
		if !ok {
			return
		}
		targetId, ok := api.paramTargetId(c)
		if !ok {
			return
		}
		api.renderEdgeResult(c, f(c, acc.Id, targetId))
	}
}

func (api *API) HandleFollow(c *gin.Context) {
	api.edgeHandler(func(c *gin.Context, sourceId, targetId int64) error {
		return api.Graph.Follow(c.Request.Context(), sourceId, targetId)
	})(c)
}

func (api *API) HandleUnfollow(c *gin.Context) {
	api.edgeHandler(func(c *gin.Context, sourceId, targetId int64) error {
		return api.Graph.Unfollow(c.Request.Context(), sourceId, targetId)
	})(c)
}

func (api *API) HandleBlock(c *gin.Context) {
	api.edgeHandler(func(c *gin.Context, sourceId, targetId int64) error {
		return api.Graph.Block(c.Request.Context(), sourceId, targetId)
	})(c)
}

func (api *API) HandleUnblock(c *gin.Context) {
	api.edgeHandler(func(c *gin.Context, sourceId, targetId int64) error {
		return api.Graph.Unblock(c.Request.Context(), sourceId, targetId)
	})(c)
}

func (api *API) HandleMute(c *gin.Context) {
	api.edgeHandler(func(c *gin.Context, sourceId, targetId int64) error {
		return api.Graph.Mute(c.Request.Context(), sourceId, targetId)
	})(c)
}

func (api *API) HandleUnmute(c *gin.Context) {
	api.edgeHandler(func(c *gin.Context, sourceId, targetId int64) error {
		return api.Graph.Unmute(c.Request.Context(), sourceId, targetId)
	})(c)
}

type domainBlockJSON struct {
	Domain string `json:"domain" binding:"required"`
}

func (api *API) HandleBlockDomain(c *gin.Context) {
	acc, ok := api.lookupAccount(c)
	if !ok {
		return
	}
	var body domainBlockJSON
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	api.renderEdgeResult(c, api.Graph.BlockDomain(c.Request.Context(), acc.Id, body.Domain))
}

func (api *API) HandleUnblockDomain(c *gin.Context) {
	acc, ok := api.lookupAccount(c)
	if !ok {
		return
	}
	var body domainBlockJSON
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	api.renderEdgeResult(c, api.Graph.UnblockDomain(c.Request.Context(), acc.Id, body.Domain))
}

type publishJSON struct {
	Text       string `json:"text" binding:"required"`
	Visibility string `json:"visibility"`
	Sensitive  bool   `json:"sensitive"`
}

// HandlePublish creates a status on behalf of a local account
func (api *API) HandlePublish(c *gin.Context) {
	acc, ok := api.lookupAccount(c)
	if !ok {
		return
	}
	var body publishJSON
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if body.Visibility == "" {
		body.Visibility = domain.VisibilityPublic
	}

	st, err := api.Statuses.Publish(c.Request.Context(), acc.Id, body.Text, body.Visibility, body.Sensitive)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not publish"})
		return
	}
	c.JSON(http.StatusOK, renderStatuses([]domain.Status{*st})[0])
}

func (api *API) HandlePin(c *gin.Context) {
	acc, ok := api.lookupAccount(c)
	if !ok {
		return
	}
	statusId, err := strconv.ParseInt(c.Param("status_id"), 10, 64)
	if err != nil || statusId <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status id"})
		return
	}
	api.renderEdgeResult(c, api.Pins.Pin(c.Request.Context(), acc.Id, statusId))
}

func (api *API) HandleUnpin(c *gin.Context) {
	acc, ok := api.lookupAccount(c)
	if !ok {
		return
	}
	statusId, err := strconv.ParseInt(c.Param("status_id"), 10, 64)
	if err != nil || statusId <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status id"})
		return
	}
	api.renderEdgeResult(c, api.Pins.Unpin(c.Request.Context(), acc.Id, statusId))
}
