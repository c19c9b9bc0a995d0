package web

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"golang.org/x/time/rate"
)

func Router(api *API) error {
	conf := api.Conf
	log.Printf("Starting HTTP server on %s:%d", conf.Conf.Host, conf.Conf.HttpPort)
	g := gin.Default()
	g.Use(gzip.Gzip(gzip.DefaultCompression))

	// Global rate limiter: 10 requests per second per IP, burst of 20
	globalLimiter := NewRateLimiter(rate.Limit(10), 20)
	g.Use(RateLimitMiddleware(globalLimiter))
	g.Use(MaxBytesMiddleware(1 * 1024 * 1024))

	// Account profile and content
	g.GET("/api/v1/accounts/:username", api.HandleProfile)
	g.GET("/api/v1/accounts/:username/statuses", api.HandleStatuses)
	g.GET("/api/v1/accounts/:username/pinned", api.HandlePinned)
	g.GET("/api/v1/accounts/:username/suggestions", api.HandleSuggestions)
	g.GET("/api/v1/search", api.HandleSearch)

	// Content mutations for local accounts
	g.POST("/api/v1/accounts/:username/statuses", api.HandlePublish)
	g.POST("/api/v1/accounts/:username/pins/:status_id", api.HandlePin)
	g.DELETE("/api/v1/accounts/:username/pins/:status_id", api.HandleUnpin)

	// Relationship edges
	g.POST("/api/v1/accounts/:username/follow/:target_id", api.HandleFollow)
	g.DELETE("/api/v1/accounts/:username/follow/:target_id", api.HandleUnfollow)
	g.POST("/api/v1/accounts/:username/block/:target_id", api.HandleBlock)
	g.DELETE("/api/v1/accounts/:username/block/:target_id", api.HandleUnblock)
	g.POST("/api/v1/accounts/:username/mute/:target_id", api.HandleMute)
	g.DELETE("/api/v1/accounts/:username/mute/:target_id", api.HandleUnmute)
	g.POST("/api/v1/accounts/:username/domain_blocks", api.HandleBlockDomain)
	g.DELETE("/api/v1/accounts/:username/domain_blocks", api.HandleUnblockDomain)

	// Webfinger for local accounts
	g.GET("/.well-known/webfinger", func(c *gin.Context) {
		c.Header("Content-Type", "application/jrd+json; charset=utf-8")
		resource := c.Query("resource")
		user := parseWebfingerResource(resource, conf.Conf.LocalDomain)
		if user == "" {
			c.Render(http.StatusNotFound, render.String{Format: GetWebFingerNotFound()})
			return
		}
		err, body := GetWebfinger(c.Request.Context(), api.Registry, user, conf)
		if err != nil {
			c.Render(http.StatusNotFound, render.String{Format: GetWebFingerNotFound()})
		} else {
			c.Render(http.StatusOK, render.String{Format: body})
		}
	})

	// RSS Feed
	g.GET("/feed", func(c *gin.Context) {
		c.Header("Content-Type", "application/xml; charset=utf-8")

		username := c.Query("username")
		rss, err := GetRSS(c.Request.Context(), conf, api.Registry, api.Statuses, username)
		if err != nil {
			c.Render(http.StatusNotFound, render.String{Format: ""})
		} else {
			c.Render(http.StatusOK, render.String{Format: rss})
		}
	})

	g.GET("/feed/:id", func(c *gin.Context) {
		c.Header("Content-Type", "application/xml; charset=utf-8")
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.Render(http.StatusNotFound, render.String{Format: ""})
			return
		}

		rssItem, err := GetRSSItem(c.Request.Context(), conf, api.Registry, api.Statuses, id)
		if err != nil {
			c.Render(http.StatusNotFound, render.String{Format: ""})
		} else {
			c.Render(http.StatusOK, render.String{Format: rssItem})
		}
	})

	return g.Run(conf.Conf.Host + ":" + strconv.Itoa(conf.Conf.HttpPort))
}
