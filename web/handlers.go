package web

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/deemkeen/anancus/account"
	"github.com/deemkeen/anancus/domain"
	"github.com/deemkeen/anancus/relation"
	"github.com/deemkeen/anancus/search"
	"github.com/deemkeen/anancus/status"
	"github.com/deemkeen/anancus/suggest"
	"github.com/deemkeen/anancus/util"
	"github.com/gin-gonic/gin"
)

// API bundles the core components behind the JSON endpoints. Auth and
// session handling live outside, handlers act on resolved accounts.
type API struct {
	Conf     *util.AppConfig
	Registry *account.Registry
	Graph    *relation.Graph
	Engine   *suggest.Engine
	Ranker   *search.Ranker
	Statuses *status.Store
	Pins     *status.Pins
}

type accountJSON struct {
	Id             int64  `json:"id"`
	Acct           string `json:"acct"`
	Username       string `json:"username"`
	Domain         string `json:"domain,omitempty"`
	URI            string `json:"uri"`
	DisplayName    string `json:"display_name"`
	Note           string `json:"note"`
	StatusesCount  int64  `json:"statuses_count"`
	FollowersCount int64  `json:"followers_count"`
	FollowingCount int64  `json:"following_count"`
	Locked         bool   `json:"locked"`
	CreatedAt      string `json:"created_at"`
}

type statusJSON struct {
	Id         int64  `json:"id"`
	AccountId  int64  `json:"account_id"`
	Text       string `json:"text"`
	Visibility string `json:"visibility"`
	Sensitive  bool   `json:"sensitive"`
	CreatedAt  string `json:"created_at"`
}

func renderAccount(acc *domain.Account) accountJSON {
	return accountJSON{
		Id:             acc.Id,
		Acct:           acc.Acct(),
		Username:       acc.Username,
		Domain:         acc.Domain,
		URI:            acc.URI,
		DisplayName:    acc.DisplayName,
		Note:           acc.Note,
		StatusesCount:  acc.StatusesCount,
		FollowersCount: acc.FollowersCount,
		FollowingCount: acc.FollowingCount,
		Locked:         acc.Locked,
		CreatedAt:      acc.CreatedAt.Format(time.RFC3339),
	}
}

func renderStatuses(statuses []domain.Status) []statusJSON {
	out := make([]statusJSON, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, statusJSON{
			Id:         st.Id,
			AccountId:  st.AccountId,
			Text:       st.Text,
			Visibility: st.Visibility,
			Sensitive:  st.Sensitive,
			CreatedAt:  st.CreatedAt.Format(time.RFC3339),
		})
	}
	return out
}

func (api *API) lookupAccount(c *gin.Context) (*domain.Account, bool) {
	acc, err := api.Registry.ResolveLocal(c.Request.Context(), c.Param("username"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		}
		return nil, false
	}
	return acc, true
}

// HandleProfile serves the public profile of a local account
func (api *API) HandleProfile(c *gin.Context) {
	acc, ok := api.lookupAccount(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, renderAccount(acc))
}

// HandleStatuses serves one cursor page of an account's statuses.
// max_id/since_id page backwards, min_id pages forwards; the page is
// always presented newest first.
func (api *API) HandleStatuses(c *gin.Context) {
	acc, ok := api.lookupAccount(c)
	if !ok {
		return
	}

	page := status.Page{
		MaxId:    queryInt64(c, "max_id"),
		SinceId:  queryInt64(c, "since_id"),
		MinId:    queryInt64(c, "min_id"),
		PageSize: int(queryInt64(c, "limit")),
	}

	statuses, err := api.Statuses.AccountStatuses(c.Request.Context(), acc.Id, page)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load statuses"})
		return
	}
	c.JSON(http.StatusOK, renderStatuses(statuses))
}

// HandlePinned serves the account's pinned statuses, most recently pinned
// first
func (api *API) HandlePinned(c *gin.Context) {
	acc, ok := api.lookupAccount(c)
	if !ok {
		return
	}

	statuses, err := api.Pins.PinnedStatuses(c.Request.Context(), acc.Id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load pins"})
		return
	}
	c.JSON(http.StatusOK, renderStatuses(statuses))
}

// HandleSuggestions serves follow suggestions for a local account. A timed
// out query degrades to an empty page instead of failing the request.
func (api *API) HandleSuggestions(c *gin.Context) {
	acc, ok := api.lookupAccount(c)
	if !ok {
		return
	}

	limit := int(queryInt64(c, "limit"))
	if limit <= 0 || limit > 40 {
		limit = 5
	}
	offset := int(queryInt64(c, "offset"))

	suggestions, err := api.Engine.Suggest(c.Request.Context(), acc.Id, limit, offset, nil)
	if err != nil {
		if errors.Is(err, domain.ErrQueryTimeout) {
			log.Printf("Warning: suggestion query for %s timed out, serving empty page", acc.Username)
			c.JSON(http.StatusOK, []accountJSON{})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load suggestions"})
		return
	}

	out := make([]accountJSON, 0, len(suggestions))
	for i := range suggestions {
		out = append(out, renderAccount(&suggestions[i]))
	}
	c.JSON(http.StatusOK, out)
}

type searchResultJSON struct {
	Account accountJSON `json:"account"`
	Score   float64     `json:"score"`
}

// HandleSearch serves ranked account search. With a viewer parameter the
// ranking includes social affinity, otherwise it is pure text relevance.
func (api *API) HandleSearch(c *gin.Context) {
	terms := c.Query("q")
	limit := int(queryInt64(c, "limit"))
	if limit <= 0 || limit > 40 {
		limit = 10
	}

	var ranked []search.RankedAccount
	var err error

	if viewer := c.Query("viewer"); viewer != "" {
		viewerAcc, resolveErr := api.Registry.ResolveLocal(c.Request.Context(), viewer)
		if resolveErr != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "viewer not found"})
			return
		}
		ranked, err = api.Ranker.SearchWithAffinity(c.Request.Context(), terms, viewerAcc.Id, limit)
	} else {
		ranked, err = api.Ranker.Search(c.Request.Context(), terms, limit)
	}

	if err != nil {
		if errors.Is(err, domain.ErrQueryTimeout) {
			log.Printf("Warning: search for %q timed out, serving empty result", terms)
			c.JSON(http.StatusOK, []searchResultJSON{})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	out := make([]searchResultJSON, 0, len(ranked))
	for i := range ranked {
		out = append(out, searchResultJSON{
			Account: renderAccount(&ranked[i].Account),
			Score:   ranked[i].Score,
		})
	}
	c.JSON(http.StatusOK, out)
}

func queryInt64(c *gin.Context, name string) int64 {
	raw := c.Query(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
