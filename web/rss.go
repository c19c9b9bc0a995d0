package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/deemkeen/anancus/account"
	"github.com/deemkeen/anancus/domain"
	"github.com/deemkeen/anancus/status"
	"github.com/deemkeen/anancus/util"
	"github.com/gorilla/feeds"
)

// GetRSS renders the latest public statuses of a local account as RSS.
func GetRSS(ctx context.Context, conf *util.AppConfig, registry *account.Registry, statuses *status.Store, username string) (string, error) {

	acc, err := registry.ResolveLocal(ctx, username)
	if err != nil {
		log.Println(fmt.Sprintf("Could not resolve %s for the feed!", username), err)
		return "", errors.New("error resolving feed account")
	}

	page, err := statuses.AccountStatuses(ctx, acc.Id, status.Page{PageSize: 20})
	if err != nil {
		log.Println(fmt.Sprintf("Could not get statuses from %s!", username), err)
		return "", errors.New("error retrieving statuses by username")
	}

	link := fmt.Sprintf("http://%s:%d/feed?username=%s", conf.Conf.Host, conf.Conf.HttpPort, username)
	email := fmt.Sprintf("%s@%s", acc.Username, conf.Conf.LocalDomain)

	feed := &feeds.Feed{
		Title:       fmt.Sprintf("Anancus Statuses - %s", username),
		Link:        &feeds.Link{Href: link},
		Description: fmt.Sprintf("status feed of %s", acc.Acct()),
		Author:      &feeds.Author{Name: acc.Username, Email: email},
		Created:     time.Now(),
	}

	var feedItems []*feeds.Item
	for _, st := range page {
		if st.Visibility != domain.VisibilityPublic {
			continue
		}
		feedItems = append(feedItems,
			&feeds.Item{
				Id:      strconv.FormatInt(st.Id, 10),
				Title:   st.CreatedAt.Format(util.DateTimeFormat()),
				Link:    &feeds.Link{Href: fmt.Sprintf("http://%s:%d/feed/%d", conf.Conf.Host, conf.Conf.HttpPort, st.Id)},
				Content: st.Text,
				Author:  &feeds.Author{Name: acc.Username, Email: email},
				Created: st.CreatedAt,
			})
	}

	feed.Items = feedItems
	return feed.ToRss()
}

// GetRSSItem renders a single public status as a one-item feed.
func GetRSSItem(ctx context.Context, conf *util.AppConfig, registry *account.Registry, statuses *status.Store, id int64) (string, error) {
	st, err := statuses.ById(ctx, id)
	if err != nil || st.Visibility != domain.VisibilityPublic {
		log.Println("Could not get status!", err)
		return "", errors.New("error retrieving status by id")
	}

	acc, err := registry.ResolveById(ctx, st.AccountId)
	if err != nil {
		log.Println("Could not resolve status author!", err)
		return "", errors.New("error resolving status author")
	}

	email := fmt.Sprintf("%s@%s", acc.Username, conf.Conf.LocalDomain)
	url := fmt.Sprintf("http://%s:%d/feed/%d", conf.Conf.Host, conf.Conf.HttpPort, st.Id)

	feed := &feeds.Feed{
		Title:       "Single Anancus Status",
		Link:        &feeds.Link{Href: url},
		Description: fmt.Sprintf("status feed of %s", acc.Acct()),
		Author:      &feeds.Author{Name: acc.Username, Email: email},
		Created:     time.Now(),
	}

	feed.Items = []*feeds.Item{
		{
			Id:      strconv.FormatInt(st.Id, 10),
			Title:   st.CreatedAt.Format(util.DateTimeFormat()),
			Link:    &feeds.Link{Href: url},
			Content: st.Text,
			Author:  &feeds.Author{Name: acc.Username, Email: email},
			Created: st.CreatedAt,
		},
	}

	return feed.ToRss()
}
