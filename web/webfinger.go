package web

import (
	"context"
	"fmt"
	"strings"

	"github.com/deemkeen/anancus/account"
	"github.com/deemkeen/anancus/util"
)

func GetWebfinger(ctx context.Context, registry *account.Registry, user string, conf *util.AppConfig) (error, string) {

	acc, err := registry.ResolveLocal(ctx, user)
	if err != nil {
		return err, GetWebFingerNotFound()
	}

	username := acc.Username

	return nil, fmt.Sprintf(
		`{
					"subject": "acct:%s@%s",

					"links": [
						{
							"rel": "self",
							"type": "application/activity+json",
							"href": "https://%s/users/%s"
						}
					]
				}`, username, conf.Conf.LocalDomain,
		conf.Conf.LocalDomain, username)
}

func GetWebFingerNotFound() string {
	return `{"detail":"Not Found"}`
}

// parseWebfingerResource extracts the local username from an
// acct:user@domain resource, empty when the resource is foreign or
// malformed.
func parseWebfingerResource(resource, localDomain string) string {
	trimmed := strings.TrimPrefix(resource, "acct:")
	parts := strings.Split(trimmed, "@")
	if len(parts) != 2 || parts[0] == "" {
		return ""
	}
	if !strings.EqualFold(parts[1], localDomain) {
		return ""
	}
	return parts[0]
}
