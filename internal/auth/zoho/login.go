package zoho

import (
	"net/http"

	"golang.org/x/oauth2"
)

// HandleLogin starts the Zoho OAuth flow by redirecting to the consent page.
// access_type=offline requests a refresh token; prompt=consent forces Zoho to
// issue one even when the user has already consented before.
func HandleLogin(conf *oauth2.Config, state string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url := conf.AuthCodeURL(state,
			oauth2.AccessTypeOffline,
			oauth2.SetAuthURLParam("prompt", "consent"),
		)
		http.Redirect(w, r, url, http.StatusTemporaryRedirect)
	}
}
