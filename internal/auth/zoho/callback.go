package zoho

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// HandleCallback processes the OAuth redirect back from Zoho. The received
// state must exactly equal the configured value; a mismatch is treated as an
// unauthorized attempt, never passed through.
func HandleCallback(conf *oauth2.Config, state string, sink TokenSink) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if errParam := r.URL.Query().Get("error"); errParam != "" {
			log.Printf("⚠️ OAuth consent denied: %s", errParam)
			http.Error(w, "Authorization was denied: "+errParam, http.StatusBadRequest)
			return
		}

		if r.URL.Query().Get("state") != state {
			log.Printf("⚠️ OAuth callback with invalid state token")
			http.Error(w, "Invalid state token", http.StatusBadRequest)
			return
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "Missing authorization code", http.StatusBadRequest)
			return
		}

		token, err := conf.Exchange(r.Context(), code)
		if err != nil {
			exErr := &ExchangeError{Grant: "authorization_code", Err: err}
			log.Printf("❌ %v", exErr)
			http.Error(w, fmt.Sprintf("Token exchange failed: %v", err), http.StatusBadGateway)
			return
		}

		if err := sink.SetAccessToken(token.AccessToken, time.Until(token.Expiry)); err != nil {
			http.Error(w, fmt.Sprintf("Failed to store tokens: %v", err), http.StatusInternalServerError)
			return
		}
		// Zoho only returns a refresh token on forced consent; an exchange
		// without one must not clobber a previously stored refresh token.
		if token.RefreshToken != "" {
			if err := sink.SetRefreshToken(token.RefreshToken); err != nil {
				http.Error(w, fmt.Sprintf("Failed to store tokens: %v", err), http.StatusInternalServerError)
				return
			}
		}

		log.Printf("✅ Zoho authorization complete (access token expires %s)", token.Expiry.Format(time.RFC3339))

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<meta http-equiv="refresh" content="3;url=/">
	<title>Authorization Successful</title>
	<style>
		body { font-family: -apple-system, BlinkMacSystemFont, sans-serif; max-width: 600px; margin: 50px auto; padding: 20px; background: #1a1a2e; color: #eee; }
		.success { color: #4ade80; }
		.redirect { color: #9ca3af; margin-top: 20px; }
	</style>
</head>
<body>
	<h1 class="success">✅ Zoho CRM Connected</h1>
	<p>Lead sync is now authorized. Access token expires at <strong>%s</strong>.</p>
	<p class="redirect">Redirecting to the status page in 3 seconds...</p>
</body>
</html>`, token.Expiry.Format(time.RFC1123))
	}
}
