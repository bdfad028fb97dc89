package handlers

import "net/http"

// StatusPageHandler serves the operator status page.
func StatusPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(statusPageHTML))
	}
}

const statusPageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<title>Lead Sync Status</title>
	<style>
		body { font-family: -apple-system, BlinkMacSystemFont, sans-serif; max-width: 760px; margin: 50px auto; padding: 20px; background: #1a1a2e; color: #eee; }
		h1 { font-size: 1.4em; }
		.badge { display: inline-block; padding: 2px 10px; border-radius: 10px; font-weight: 600; }
		.healthy { background: #14532d; color: #4ade80; }
		.warning { background: #713f12; color: #fbbf24; }
		.critical { background: #7f1d1d; color: #f87171; }
		table { width: 100%; border-collapse: collapse; margin-top: 16px; }
		td, th { padding: 6px 10px; border-bottom: 1px solid #374151; text-align: left; }
		a { color: #60a5fa; }
		button { background: #374151; color: #eee; border: 0; padding: 6px 12px; border-radius: 6px; cursor: pointer; }
	</style>
</head>
<body>
	<h1>Lead Sync <span id="version"></span> <span id="status" class="badge">loading…</span></h1>
	<table>
		<tr><th>Pending</th><th>Sent</th><th>Failed</th></tr>
		<tr><td id="pending">-</td><td id="sent">-</td><td id="failed">-</td></tr>
	</table>
	<p id="token"></p>
	<p>
		<a href="/auth/zoho/login">Connect Zoho</a> ·
		<button onclick="dispatchNow()">Dispatch now</button>
		<span id="dispatch-result"></span>
	</p>
	<script>
		async function refresh() {
			const snap = await (await fetch('/api/health')).json();
			const badge = document.getElementById('status');
			badge.textContent = snap.status;
			badge.className = 'badge ' + snap.status;
			document.getElementById('version').textContent = snap.version;
			document.getElementById('pending').textContent = snap.lead_processing_stats.pending;
			document.getElementById('sent').textContent = snap.lead_processing_stats.sent;
			document.getElementById('failed').textContent = snap.lead_processing_stats.failed;
			const tok = snap.token_status;
			document.getElementById('token').textContent = tok.has_access_token
				? (tok.is_expired ? 'Access token expired' + (tok.has_refresh_token ? ' (refresh available)' : '') : 'Access token valid until ' + tok.expires_at)
				: (tok.has_refresh_token ? 'Refresh token stored, access token pending' : 'Not connected to Zoho');
		}
		async function dispatchNow() {
			const res = await (await fetch('/api/dispatch', {method: 'POST'})).json();
			document.getElementById('dispatch-result').textContent =
				res.auth_required ? res.message : res.successful + ' sent, ' + res.failed + ' failed';
			refresh();
		}
		refresh();
		setInterval(refresh, 15000);
	</script>
</body>
</html>`
