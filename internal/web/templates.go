package web

const landingHTML = `<!DOCTYPE html>
<html>
<head>
<title>{{.ChallengeName}}</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>
body { font-family: system-ui; max-width: 720px; margin: 2rem auto; padding: 0 1rem; }
h1 { color: #FC4C02; }
table { width: 100%; border-collapse: collapse; }
th, td { text-align: left; padding: 0.4rem 0.6rem; border-bottom: 1px solid #ddd; }
.total { font-size: 2rem; font-weight: bold; }
.connect { display: inline-block; background: #FC4C02; color: white; padding: 0.6rem 1.2rem; border-radius: 4px; text-decoration: none; }
.muted { color: #666; }
</style>
</head>
<body>
<h1>{{.ChallengeName}}</h1>
<p class="total">{{printf "%.1f" .Snapshot.TotalDistanceKm}} km</p>
<p class="muted">{{printf "%.1f" .Snapshot.TotalDistanceMiles}} miles &middot; {{.Snapshot.AthleteCount}} athletes</p>
{{if .Snapshot.Athletes}}
<table>
<tr><th>#</th><th>Athlete</th><th>Distance</th><th>Activities</th></tr>
{{range $i, $a := .Snapshot.Athletes}}
<tr><td>{{inc $i}}</td><td>{{$a.DisplayName}}</td><td>{{printf "%.1f" $a.TotalDistanceKm}} km</td><td>{{$a.ActivityCount}}</td></tr>
{{end}}
</table>
{{else}}
<p>No activity collected yet. Be the first to connect!</p>
{{end}}
<p><a class="connect" href="/auth/connect">Connect with Strava</a></p>
</body>
</html>`

const loginHTML = `<!DOCTYPE html>
<html>
<head><title>Admin Login</title></head>
<body style="font-family: system-ui; max-width: 400px; margin: 4rem auto;">
<h1>Admin Login</h1>
<form method="post" action="/admin/login">
<input type="password" name="password" placeholder="Password" autofocus>
<button type="submit">Log in</button>
</form>
</body>
</html>`

const adminHTML = `<!DOCTYPE html>
<html>
<head>
<title>{{.ChallengeName}} - Admin</title>
<style>
body { font-family: system-ui; max-width: 720px; margin: 2rem auto; padding: 0 1rem; }
table { width: 100%; border-collapse: collapse; }
th, td { text-align: left; padding: 0.4rem 0.6rem; border-bottom: 1px solid #ddd; }
</style>
</head>
<body>
<h1>Connected athletes</h1>
<form method="post" action="/admin/collect"><button type="submit">Collect now</button></form>
<table>
<tr><th>ID</th><th>Name</th><th>Connected</th><th>Token expires</th><th></th></tr>
{{range .Athletes}}
<tr>
<td>{{.AthleteID}}</td><td>{{.DisplayName}}</td><td>{{.ConnectedAt}}</td><td>{{.ExpiresAt}}</td>
<td><form method="post" action="/admin/remove/{{.AthleteID}}"><button type="submit">Remove</button></form></td>
</tr>
{{end}}
</table>
<form method="post" action="/admin/logout"><button type="submit">Log out</button></form>
</body>
</html>`
