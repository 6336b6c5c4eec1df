package handlers

import (
	"html/template"
	"log"
	"net/http"
)

type docEndpoint struct {
	Method      string
	Path        string
	Auth        bool
	Description string
	Body        string
}

type docSection struct {
	Title     string
	Endpoints []docEndpoint
}

var apiDocSections = []docSection{
	{
		Title: "Registry",
		Endpoints: []docEndpoint{
			{"POST", "/api/registry", true, "Create the arena registry. The caller becomes administrator. 409 if it already exists.", ""},
			{"GET", "/api/registry", false, "Agent and battle counters, battles by type, draws and the top rated agent.", ""},
		},
	},
	{
		Title: "Agents",
		Endpoints: []docEndpoint{
			{"POST", "/api/agents", true, "Register an agent with rating 1000. Names are 2-50 bytes; externalId is unique.", `{"name": "Deep Thought", "externalId": "agent-42"}`},
			{"GET", "/api/agents/{externalId}", false, "Fetch one agent.", ""},
			{"GET", "/api/leaderboard?limit=50", false, "Agents by rating (max 100) with rank and win rate.", ""},
		},
	},
	{
		Title: "Battles",
		Endpoints: []docEndpoint{
			{"POST", "/api/battles", true, "Record a finished battle and move ratings (K=32). battleId is unique.", `{"battleId": "b-1", "battleType": "reasoning", "winnerSide": "challenger", "challengerScore": 7, "defenderScore": 5, "rounds": 3, "challenger": "agent-42", "defender": "agent-7"}`},
			{"GET", "/api/battles/{battleId}", false, "Fetch a recorded battle.", ""},
		},
	},
	{
		Title: "Bets",
		Endpoints: []docEndpoint{
			{"POST", "/api/battles/{battleId}/bets", true, "Place one pending bet per caller per battle.", `{"predictedWinner": "agent-42", "amount": 500}`},
			{"GET", "/api/battles/{battleId}/bets", false, "All bets on a battle, oldest first.", ""},
			{"GET", "/api/battles/{battleId}/odds", false, "Pool based odds per side, 5% house cut.", ""},
			{"GET", "/api/bets/me", true, "The caller's bets, newest first, with status counts.", ""},
		},
	},
	{
		Title: "Streams and operations",
		Endpoints: []docEndpoint{
			{"WS", "/ws/feed", false, "Every ledger event as JSON.", ""},
			{"WS", "/ws/battles/{battleId}", false, "Events for one battle.", ""},
			{"GET", "/health", false, "Liveness probe.", ""},
			{"GET", "/metrics", false, "Prometheus metrics.", ""},
		},
	},
}

var apiDocsTemplate = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Arena Ledger API</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #222; max-width: 960px; margin: 0 auto; padding: 24px; }
        h1 { margin-bottom: 4px; }
        h2 { border-bottom: 2px solid #16213e; padding-bottom: 4px; margin-top: 32px; }
        .endpoint { margin: 12px 0; padding: 12px; border-radius: 8px; background: #f6f7fb; }
        .method { display: inline-block; min-width: 48px; font-weight: 700; color: #fff; background: #16213e; border-radius: 4px; padding: 0 6px; text-align: center; }
        .auth { color: #b00020; font-size: 0.85em; margin-left: 8px; }
        code, pre { font-family: 'SF Mono', Menlo, monospace; font-size: 0.9em; }
        pre { background: #1a1a2e; color: #e0e0e0; padding: 8px; border-radius: 4px; overflow-x: auto; }
    </style>
</head>
<body>
    <h1>Arena Ledger API</h1>
    <p>Authenticated endpoints take <code>Authorization: Bearer &lt;token&gt;</code>; the caller identity is the token subject.
    Errors are <code>{"error": "...", "code": "..."}</code> with codes such as <code>duplicate_key</code>, <code>not_found</code>, <code>name_too_long</code> and <code>name_too_short</code>.</p>
    {{range .}}
    <h2>{{.Title}}</h2>
    {{range .Endpoints}}
    <div class="endpoint">
        <span class="method">{{.Method}}</span> <code>{{.Path}}</code>{{if .Auth}}<span class="auth">auth</span>{{end}}
        <p>{{.Description}}</p>
        {{if .Body}}<pre>{{.Body}}</pre>{{end}}
    </div>
    {{end}}
    {{end}}
</body>
</html>
`))

// ServeAPIDocs serves the API documentation page
func ServeAPIDocs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := apiDocsTemplate.Execute(w, apiDocSections); err != nil {
		log.Printf("[HTTP] Failed to render docs: %v", err)
	}
}
