package web

const baseTmpl = `{{define "base"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>mlfactory</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem; color: #222; }
table { border-collapse: collapse; margin-bottom: 1.5rem; }
th, td { text-align: left; padding: 0.3rem 0.8rem; border-bottom: 1px solid #ddd; }
.badge { padding: 0.1rem 0.5rem; border-radius: 0.3rem; font-size: 0.85em; }
.badge-running { background: #fff3c4; }
.badge-completed { background: #d4f5d4; }
.badge-failed { background: #f8d0d0; }
.result-pass { color: #1a7f1a; }
.result-fail { color: #b00020; }
pre { white-space: pre-wrap; }
</style>
</head>
<body>
<h1><a href="/">mlfactory</a></h1>
{{template "content" .}}
</body>
</html>{{end}}`

const dashboardTmpl = `{{define "content"}}
{{with .Metrics}}
<h2>Latest evaluation</h2>
<table>
<tr><th>RMSE</th><th>MAE</th><th>R2</th></tr>
<tr><td>{{printf "%.4f" .RMSE}}</td><td>{{printf "%.4f" .MAE}}</td><td>{{printf "%.4f" .R2}}</td></tr>
</table>
{{end}}
<h2>Runs</h2>
{{if .Runs}}
<table>
<tr><th>Run</th><th>Status</th><th>Stage</th><th>Stages run</th><th>Updated</th></tr>
{{range .Runs}}
<tr>
<td><a href="/run/{{.ID}}">{{.ID}}</a></td>
<td><span class="{{badgeClass .Status}}">{{.Status}}</span></td>
<td>{{.CurrentStage}}</td>
<td>{{.StagesDone}}</td>
<td>{{.UpdatedAgo}}</td>
</tr>
{{end}}
</table>
{{else}}
<p>No runs recorded.</p>
{{end}}
{{if .Durations}}
<h2>Stage durations</h2>
<table>
<tr><th>Stage</th><th>Count</th><th>Avg (s)</th><th>P50 (s)</th><th>P95 (s)</th></tr>
{{range .Durations}}
<tr><td>{{.Stage}}</td><td>{{.Count}}</td><td>{{printf "%.2f" .Avg}}</td><td>{{printf "%.2f" .P50}}</td><td>{{printf "%.2f" .P95}}</td></tr>
{{end}}
</table>
{{end}}
{{if .Failures}}
<h2>Failure rates</h2>
<table>
<tr><th>Stage</th><th>Total</th><th>Failed</th><th>Fail %</th></tr>
{{range .Failures}}
<tr><td>{{.Stage}}</td><td>{{.Total}}</td><td>{{.Failed}}</td><td>{{printf "%.1f" .FailPct}}</td></tr>
{{end}}
</table>
{{end}}
{{end}}`

const runTmpl = `{{define "content"}}
{{with .State}}
<h2>Run {{.ID}} <span class="{{badgeClass .Status}}">{{.Status}}</span></h2>
<p>Created {{.CreatedAt}}, updated {{$.UpdatedAgo}}.</p>
<p>Config: {{.ConfigPaths.Config}} &middot; Params: {{.ConfigPaths.Params}} &middot; Schema: {{.ConfigPaths.Schema}}</p>
{{if .Error}}<pre class="result-fail">{{.Error}}</pre>{{end}}
<h3>Stages</h3>
<table>
<tr><th>Stage</th><th>Outcome</th><th>Duration</th><th>Error</th></tr>
{{range .StageHistory}}
<tr>
<td>{{.Stage}}</td>
<td class="{{outcomeClass .Outcome}}">{{.Outcome}}</td>
<td>{{fmtDuration .Duration}}</td>
<td>{{.Error}}</td>
</tr>
{{end}}
</table>
{{end}}
{{if .Events}}
<h3>Events</h3>
<table>
<tr><th>Timestamp</th><th>Stage</th><th>Event</th><th>Duration (ms)</th><th>Detail</th></tr>
{{range .Events}}
<tr><td>{{.Timestamp}}</td><td>{{.Stage}}</td><td>{{.Event}}</td><td>{{.DurationMs}}</td><td>{{.Detail}}</td></tr>
{{end}}
</table>
{{end}}
{{end}}`
