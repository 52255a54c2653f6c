package dashboard

import (
	"fmt"
	"time"

	gomponents "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"

	"snowclone/internal/domain"
	"snowclone/internal/service/refresh"
)

const pageStyle = `
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem auto; max-width: 64rem; color: #1f2328; }
h1 { font-size: 1.5rem; } h2 { font-size: 1.1rem; margin-top: 2rem; }
table { border-collapse: collapse; width: 100%; }
th, td { text-align: left; padding: 0.4rem 0.8rem; border-bottom: 1px solid #d1d9e0; font-size: 0.9rem; }
.ok { color: #1a7f37; } .fail { color: #cf222e; }
.summary { display: flex; gap: 2rem; margin: 1rem 0; }
.summary div { padding: 0.8rem 1.2rem; border: 1px solid #d1d9e0; border-radius: 6px; }
.summary strong { display: block; font-size: 1.4rem; }
`

func overviewPage(runs []domain.RunRecord, schedules []refresh.Entry) gomponents.Node {
	succeeded, failed := 0, 0
	for _, r := range runs {
		if r.Success {
			succeeded++
		} else {
			failed++
		}
	}

	return html.HTML(
		html.Lang("en"),
		html.Head(
			html.Meta(html.Charset("utf-8")),
			html.Meta(html.Name("viewport"), html.Content("width=device-width, initial-scale=1")),
			html.TitleEl(gomponents.Text("Snowclone")),
			html.StyleEl(gomponents.Raw(pageStyle)),
		),
		html.Body(
			html.H1(gomponents.Text("Snowclone")),
			html.P(gomponents.Text("Warehouse clone and role provisioning runs.")),
			html.Div(html.Class("summary"),
				summaryCard("Recent runs", len(runs)),
				summaryCard("Succeeded", succeeded),
				summaryCard("Failed", failed),
			),
			html.H2(gomponents.Text("Recent runs")),
			runsTable(runs),
			html.H2(gomponents.Text("Refresh schedules")),
			schedulesTable(schedules),
		),
	)
}

func summaryCard(label string, value int) gomponents.Node {
	return html.Div(
		html.Strong(gomponents.Text(fmt.Sprintf("%d", value))),
		gomponents.Text(label),
	)
}

func runsTable(runs []domain.RunRecord) gomponents.Node {
	if len(runs) == 0 {
		return html.P(gomponents.Text("No runs recorded yet."))
	}
	rows := make([]gomponents.Node, 0, len(runs))
	for _, r := range runs {
		status := html.Td(html.Class("ok"), gomponents.Text("success"))
		if !r.Success {
			status = html.Td(html.Class("fail"), gomponents.Text("failed"))
		}
		rows = append(rows, html.Tr(
			html.Td(gomponents.Text(r.ID)),
			html.Td(gomponents.Text(string(r.Kind))),
			html.Td(gomponents.Text(r.StartedAt.Format(time.RFC3339))),
			status,
			html.Td(gomponents.Text(fmt.Sprintf("%d/%d", r.Successful, r.Total))),
		))
	}
	return html.Table(
		html.THead(html.Tr(
			html.Th(gomponents.Text("Run")),
			html.Th(gomponents.Text("Kind")),
			html.Th(gomponents.Text("Started")),
			html.Th(gomponents.Text("Status")),
			html.Th(gomponents.Text("Succeeded")),
		)),
		html.TBody(gomponents.Group(rows)),
	)
}

func schedulesTable(schedules []refresh.Entry) gomponents.Node {
	if len(schedules) == 0 {
		return html.P(gomponents.Text("No refresh schedules configured."))
	}
	rows := make([]gomponents.Node, 0, len(schedules))
	for _, s := range schedules {
		last := "never"
		if s.LastRun != nil {
			last = s.LastRun.Format(time.RFC3339)
		}
		rows = append(rows, html.Tr(
			html.Td(gomponents.Text(s.Name)),
			html.Td(gomponents.Text(s.Template)),
			html.Td(gomponents.Text(s.Cron)),
			html.Td(gomponents.Text(s.NextRun.Format(time.RFC3339))),
			html.Td(gomponents.Text(last)),
		))
	}
	return html.Table(
		html.THead(html.Tr(
			html.Th(gomponents.Text("Schedule")),
			html.Th(gomponents.Text("Template")),
			html.Th(gomponents.Text("Cron")),
			html.Th(gomponents.Text("Next run")),
			html.Th(gomponents.Text("Last run")),
		)),
		html.TBody(gomponents.Group(rows)),
	)
}
