package preview

import (
	"fmt"
	"strings"

	"github.com/saple-ai/saple-cli/internal/api"
	"github.com/saple-ai/saple-cli/internal/wizard"
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

type PageConfig struct {
	Title       string
	Description string
}

func Layout(config PageConfig, content ...g.Node) g.Node {
	if config.Title == "" {
		config.Title = "Saple - Agent preview"
	}
	if config.Description == "" {
		config.Description = "Local preview of a Saple chat widget."
	}

	return g.Group([]g.Node{
		g.Raw("<!DOCTYPE html>"),
		HTML(
			Lang("en"),
			Head(
				Meta(Charset("utf-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1.0")),
				TitleEl(g.Text(config.Title)),
				Meta(Name("description"), Content(config.Description)),
				StyleEl(g.Raw(baseCSS)),
			),
			Body(
				Main(Class("page"), g.Group(content)),
			),
		),
	})
}

const baseCSS = `body{margin:0;background:#f5f5f5;font-family:system-ui,sans-serif;color:#111}
.page{max-width:960px;margin:0 auto;padding:2rem}
.agents{list-style:none;padding:0}.agents li{margin:.5rem 0}
.widget{width:360px;border-radius:12px;overflow:hidden;box-shadow:0 8px 24px rgba(0,0,0,.15);background:#fff}
.widget-header{color:#fff;padding:1rem;display:flex;justify-content:space-between;align-items:center}
.widget-body{padding:1rem;min-height:160px}
.bubble{padding:.75rem 1rem;border-radius:12px;background:#f0f0f0;display:inline-block}
.badge{font-size:.75rem;border:1px solid rgba(255,255,255,.6);border-radius:999px;padding:.1rem .5rem}
.calendly{display:block;margin:1rem;padding:.6rem;text-align:center;border-radius:8px;color:#fff;text-decoration:none}
.warning{color:#92400e}
pre{background:#111;color:#eee;padding:1rem;border-radius:8px;overflow-x:auto}`

// widgetStyle maps the agent's font settings to inline CSS.
func widgetStyle(bot api.Bot) string {
	var b strings.Builder
	if bot.Font != "" {
		fmt.Fprintf(&b, "font-family:'%s',sans-serif;", bot.Font)
	}
	if bot.FontSize != "" {
		fmt.Fprintf(&b, "font-size:%s;", bot.FontSize)
	}
	switch bot.FontStyle {
	case "italic":
		b.WriteString("font-style:italic;")
	case "bold":
		b.WriteString("font-weight:bold;")
	}
	return b.String()
}

// Widget renders the chat widget as it would appear to a site visitor.
func Widget(bot api.Bot) g.Node {
	color := bot.Color
	if color == "" {
		color = wizard.DefaultColor
	}
	name := bot.Name
	if strings.TrimSpace(name) == "" {
		name = wizard.FallbackName
	}

	return Div(
		Class("widget"),
		g.Attr("data-bot-id", bot.ID),
		Style(widgetStyle(bot)),
		Div(
			Class("widget-header"),
			Style("background:"+color),
			Span(Class("widget-name"), g.Text(name)),
			g.If(bot.MediaType != "", Span(Class("badge"), g.Text(string(bot.MediaType)))),
		),
		Div(
			Class("widget-body"),
			P(Class("bubble welcome"), g.Text(wizard.PreviewWelcome(bot.WelcomeMessage, bot.Name))),
		),
		g.If(bot.CalendlyEnabled && bot.CalendlyLink != "",
			A(Class("calendly"), Href(bot.CalendlyLink), Target("_blank"), Style("background:"+color), g.Text("Book a meeting")),
		),
	)
}

// AgentPage shows one agent's widget with its configuration warnings and
// embed snippet.
func AgentPage(bot api.Bot, snippet string) g.Node {
	warnings := wizard.ConfigWarnings(bot.Config())

	return Layout(
		PageConfig{Title: bot.Name + " - Saple preview"},
		P(A(Href("/"), g.Text("All agents"))),
		H1(g.Text(bot.Name)),
		g.If(bot.TrainingStatus != "", P(Class("status"), g.Textf("Training status: %s", bot.TrainingStatus))),
		g.If(len(warnings) > 0, Ul(Class("warnings"), g.Group(g.Map(warnings, func(w string) g.Node {
			return Li(Class("warning"), g.Text(w))
		})))),
		Widget(bot),
		H2(g.Text("Embed")),
		Pre(Code(g.Text(snippet))),
	)
}

// IndexPage lists agents with links to their previews.
func IndexPage(bots []api.Bot) g.Node {
	return Layout(
		PageConfig{},
		H1(g.Text("Agents")),
		g.If(len(bots) == 0, P(g.Text("No agents yet. Create one with 'saple agents wizard'."))),
		Ul(Class("agents"), g.Group(g.Map(bots, func(b api.Bot) g.Node {
			return Li(A(Href("/agents/"+b.ID), g.Text(b.Name)))
		}))),
	)
}

// ErrorPage renders a short message for a failed lookup.
func ErrorPage(title, message string) g.Node {
	return Layout(
		PageConfig{Title: title},
		H1(g.Text(title)),
		P(g.Text(message)),
		P(A(Href("/"), g.Text("All agents"))),
	)
}
