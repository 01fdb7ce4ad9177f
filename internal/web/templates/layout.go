// Package templates holds the HTML components for the web UI.
//
// Components are plain templ.Component values built with
// templ.ComponentFunc, so handlers render them the same way they would
// render generated templ code:
//
//	templates.WorkspacePage(view).Render(r.Context(), w)
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// page accumulates the first write error so components can emit markup
// without checking every call.
type page struct {
	w   io.Writer
	err error
}

func (p *page) raw(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

// text writes s HTML-escaped.
func (p *page) text(s string) {
	p.raw(templ.EscapeString(s))
}

// rawf formats into the output. Arguments must already be escaped.
func (p *page) rawf(format string, args ...any) {
	if p.err == nil {
		_, p.err = fmt.Fprintf(p.w, format, args...)
	}
}

func (p *page) render(ctx context.Context, c templ.Component) {
	if p.err == nil {
		p.err = c.Render(ctx, p.w)
	}
}

func attr(s string) string { return templ.EscapeString(s) }

// Layout wraps body in the document shell.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		p.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		p.raw(`<title>`)
		p.text(title)
		p.raw(`</title><link rel="stylesheet" href="/static/app.css"></head><body>`)
		p.raw(`<header class="topbar"><a href="/" class="brand">Data Sweeper</a></header><main>`)
		p.render(ctx, body)
		p.raw(`</main></body></html>`)
		return p.err
	})
}

// ErrorAlert renders a user-facing error with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		p.raw(`<div class="alert alert-error" role="alert"><strong>`)
		p.text(message)
		p.raw(`</strong>`)
		if action != "" {
			p.raw(`<p>`)
			p.text(action)
			p.raw(`</p>`)
		}
		if code != "" {
			p.raw(`<small>Code: `)
			p.text(code)
			p.raw(`</small>`)
		}
		p.raw(`</div>`)
		return p.err
	})
}

// Warning renders a non-fatal notice.
func Warning(message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		p.raw(`<div class="alert alert-warning">`)
		p.text(message)
		p.raw(`</div>`)
		return p.err
	})
}

// ErrorPage is a full document around ErrorAlert for plain browser requests.
func ErrorPage(message, action, code string) templ.Component {
	return Layout("Error", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		p.render(ctx, ErrorAlert(message, action, code))
		p.raw(`<p><a href="/">Start over</a></p>`)
		return p.err
	}))
}
