// Package web embeds the HTML report templates and static assets.
package web

import "embed"

// TemplatesFS holds the report page templates.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet.
//
//go:embed static/*
var StaticFS embed.FS
