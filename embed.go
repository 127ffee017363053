package cvassess

import "embed"

// TemplateFS contains the embedded HTML templates used for rendering the assessment page. These templates
// are organized in a directory structure that separates layouts, pages, and partial views.
//
//go:embed templates/*
var TemplateFS embed.FS

// StaticFS contains the embedded static assets, the page script and stylesheet that drive the form and
// the streamed result region.
//
//go:embed static/*
var StaticFS embed.FS
