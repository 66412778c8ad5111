package portfolioweb

import "embed"

// TemplateFS contains the embedded HTML templates used for rendering the portfolio page and the chat
// widget. These templates are organized in a directory structure that separates layouts, pages, and
// partial views.
//
//go:embed templates/*
var TemplateFS embed.FS

// StaticFS contains the embedded static assets such as JavaScript and CSS files required for the
// widget's behaviour and the page styling.
//
//go:embed static/*
var StaticFS embed.FS

// ContentFS holds the default portfolio content, used when no content file is configured.
//
//go:embed content/portfolio.yaml
var ContentFS embed.FS

// DefaultContentPath is the path of the default portfolio document inside ContentFS.
const DefaultContentPath = "content/portfolio.yaml"
