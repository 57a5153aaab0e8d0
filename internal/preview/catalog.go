// Package preview turns a code snippet into the file set of a sandboxed
// live preview and assembles that file set into a single HTML document.
package preview

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/zhouzirui/lgt-bot/backend/internal/model/chat"
)

const (
	TemplateReact   = "react"
	TemplateVanilla = "vanilla"

	// SandboxCSP is sent with every rendered preview so the document runs
	// in an opaque origin even when opened outside the widget's iframe.
	SandboxCSP = "sandbox allow-scripts"
)

//go:embed templates.yaml
var defaultCatalog []byte

// Bundle is the file set generated for one snippet.
type Bundle struct {
	Type     chat.SnippetType  `json:"type"`
	Template string            `json:"template"`
	Files    map[string]string `json:"files"`
	Output   string            `json:"output,omitempty"`
	Fallback bool              `json:"fallback"`
}

type templateSpec struct {
	Template string            `yaml:"template"`
	Entry    string            `yaml:"entry"`
	Files    map[string]string `yaml:"files"`
}

type catalogFile struct {
	Templates map[string]templateSpec `yaml:"templates"`
	Fallback  templateSpec            `yaml:"fallback"`
	Runtimes  map[string]string       `yaml:"runtimes"`
}

type compiledSpec struct {
	template string
	entry    string
	files    map[string]*template.Template
}

// Catalog maps snippet types to preview file sets.
type Catalog struct {
	specs    map[chat.SnippetType]compiledSpec
	fallback compiledSpec
	runtimes map[string]*template.Template
}

// NewCatalog parses a YAML catalog.
func NewCatalog(raw []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode preview catalog: %w", err)
	}

	c := &Catalog{
		specs:    make(map[chat.SnippetType]compiledSpec, len(file.Templates)),
		runtimes: make(map[string]*template.Template, len(file.Runtimes)),
	}

	for name, spec := range file.Templates {
		snippetType, ok := chat.ParseSnippetType(name)
		if !ok {
			return nil, fmt.Errorf("preview catalog: unknown snippet type %q", name)
		}
		compiled, err := compileSpec(name, spec)
		if err != nil {
			return nil, err
		}
		c.specs[snippetType] = compiled
	}

	fallback, err := compileSpec("fallback", file.Fallback)
	if err != nil {
		return nil, err
	}
	c.fallback = fallback

	for name, body := range file.Runtimes {
		tmpl, err := template.New("runtime:" + name).Parse(body)
		if err != nil {
			return nil, fmt.Errorf("preview catalog: runtime %s: %w", name, err)
		}
		c.runtimes[name] = tmpl
	}

	return c, nil
}

func compileSpec(name string, spec templateSpec) (compiledSpec, error) {
	if spec.Template == "" {
		return compiledSpec{}, fmt.Errorf("preview catalog: %s has no template", name)
	}

	compiled := compiledSpec{
		template: spec.Template,
		entry:    spec.Entry,
		files:    make(map[string]*template.Template, len(spec.Files)),
	}
	for path, body := range spec.Files {
		tmpl, err := template.New(name + ":" + path).Parse(body)
		if err != nil {
			return compiledSpec{}, fmt.Errorf("preview catalog: %s%s: %w", name, path, err)
		}
		compiled.files[path] = tmpl
	}
	return compiled, nil
}

var defaultCatalogInstance = mustCatalog(defaultCatalog)

func mustCatalog(raw []byte) *Catalog {
	c, err := NewCatalog(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// Default returns the catalog embedded in the binary.
func Default() *Catalog {
	return defaultCatalogInstance
}

// Build generates the file set for snippet. Types without a template get the
// explicit "No preview available" fallback.
func (c *Catalog) Build(snippet chat.CodeSnippet) (Bundle, error) {
	spec, ok := c.specs[snippet.Type]
	if !ok {
		spec = c.fallback
	}

	files := make(map[string]string, len(spec.files)+1)
	if spec.entry != "" {
		files[spec.entry] = snippet.Code
	}
	for path, tmpl := range spec.files {
		var b strings.Builder
		if err := tmpl.Execute(&b, snippet); err != nil {
			return Bundle{}, fmt.Errorf("render %s for %s preview: %w", path, snippet.Type, err)
		}
		files[path] = b.String()
	}

	return Bundle{
		Type:     snippet.Type,
		Template: spec.template,
		Files:    files,
		Output:   snippet.Output,
		Fallback: !ok,
	}, nil
}

// Paths returns the bundle's file paths in a stable order.
func (b Bundle) Paths() []string {
	paths := make([]string, 0, len(b.Files))
	for path := range b.Files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
