package preview

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/zhouzirui/lgt-bot/backend/internal/model/chat"
)

var ErrNoDocument = errors.New("preview bundle has no /index.html")

const (
	reactEntry   = "/index.js"
	hostDocument = "/index.html"
)

// Render assembles bundle into one self-contained HTML document. Stylesheets
// and scripts referenced by the host document are inlined; React bundles are
// compiled in the page by the react runtime.
func (c *Catalog) Render(bundle Bundle) (string, error) {
	if bundle.Template == TemplateReact {
		return c.renderReact(bundle)
	}
	return renderVanilla(bundle)
}

func (c *Catalog) renderReact(bundle Bundle) (string, error) {
	runtime, ok := c.runtimes[TemplateReact]
	if !ok {
		return "", fmt.Errorf("preview catalog has no %s runtime", TemplateReact)
	}

	modules := make(map[string]string, len(bundle.Files)+1)
	for p, body := range bundle.Files {
		modules[p] = body
	}
	if _, ok := modules[reactEntry]; !ok {
		// Fallback bundles only carry a component; borrow the bootstrap.
		bootstrap, err := c.reactBootstrap()
		if err != nil {
			return "", err
		}
		modules[reactEntry] = bootstrap
	}

	// json.Marshal escapes <, > and & so sources cannot close the script tag.
	encodedModules, err := json.Marshal(modules)
	if err != nil {
		return "", fmt.Errorf("encode react modules: %w", err)
	}
	encodedEntry, err := json.Marshal(reactEntry)
	if err != nil {
		return "", fmt.Errorf("encode react entry: %w", err)
	}

	var b strings.Builder
	err = runtime.Execute(&b, struct {
		Modules string
		Entry   string
	}{
		Modules: string(encodedModules),
		Entry:   string(encodedEntry),
	})
	if err != nil {
		return "", fmt.Errorf("render react runtime: %w", err)
	}
	return b.String(), nil
}

func (c *Catalog) reactBootstrap() (string, error) {
	tmpl, ok := c.specs[chat.SnippetReact].files[reactEntry]
	if !ok {
		return "", fmt.Errorf("preview catalog has no react %s", reactEntry)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, chat.CodeSnippet{Type: chat.SnippetReact}); err != nil {
		return "", fmt.Errorf("render react bootstrap: %w", err)
	}
	return b.String(), nil
}

func renderVanilla(bundle Bundle) (string, error) {
	doc, ok := bundle.Files[hostDocument]
	if !ok {
		return "", ErrNoDocument
	}

	for _, p := range bundle.Paths() {
		if p == hostDocument {
			continue
		}
		name := strings.TrimPrefix(p, "/")
		body := bundle.Files[p]

		switch path.Ext(p) {
		case ".css":
			link := regexp.MustCompile(`<link[^>]*href="` + regexp.QuoteMeta(name) + `"[^>]*>`)
			doc = link.ReplaceAllLiteralString(doc, "<style>\n"+escapeClosing(body, "</style")+"\n</style>")
		case ".js":
			script := regexp.MustCompile(`<script[^>]*src="` + regexp.QuoteMeta(name) + `"[^>]*>\s*</script>`)
			doc = script.ReplaceAllLiteralString(doc, "<script>\n"+escapeClosing(body, "</script")+"\n</script>")
		}
	}

	return doc, nil
}

// escapeClosing keeps an inlined body from terminating its enclosing element.
func escapeClosing(body, tag string) string {
	return strings.ReplaceAll(body, tag, `<\/`+strings.TrimPrefix(tag, "</"))
}
