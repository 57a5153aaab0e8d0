package feedback

import (
	"bytes"
	"html/template"

	"github.com/zhouzirui/lgt-bot/backend/internal/model/feedback"
)

type pageData struct {
	Submitted bool
	Entry     feedback.Entry
	Errors    map[string]string
}

var pageTmpl = template.Must(template.New("feedback").Parse(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>LGT Bot feedback</title>
    <style>
      body { margin: 0; min-height: 100vh; display: flex; align-items: center; justify-content: center; background: #f3f4f6; font-family: ui-sans-serif, system-ui, sans-serif; }
      .card { background: #fff; padding: 2rem; border-radius: .5rem; box-shadow: 0 10px 25px rgba(0,0,0,.1); width: 20rem; }
      h2 { color: #2563eb; text-align: center; font-size: 1.875rem; margin: 0 0 1.5rem; }
      label { display: block; font-size: 1.05rem; color: #374151; margin-top: 1rem; }
      input, textarea { width: 100%; box-sizing: border-box; padding: .75rem; margin-top: .25rem; border: 1px solid #d1d5db; border-radius: .375rem; }
      .error { color: #dc2626; font-size: .875rem; }
      .actions { display: flex; justify-content: center; margin-top: 1.5rem; }
      button { background: #3b82f6; color: #fff; font-weight: 700; padding: .75rem 1.5rem; border: 0; border-radius: .375rem; cursor: pointer; }
      button:hover { background: #2563eb; }
      .thanks { text-align: center; }
      .thanks b { color: #1f2937; }
    </style>
  </head>
  <body>
    <div class="card">
    {{- if .Submitted}}
      <div class="thanks">
        <h2>Thank you!</h2>
        <p>We appreciate your feedback, <b>{{.Entry.Name}}</b>!</p>
        <p>We'll contact you at <b>{{.Entry.Email}}</b> if needed.</p>
        <form method="post" action="/feedback" class="actions">
          <input type="hidden" name="action" value="reset" />
          <button type="submit">Submit More Feedback</button>
        </form>
      </div>
    {{- else}}
      <h2>Your Feedback</h2>
      <form method="post" action="/feedback">
        <label for="name">Name:</label>
        <input type="text" id="name" name="name" value="{{.Entry.Name}}" required />
        {{with .Errors.name}}<div class="error">Name {{.}}</div>{{end}}
        <label for="email">Email:</label>
        <input type="email" id="email" name="email" value="{{.Entry.Email}}" required />
        {{with .Errors.email}}<div class="error">Email {{.}}</div>{{end}}
        <label for="feedback">Your Feedback:</label>
        <textarea id="feedback" name="feedback" required>{{.Entry.Feedback}}</textarea>
        {{with .Errors.feedback}}<div class="error">Feedback {{.}}</div>{{end}}
        <div class="actions"><button type="submit">Submit Feedback</button></div>
      </form>
    {{- end}}
    </div>
  </body>
</html>
`))

func renderPage(data pageData) ([]byte, error) {
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
