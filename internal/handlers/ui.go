package handlers

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/playbook-ai/playbook-ai/internal/constants"
	"github.com/playbook-ai/playbook-ai/internal/executioncontext"
	"github.com/playbook-ai/playbook-ai/internal/http_wrappers"
	"github.com/playbook-ai/playbook-ai/internal/messages"
)

var uiTemplate = template.Must(template.New("ui").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>{{.OSID}}</title>
  <style>
    body { font-family: sans-serif; max-width: 960px; margin: 2rem auto; }
    textarea { width: 100%; font-family: monospace; }
    pre { background: #f4f4f4; padding: 1rem; white-space: pre-wrap; }
  </style>
</head>
<body>
  <h1>{{.OSID}}</h1>
  <p>{{.Description}}</p>
  <p><a href="/docs">API docs</a> | <a href="/config">Configuration</a> | <a href="/health">Health</a></p>
  {{range .Workflows}}
  <section>
    <h2>{{.Name}}</h2>
    <p>{{.Description}}</p>
    <ol>{{range .Steps}}<li><strong>{{.Name}}</strong>: {{.Description}}</li>{{end}}</ol>
    <form class="run" data-workflow="{{.ID}}">
      <textarea name="message" rows="4">{{.Example}}</textarea>
      <button type="submit">Run</button>
    </form>
    <pre class="output"></pre>
    <p><a href="/workflows/{{.ID}}/runs">Previous runs</a></p>
  </section>
  {{end}}
  <script>
    document.querySelectorAll("form.run").forEach(function (form) {
      form.addEventListener("submit", async function (event) {
        event.preventDefault();
        const output = form.nextElementSibling;
        output.textContent = "";
        const body = new URLSearchParams({ message: form.message.value, stream: "true" });
        const response = await fetch("/workflows/" + form.dataset.workflow + "/runs", { method: "POST", body: body });
        const reader = response.body.getReader();
        const decoder = new TextDecoder();
        for (;;) {
          const { done, value } = await reader.read();
          if (done) break;
          output.textContent += decoder.decode(value, { stream: true });
        }
      });
    });
  </script>
</body>
</html>
`))

type uiStep struct {
	Name        string
	Description string
}

type uiWorkflow struct {
	ID          string
	Name        string
	Description string
	Steps       []uiStep
	Example     string
}

// HandleUI handles GET /, the control plane page
func (h *Handlers) HandleUI(ctx *executioncontext.ExecutionContext, r http_wrappers.RequestWrapper, w http_wrappers.ResponseWrapper) {
	data := struct {
		OSID        string
		Description string
		Workflows   []uiWorkflow
	}{
		OSID:        h.info.OSID,
		Description: h.info.Description,
	}
	for _, workflow := range h.workflows {
		item := uiWorkflow{
			ID:          workflow.ID(),
			Name:        workflow.Name(),
			Description: workflow.Description(),
			Example:     exampleMessage(workflow.InputSchema()),
		}
		for _, step := range workflow.Steps() {
			item.Steps = append(item.Steps, uiStep{Name: step.Name, Description: step.Description})
		}
		data.Workflows = append(data.Workflows, item)
	}
	renderHTML(ctx, w, uiTemplate, data)
}

func renderHTML(ctx *executioncontext.ExecutionContext, w http_wrappers.ResponseWrapper, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		ctx.Logger.Error("Failed to render page", "template", tmpl.Name(), constants.LOG_ERROR, err.Error())
		writeMessage(ctx, w, messages.InternalServerError, "Error", err.Error())
		return
	}
	w.SetHeader("Content-Type", "text/html; charset=utf-8")
	w.SetStatusCode(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// exampleMessage fills the form with the first example of every schema property
func exampleMessage(schema []byte) string {
	var parsed struct {
		Properties map[string]struct {
			Examples []any `json:"examples"`
		} `json:"properties"`
	}
	if len(schema) == 0 || json.Unmarshal(schema, &parsed) != nil {
		return "{}"
	}
	example := make(map[string]any)
	for name, property := range parsed.Properties {
		if len(property.Examples) > 0 {
			example[name] = property.Examples[0]
		}
	}
	out, err := json.Marshal(example)
	if err != nil {
		return "{}"
	}
	return string(out)
}
