package dom

import (
	"bytes"
	"html/template"
	"strings"

	"StockView/internal/domain/models"
	"StockView/internal/usecase"
)

var fragments = template.Must(template.New("fragments").Funcs(template.FuncMap{
	// card styles only come from the renderer's fixed palette
	"cardStyle": func(c models.Card) template.CSS {
		var parts []string
		if c.Background != "" {
			parts = append(parts, "background: "+c.Background)
		}
		if c.Foreground != "" {
			parts = append(parts, "color: "+c.Foreground)
		}
		return template.CSS(strings.Join(parts, "; "))
	},
}).Parse(`
{{- define "cards" -}}
{{- if .Heading}}<h3 style="grid-column: 1/-1; text-align: center; margin-bottom: 10px;">{{.Heading}}</h3>{{end -}}
{{- range .Cards}}
<div class="stat-card"{{with cardStyle .}} style="{{.}}"{{end}}>
  <div class="stat-value">{{if .Icon}}<i class="fas {{.Icon}}"></i> {{end}}{{.Value}}</div>
  <div class="stat-label">{{.Label}}</div>
</div>
{{- end}}
{{- end -}}

{{- define "alert" -}}
<div class="error"><i class="fas fa-exclamation-triangle"></i> {{.}}</div>
{{- end -}}

{{- define "button" -}}
<i class="fas {{.Icon}}{{if .Spin}} fa-spin{{end}}"></i> {{.Label}}
{{- end -}}
`))

func execute(name string, data any) string {
	var b bytes.Buffer
	if err := fragments.ExecuteTemplate(&b, name, data); err != nil {
		// fixed templates over plain data; a failure here is a programming error
		panic(err)
	}
	return b.String()
}

func renderCards(heading string, cards []models.Card) string {
	return execute("cards", struct {
		Heading string
		Cards   []models.Card
	}{heading, cards})
}

func renderAlert(message string) string {
	return execute("alert", message)
}

func renderButton(b usecase.Button) string {
	return execute("button", b)
}
