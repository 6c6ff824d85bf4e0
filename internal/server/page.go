package server

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"
)

//go:embed static/index.html
var indexHTML string

var indexTmpl = template.Must(template.New("index").Parse(indexHTML))

type pageData struct {
	Title       string
	Label       string
	Placeholder string
	ModelName   string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Title:       s.persona.HeaderTitle(),
		Label:       s.persona.Label(),
		Placeholder: s.persona.InputPlaceholder(),
		ModelName:   s.modelName,
	}

	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, data); err != nil {
		s.logger.Error("render page", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
