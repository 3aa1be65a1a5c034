package api

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kalambet/haiku/internal/controller"
	"github.com/kalambet/haiku/internal/haiku"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTmpl = template.Must(template.New("index.html").Funcs(template.FuncMap{
	"date": func(t time.Time) string { return t.Local().Format("Jan 2, 2006") },
}).ParseFS(templateFS, "templates/index.html"))

type pageData struct {
	controller.State
	// CanSubmit mirrors the trigger rule: not loading and a non-blank theme.
	CanSubmit bool
}

func handlePage(s Sessions, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := s.Get(r.Context(), sessionID(r.Context())).Snapshot()
		data := pageData{State: st, CanSubmit: !st.Loading && haiku.NormalizeTheme(st.Theme) != ""}

		var buf bytes.Buffer
		if err := pageTmpl.Execute(&buf, data); err != nil {
			log.Error("rendering page", zap.Error(err))
			http.Error(w, "failed to render page", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(buf.Bytes())
	}
}
