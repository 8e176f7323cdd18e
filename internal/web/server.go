// Package web serves the chat page and turns form posts into chat session actions.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/RichardoC/caonline/internal/api"
	"github.com/RichardoC/caonline/internal/chat"
	"github.com/RichardoC/caonline/internal/render"
)

const (
	SessionCookie = "caonline_session"
	ThemeCookie   = "caonline_theme"
	themeLight    = "light"
	themeDark     = "dark"
	themeMaxAge   = 365 * 24 * 60 * 60
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

type historyItem struct {
	Index int
	Title string
}

type pageData struct {
	Theme     string
	ThemeIcon string
	History   []historyItem
	Bubbles   []render.Bubble
}

type Server struct {
	sessions *Sessions
	tmpl     *template.Template
	logger   *zap.Logger
}

func New(sessions *Sessions, logger *zap.Logger) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Server{sessions: sessions, tmpl: tmpl, logger: logger}, nil
}

func (s *Server) Register(mux *http.ServeMux) {
	static, _ := fs.Sub(staticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	mux.HandleFunc("GET /{$}", s.HandleIndex)
	mux.HandleFunc("POST /chat/send", s.HandleSend)
	mux.HandleFunc("POST /chat/new", s.HandleNewChat)
	mux.HandleFunc("POST /chat/load", s.HandleLoad)
	mux.HandleFunc("POST /chat/clear", s.HandleClear)
	mux.HandleFunc("POST /theme", s.HandleTheme)
}

// session returns the caller's chat session, starting one if the cookie is
// missing or expired.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *chat.Session {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if sess, ok := s.sessions.Get(c.Value); ok {
			return sess
		}
	}
	id, sess := s.sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

func themeOf(r *http.Request) string {
	if c, err := r.Cookie(ThemeCookie); err == nil && c.Value == themeDark {
		return themeDark
	}
	return themeLight
}

func (s *Server) HandleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	theme := themeOf(r)
	data := pageData{
		Theme:     theme,
		ThemeIcon: "🌙",
		Bubbles:   sess.Bubbles(),
	}
	if theme == themeDark {
		data.ThemeIcon = "☀️"
	}
	for i, title := range sess.History() {
		data.History = append(data.History, historyItem{Index: i, Title: title})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		s.logger.Error("Failed to render page", zap.Error(err))
	}
}

func (s *Server) HandleSend(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.Send(chat.WithClientIP(r.Context(), api.ClientIP(r)), r.FormValue("message"))
	backToChat(w, r)
}

func (s *Server) HandleNewChat(w http.ResponseWriter, r *http.Request) {
	s.session(w, r).NewChat()
	backToChat(w, r)
}

func (s *Server) HandleLoad(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if idx, err := strconv.Atoi(r.FormValue("index")); err == nil {
		sess.Load(idx)
	}
	backToChat(w, r)
}

// HandleClear only clears when the form carries confirm=yes, which the page
// script sets after the user accepts the prompt.
func (s *Server) HandleClear(w http.ResponseWriter, r *http.Request) {
	s.session(w, r).Clear(r.FormValue("confirm") == "yes")
	backToChat(w, r)
}

func (s *Server) HandleTheme(w http.ResponseWriter, r *http.Request) {
	next := themeDark
	if themeOf(r) == themeDark {
		next = themeLight
	}
	http.SetCookie(w, &http.Cookie{
		Name:     ThemeCookie,
		Value:    next,
		Path:     "/",
		MaxAge:   themeMaxAge,
		SameSite: http.SameSiteLaxMode,
	})
	backToChat(w, r)
}

func backToChat(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/#end", http.StatusSeeOther)
}
