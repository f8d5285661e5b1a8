package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/a-h/templ"

	"startright/internal/imagecache"
	appLog "startright/internal/log"
	"startright/internal/textfmt"
)

// embeddedTemplates holds the page layouts. Every file under pages/ is
// parsed together with layout.html and the shared partials.
//
//go:embed templates
var embeddedTemplates embed.FS

// embeddedStatic holds stylesheets, the countdown client and placeholders.
//
//go:embed all:static
var embeddedStatic embed.FS

const placeholderImage = "/static/img/placeholder.svg"

const (
	flashCookie = "sr_flash"
	flashMaxAge = 60
)

// view is the data every page template receives.
type view struct {
	Title        string
	Path         string
	Announcement string
	Toast        string
	Year         int
	Data         any
}

// inputView is one labelled form control with its posted value and error.
type inputView struct {
	Name     string
	Label    string
	Type     string
	Required bool
	Value    string
	Error    string
}

// imageRef is what templates need to draw one image.
type imageRef struct {
	Src         string
	Original    string
	Cached      bool
	Placeholder bool
}

func (s *Server) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"date":      textfmt.FormatDate,
		"shortDate": textfmt.ShortDate,
		"clock":     textfmt.FormatClock,
		"timeRange": textfmt.FormatTimeRange,
		"plain":     textfmt.PlainText,
		"title":     textfmt.TitleCase,
		"count":     textfmt.FormatCount,
		"excerpt": func(s string, n int) string {
			return textfmt.Excerpt(textfmt.PlainText(s), n)
		},
		"ago": func(ts string) string {
			return textfmt.FormatRelative(ts, s.now())
		},
		"img": s.imageFor,
		"stars": func(n int) string {
			if n < 0 {
				n = 0
			}
			if n > 5 {
				n = 5
			}
			return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
		},
		"paragraphs": func(s string) []string {
			var out []string
			for _, p := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n\n") {
				if p = strings.TrimSpace(p); p != "" {
					out = append(out, p)
				}
			}
			return out
		},
		"field": func(f formState, name, label, typ string, required bool) inputView {
			return inputView{
				Name:     name,
				Label:    label,
				Type:     typ,
				Required: required,
				Value:    f.Values.Get(name),
				Error:    f.Errors[name],
			}
		},
		"selected": func(f formState, name, value string) bool {
			return f.Values.Get(name) == value
		},
		"add":  func(a, b int) int { return a + b },
		"list": func(n ...int) []int { return n },
		"strs": func(s ...string) []string { return s },
		"query": func(v url.Values, key, value string) string {
			q := url.Values{}
			for k, vs := range v {
				q[k] = append([]string(nil), vs...)
			}
			q.Set(key, value)
			return q.Encode()
		},
	}
}

// imageFor resolves an image through the cache hook for a template.
func (s *Server) imageFor(rawURL string) imageRef {
	if strings.TrimSpace(rawURL) == "" {
		return imageRef{Src: placeholderImage, Placeholder: true}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res := s.images.Resolve(ctx, rawURL)
	ref := imageRef{Src: res.Src(rawURL), Original: rawURL, Cached: res.CachedSrc != ""}
	// A remembered fetch failure means the origin is broken; a merely
	// unavailable store still lets the browser try the original.
	if !ref.Cached && res.Error != "" && res.Error != imagecache.ErrUnavailable.Error() {
		ref.Src = placeholderImage
		ref.Placeholder = true
	}
	return ref
}

func (s *Server) parsePages() (map[string]*template.Template, error) {
	base, err := template.New("layout.html").Funcs(s.templateFuncs()).ParseFS(embeddedTemplates,
		"templates/layout.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	files, err := fs.Glob(embeddedTemplates, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template, len(files))
	for _, f := range files {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(embeddedTemplates, f); err != nil {
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
		pages[strings.TrimSuffix(path.Base(f), ".html")] = t
	}
	return pages, nil
}

// component adapts a parsed page into a templ component so every page goes
// through the same rendering path as templ-generated views.
func (s *Server) component(name string, v view) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		t, ok := s.pages[name]
		if !ok {
			return fmt.Errorf("unknown page %q", name)
		}
		// Render into a buffer so a template error never leaves half a page.
		var buf bytes.Buffer
		if err := t.ExecuteTemplate(&buf, "layout", v); err != nil {
			return err
		}
		_, err := buf.WriteTo(w)
		return err
	})
}

// render writes page name with status. title and data fill the layout.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	cfg := s.config()
	v := view{
		Title:        title,
		Path:         r.URL.Path,
		Announcement: cfg.Announcement,
		Toast:        popFlash(w, r),
		Year:         s.now().In(cfg.Location()).Year(),
		Data:         data,
	}
	h := templ.Handler(s.component(name, v),
		templ.WithStatus(status),
		templ.WithErrorHandler(func(r *http.Request, err error) http.Handler {
			appLog.Error("page render failed", err, "page", name, "path", r.URL.Path)
			return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "Something went wrong rendering this page.", http.StatusInternalServerError)
			})
		}),
	)
	h.ServeHTTP(w, r)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, "notfound", "Page not found", nil)
}

func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to open embedded static FS", err)
		return http.NotFoundHandler()
	}
	return http.FileServerFS(sub)
}

// setFlash stores a one-shot message shown as a toast on the next page.
func setFlash(w http.ResponseWriter, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		MaxAge:   flashMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns and clears the pending flash message, if any.
func popFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return ""
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1})
	msg, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return msg
}
