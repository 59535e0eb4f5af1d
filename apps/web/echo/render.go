package echoweb

import (
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/simplesis/simplesis/core/user"
	appfs "github.com/simplesis/simplesis/fs"
)

const (
	webTemplatesDir = "templates/web"
	baseTemplate    = "_base.gohtml"
)

const dateTimeLayout = "Mon 2 Jan 2006, 15:04"

var templateFuncs = template.FuncMap{
	"datetime": formatDateTime,
}

func formatDateTime(v interface{}) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format(dateTimeLayout)
	case *time.Time:
		if t != nil {
			return t.Format(dateTimeLayout)
		}
	}
	return ""
}

// pageData is what every page template receives.
type pageData struct {
	AppName string
	User    *user.User
	CSRF    string
	Data    interface{}
}

type renderer struct {
	pages map[string]*template.Template
}

var _ echo.Renderer = (*renderer)(nil)

// newRenderer parses every page under templates/web together with the base layout.
// Pages are looked up by file name without extension, e.g. "home".
func newRenderer() (*renderer, error) {
	names, err := fs.Glob(appfs.FS, path.Join(webTemplatesDir, "*.gohtml"))
	if err != nil {
		return nil, errors.Wrap(err, "listing web templates")
	}
	r := &renderer{pages: make(map[string]*template.Template, len(names))}
	for _, name := range names {
		base := path.Base(name)
		if strings.HasPrefix(base, "_") {
			continue
		}
		tmpl, err := template.New(base).Funcs(templateFuncs).ParseFS(
			appfs.FS,
			path.Join(webTemplatesDir, baseTemplate),
			name,
		)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", name)
		}
		r.pages[strings.TrimSuffix(base, ".gohtml")] = tmpl
	}
	return r, nil
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return errors.Errorf("no such page template: %s", name)
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}
