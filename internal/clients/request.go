package clients

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
)

// Request — описание вызова REST-бэкенда.
type Request struct {
	Method string
	// Path относительно BaseURL; совпадение с путями аутентификации
	// отключает bearer.
	Path  string
	Query url.Values
	// Body кодируется в JSON, кроме *Multipart.
	Body   any
	Header http.Header
}

// Multipart — тело multipart/form-data.
type Multipart struct {
	Fields map[string]string
	Files  []File
}

type File struct {
	Field   string
	Name    string
	Content io.Reader
}

type endpointKind int

const (
	kindAPI endpointKind = iota
	kindSignIn
	kindRegister
	kindRefresh
)

// prepared — запрос, закодированный один раз: тело можно отправить повторно.
type prepared struct {
	method      string
	url         string
	path        string
	body        []byte
	contentType string
	header      http.Header
	kind        endpointKind
}

func (c *Client) prepare(req *Request) (*prepared, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	u := c.base.JoinPath(req.Path)
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	p := &prepared{
		method:      method,
		url:         u.String(),
		path:        req.Path,
		header:      req.Header.Clone(),
		kind:        c.kindOf(req.Path),
		contentType: "application/json",
	}

	switch b := req.Body.(type) {
	case nil:
	case *Multipart:
		body, ct, err := encodeMultipart(b)
		if err != nil {
			return nil, fmt.Errorf("encode multipart: %w", err)
		}
		p.body, p.contentType = body, ct
	default:
		body, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		p.body = body
	}

	return p, nil
}

// kindOf сравнивает пути без учёта завершающего слэша: "/api/token/refresh/"
// и "/api/token/refresh" — один эндпойнт.
func (c *Client) kindOf(p string) endpointKind {
	switch cleanPath(p) {
	case cleanPath(c.paths.Token):
		return kindSignIn
	case cleanPath(c.paths.Register):
		return kindRegister
	case cleanPath(c.paths.Refresh):
		return kindRefresh
	default:
		return kindAPI
	}
}

func cleanPath(p string) string {
	if p == "" {
		return ""
	}

	return path.Clean("/" + p)
}

func encodeMultipart(m *Multipart) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range m.Fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}

	for _, f := range m.Files {
		if f.Content == nil {
			return nil, "", fmt.Errorf("file %q: nil content", f.Field)
		}

		part, err := w.CreateFormFile(f.Field, f.Name)
		if err != nil {
			return nil, "", err
		}

		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}

// withID подставляет id в шаблон пути вида "/students/{id}".
func withID(p string, id int64) string {
	return strings.ReplaceAll(p, "{id}", url.PathEscape(strconv.FormatInt(id, 10)))
}
