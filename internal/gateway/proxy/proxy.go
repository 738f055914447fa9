package proxy

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// ============================================================
// Proxy Handler
// ============================================================

// hopHeaders не копируются между клиентом и upstream.
var hopHeaders = map[string]bool{
	"Connection":        true,
	"Keep-Alive":        true,
	"Transfer-Encoding": true,
	"Upgrade":           true,
	"Content-Length":    true,
}

type Proxy struct {
	client *http.Client
	log    *zap.Logger
}

func New(timeout time.Duration, log *zap.Logger) *Proxy {
	return &Proxy{
		client: &http.Client{Timeout: timeout},
		log:    log.Named("proxy"),
	}
}

// To проксирует запрос на фиксированный URL upstream.
func (p *Proxy) To(targetURL string) fiber.Handler {
	return func(c fiber.Ctx) error {
		return p.Forward(c, withQuery(c, targetURL))
	}
}

// Mount проксирует prefix и всё под ним на upstream с той же хвостовой частью пути:
// prefix/a/b -> upstream/a/b.
func (p *Proxy) Mount(r fiber.Router, prefix, upstream string) {
	upstream = strings.TrimRight(upstream, "/")
	handler := func(c fiber.Ctx) error {
		target := upstream
		if rest := c.Params("*"); rest != "" {
			target += "/" + strings.TrimLeft(rest, "/")
		}
		return p.Forward(c, withQuery(c, target))
	}
	r.All(prefix, handler)
	r.All(prefix+"/*", handler)
}

func withQuery(c fiber.Ctx, targetURL string) string {
	if q := string(c.Request().URI().QueryString()); q != "" {
		return targetURL + "?" + q
	}
	return targetURL
}

// Forward проксирует любой метод с учетом multipart/raw.
func (p *Proxy) Forward(c fiber.Ctx, targetURL string) error {
	contentType := c.Get("Content-Type")
	p.log.Debug("forward",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.String("content_type", contentType),
		zap.Int("content_length", len(c.Body())),
		zap.String("target", targetURL),
	)

	if strings.HasPrefix(contentType, "multipart/form-data") {
		return p.sendMultipart(c, targetURL)
	}
	return p.sendRaw(c, targetURL, contentType)
}

func (p *Proxy) sendRaw(c fiber.Ctx, targetURL, contentType string) error {
	var body io.Reader
	if len(c.Body()) > 0 {
		body = bytes.NewReader(c.Body())
	}
	req, err := http.NewRequestWithContext(c.Context(), c.Method(), targetURL, body)
	if err != nil {
		p.log.Error("build request", zap.String("target", targetURL), zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "proxy failed"})
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return p.send(c, req)
}

func (p *Proxy) sendMultipart(c fiber.Ctx, targetURL string) error {
	form, err := c.MultipartForm()
	if err != nil {
		p.log.Warn("parse multipart", zap.Error(err))
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid multipart data"})
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for key, files := range form.File {
		for _, fileHeader := range files {
			if err := copyFilePart(writer, key, fileHeader); err != nil {
				p.log.Warn("copy multipart file", zap.String("field", key), zap.Error(err))
			}
		}
	}
	for key, values := range form.Value {
		for _, value := range values {
			if err := writer.WriteField(key, value); err != nil {
				p.log.Warn("copy multipart field", zap.String("field", key), zap.Error(err))
			}
		}
	}
	if err := writer.Close(); err != nil {
		p.log.Error("close multipart", zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "proxy failed"})
	}

	req, err := http.NewRequestWithContext(c.Context(), c.Method(), targetURL, body)
	if err != nil {
		p.log.Error("build multipart request", zap.String("target", targetURL), zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "proxy failed"})
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return p.send(c, req)
}

func copyFilePart(w *multipart.Writer, field string, fh *multipart.FileHeader) error {
	file, err := fh.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, fh.Filename))
	if ct := fh.Header.Get("Content-Type"); ct != "" {
		h.Set("Content-Type", ct)
	}
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file)
	return err
}

func (p *Proxy) send(c fiber.Ctx, req *http.Request) error {
	if accept := c.Get("Accept"); accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Error("upstream unreachable", zap.String("target", req.URL.String()), zap.Error(err))
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "failed to reach upstream service"})
	}
	defer resp.Body.Close()

	return p.copyResponse(c, resp)
}

func (p *Proxy) copyResponse(c fiber.Ctx, resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		p.log.Error("read upstream response", zap.Error(err))
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "invalid upstream response"})
	}

	for key, values := range resp.Header {
		if len(values) > 0 && !hopHeaders[key] {
			c.Set(key, values[0])
		}
	}

	c.Status(resp.StatusCode)
	return c.Send(data)
}
