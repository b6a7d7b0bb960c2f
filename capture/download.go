package capture

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/openrera/rerapipe/schema"
)

// download runs the fallback chain for a known URL:
//
//  1. authenticated in-browser-context GET (when a tab is available),
//  2. plain unauthenticated GET following redirects,
//  3. the rendered page HTML as a last resort.
//
// Every attempted step appends one note, success or not, so the trail
// is reconstructable after the fact.
func (c *Capturer) download(ctx context.Context, tab Page, art schema.PreviewArtifact, rawURL, referer string) schema.PreviewArtifact {
	if hit, ok := c.dedup.Get(rawURL); ok {
		cached := hit.(cachedFile)
		return art.WithFile(cached.path, cached.typ).WithNote("reused file from earlier download: " + cached.path)
	}

	// (1) session-scoped GET.
	if tab != nil {
		fctx, cancel := context.WithTimeout(ctx, c.cfg.NavTimeout)
		res, err := tab.Fetch(fctx, rawURL)
		cancel()
		switch {
		case err != nil:
			art = art.WithNote("session fetch failed: " + err.Error())
		case res.Status != 0 && res.Status != http.StatusOK:
			art = art.WithNote(fmt.Sprintf("session fetch returned HTTP %d", res.Status))
		case len(res.Body) == 0:
			art = art.WithNote("session fetch returned empty body")
		default:
			if saved, ok := c.saveFetched(&art, rawURL, res, "session"); ok {
				return saved
			}
		}
	}

	// (2) plain GET, redirects followed, relative paths resolved against
	// the page the trigger came from.
	fctx, cancel := context.WithTimeout(ctx, c.cfg.NavTimeout)
	res, err := c.cfg.Downloader.Fetch(fctx, rawURL, referer)
	cancel()
	switch {
	case err != nil:
		art = art.WithNote("plain fetch failed: " + err.Error())
	case res.Status != http.StatusOK:
		art = art.WithNote(fmt.Sprintf("plain fetch returned HTTP %d", res.Status))
	case len(res.Body) == 0:
		art = art.WithNote("plain fetch returned empty body")
	default:
		// The recorded source must be the post-redirect URL on this path
		// too; the session tab already reports it, resty exposes it here.
		if res.FinalURL != "" && res.FinalURL != art.SourceURL {
			art = art.WithTarget(res.FinalURL).WithNote("plain fetch redirected: " + res.FinalURL)
		}
		if saved, ok := c.saveFetched(&art, rawURL, res, "plain HTTP"); ok {
			return saved
		}
	}

	// (3) rendered page HTML, classified html rather than unknown.
	if tab != nil {
		hctx, cancel := context.WithTimeout(ctx, c.cfg.NavTimeout)
		rendered, err := tab.HTML(hctx)
		cancel()
		if err == nil && strings.TrimSpace(rendered) != "" {
			path, serr := c.cfg.Store.Save(art.FieldKey, ".html", []byte(rendered))
			if serr == nil {
				return art.WithFile(path, schema.ArtifactHTML).
					WithNote("saved rendered page HTML as fallback: " + path)
			}
			art = art.WithNote("rendered HTML save failed: " + serr.Error())
		} else if err != nil {
			art = art.WithNote("rendered HTML unavailable: " + err.Error())
		}
	}

	return art.Fail("all download strategies exhausted")
}

// saveFetched classifies and persists a successful fetch. Returns ok
// false (with a note on art) when the write failed, letting the chain
// continue.
func (c *Capturer) saveFetched(art *schema.PreviewArtifact, rawURL string, res *FetchResult, via string) (schema.PreviewArtifact, bool) {
	ext, typ := classifyContent(res.ContentType, res.Body)

	if typ == schema.ArtifactPDF {
		if err := verifyPDF(res.Body); err != nil {
			*art = art.WithNote("pdf failed validation: " + err.Error())
			typ = schema.ArtifactUnknown
		}
	}

	path, err := c.cfg.Store.Save(art.FieldKey, ext, res.Body)
	if err != nil {
		*art = art.WithNote("file write failed: " + err.Error())
		return *art, false
	}

	out := art.WithFile(path, typ).WithNote(fmt.Sprintf("downloaded via %s: %s (%d bytes)", via, path, len(res.Body)))
	c.dedup.SetDefault(rawURL, cachedFile{path: path, typ: out.Type})
	return out, true
}

// classifyContent picks a file extension and artifact type from the
// response content type, sniffing the body when the server sent none.
func classifyContent(contentType string, body []byte) (string, schema.ArtifactType) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if ct == "" && len(body) > 0 {
		ct = strings.ToLower(http.DetectContentType(body))
	}
	switch {
	case strings.Contains(ct, "application/pdf"):
		return ".pdf", schema.ArtifactPDF
	case strings.Contains(ct, "image/png"):
		return ".png", schema.ArtifactImage
	case strings.Contains(ct, "image/jpeg"), strings.Contains(ct, "image/jpg"):
		return ".jpg", schema.ArtifactImage
	case strings.Contains(ct, "image/gif"):
		return ".gif", schema.ArtifactImage
	case strings.Contains(ct, "image/"):
		return ".img", schema.ArtifactImage
	case strings.Contains(ct, "text/html"), strings.Contains(ct, "application/xhtml"):
		return ".html", schema.ArtifactHTML
	default:
		return ".bin", schema.ArtifactUnknown
	}
}

// verifyPDF checks that downloaded bytes parse as a PDF before the
// artifact is declared a pdf. The registry serves error pages with a
// pdf content type often enough to make this worthwhile.
func verifyPDF(data []byte) error {
	conf := model.NewDefaultConfiguration()
	_, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	return err
}

// HTTPDownloader is the resty-backed plain-HTTP fallback.
type HTTPDownloader struct {
	client *resty.Client
}

// NewHTTPDownloader creates a Downloader following up to ten redirects.
func NewHTTPDownloader(timeout time.Duration) *HTTPDownloader {
	client := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	return &HTTPDownloader{client: client}
}

// Fetch GETs rawURL with referer-relative resolution.
func (d *HTTPDownloader) Fetch(ctx context.Context, rawURL, referer string) (*FetchResult, error) {
	target := rawURL
	if referer != "" {
		target = resolveRef(referer, rawURL)
	}

	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader("Referer", referer).
		Get(target)
	if err != nil {
		return nil, fmt.Errorf("capture: plain fetch %s: %w", target, err)
	}

	final := ""
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		final = raw.Request.URL.String()
	}
	return &FetchResult{
		Status:      resp.StatusCode(),
		ContentType: resp.Header().Get("Content-Type"),
		Body:        resp.Body(),
		FinalURL:    final,
	}, nil
}
