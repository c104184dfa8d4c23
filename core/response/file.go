package response

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Send turns r into a file download directive.
// An empty downloadName sends the file inline; cacheSeconds <= 0 disables caching.
func (r *Response) Send(path, downloadName string, cacheSeconds int) {
	r.Body = nil
	r.Location = ""
	r.File = &File{
		Path:         filepath.Clean(path),
		DownloadName: downloadName,
		CacheSeconds: cacheSeconds,
	}
}

func (r *Response) writeFile(w http.ResponseWriter, req *http.Request) error {
	f, err := os.Open(r.File.Path)
	if err != nil {
		if os.IsNotExist(err) {
			http.NotFound(w, req)
			return nil
		}
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		http.NotFound(w, req)
		return nil
	}

	h := w.Header()
	if h.Get("Content-Type") == "" {
		contentType := mime.TypeByExtension(filepath.Ext(r.File.Path))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)
	}
	if r.File.DownloadName != "" {
		h.Set("Content-Disposition", Disposition(r.File.DownloadName))
	}
	setCacheHeaders(h, r.File.CacheSeconds, time.Now())

	if r.Status != 0 && r.Status != http.StatusOK {
		w.WriteHeader(r.Status)
		if req == nil || req.Method != http.MethodHead {
			_, err = f.WriteTo(w)
		}
		return err
	}

	http.ServeContent(w, req, info.Name(), info.ModTime(), f)
	return nil
}

// Disposition builds an attachment Content-Disposition value.
// Quotes and line breaks are stripped to prevent header injection.
func Disposition(filename string) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '"', '\r', '\n', '\\':
			return -1
		}
		return r
	}, filename)
	return fmt.Sprintf(`attachment; filename="%s"`, safe)
}

func setCacheHeaders(h http.Header, seconds int, now time.Time) {
	if seconds <= 0 {
		h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
		h.Set("Expires", "0")
		return
	}
	h.Set("Cache-Control", "public, max-age="+strconv.Itoa(seconds))
	h.Set("Expires", now.Add(time.Duration(seconds)*time.Second).UTC().Format(http.TimeFormat))
}
