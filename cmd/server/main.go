package main

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"io"
	"net/http"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/bmp"

	"github.com/itsRealM12C/mbn"
	"github.com/itsRealM12C/mbn/pkg/config"
)

// extraction is one completed upload, kept so preview and download can
// be fetched as separate requests.
type extraction struct {
	res *mbn.Result
	log []string
}

type captureSink struct {
	lines []string
}

func (s *captureSink) Logf(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	logrus.Debugln(line)
	s.lines = append(s.lines, line)
}

func (s *captureSink) Preview(img *image.RGBA) {}

func (s *captureSink) Downloadable(blob []byte, mime string, filename string) {}

// newUploadID returns a short random token for addressing a cached
// extraction.
func newUploadID() string {
	token := new([9]byte)
	if _, err := rand.Read(token[:]); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(token[:])
}

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatal(err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	extractions := cmap.New[*extraction]()

	http.HandleFunc("/extract", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		bin, err := io.ReadAll(http.MaxBytesReader(w, r.Body, cfg.MaxUploadBytes))
		if err != nil {
			http.Error(w, "Upload too large or unreadable", http.StatusRequestEntityTooLarge)
			return
		}
		if len(bin) == 0 {
			http.Error(w, "Empty upload", http.StatusBadRequest)
			return
		}

		sink := &captureSink{}
		res, err := mbn.Extract(bin, sink)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		id := newUploadID()
		if id == "" {
			http.Error(w, "Failed generating upload id", http.StatusInternalServerError)
			return
		}
		extractions.Set(id, &extraction{res: res, log: sink.lines})
		logrus.Infof("extraction %s: %dx%d %d bpp at offset 0x%x",
			id, res.Width, res.Height, res.BitsPerPixel, res.Offset)

		w.Header().Set("content-type", "application/json; charset=utf-8")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      id,
			"log":     sink.lines,
			"summary": res,
		})
	})

	http.HandleFunc("/preview", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		ex, ok := extractions.Get(r.FormValue("id"))
		if !ok {
			http.Error(w, "Unknown extraction id", http.StatusNotFound)
			return
		}

		w.Header().Set("content-type", "image/bmp")
		if ex.res.Image != nil {
			bmp.Encode(w, ex.res.Image)
			return
		}
		// Non-16bpp results are already a displayable container.
		w.Write(ex.res.Blob)
	})

	http.HandleFunc("/download", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		ex, ok := extractions.Get(r.FormValue("id"))
		if !ok {
			http.Error(w, "Unknown extraction id", http.StatusNotFound)
			return
		}

		w.Header().Set("content-type", ex.res.MIME)
		w.Header().Set("content-disposition", `attachment; filename="`+ex.res.Filename+`"`)
		w.Write(ex.res.Blob)
	})

	logrus.Infoln("listening on " + cfg.Listen)
	http.ListenAndServe(cfg.Listen, nil)
}
