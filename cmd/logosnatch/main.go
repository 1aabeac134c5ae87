package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"image"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/bmp"

	"github.com/itsRealM12C/mbn"
)

// cliSink captures the extractor's outputs; the artifact is written to
// disk once flags have had a chance to rewrite it.
type cliSink struct {
	preview  *image.RGBA
	blob     []byte
	mime     string
	filename string
}

func (s *cliSink) Logf(format string, args ...interface{}) {
	logrus.Infof(format, args...)
}

func (s *cliSink) Preview(img *image.RGBA) {
	s.preview = img
}

func (s *cliSink) Downloadable(blob []byte, mime string, filename string) {
	s.blob = blob
	s.mime = mime
	s.filename = filename
}

func main() {
	out := flag.String("o", "", "output path (default: bootlogo.bmp in the working directory)")
	asBMP := flag.Bool("bmp", false, "re-encode 16bpp logos as BMP instead of PNG")
	asJSON := flag.Bool("json", false, "print an extraction summary as JSON on stdout")
	strict := flag.Bool("strict", false, "exit nonzero when the result is degraded")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	if flag.NArg() != 1 {
		println("Usage: logosnatch [flags] <firmware dump>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	bin, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		logrus.Fatalf("failed reading %s: %v", flag.Arg(0), err)
	}

	sink := &cliSink{}
	res, err := mbn.Extract(bin, sink)
	if err != nil {
		logrus.Fatal(err)
	}

	if *asBMP && res.Image != nil {
		var buf bytes.Buffer
		if err := bmp.Encode(&buf, res.Image); err != nil {
			logrus.Fatalf("failed encoding BMP: %v", err)
		}
		sink.blob = buf.Bytes()
		sink.mime = mbn.MIMEBitmap
	}

	path := *out
	if path == "" {
		path = sink.filename
	}
	if err := os.WriteFile(path, sink.blob, 0644); err != nil {
		logrus.Fatalf("failed writing %s: %v", path, err)
	}
	logrus.Infof("wrote %s (%s, %d bytes)", path, sink.mime, len(sink.blob))

	if *asJSON {
		json.NewEncoder(os.Stdout).Encode(res)
	}

	if *strict && res.Degraded {
		logrus.Warnf("degraded result: %s", res.DegradedReason)
		os.Exit(1)
	}
}
