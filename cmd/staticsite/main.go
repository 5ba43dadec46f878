package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smarthomesolar/solarsite/internal/content"
	"github.com/smarthomesolar/solarsite/internal/httpapi"
)

const (
	defaultOutputDirectory = "public"
	defaultPublicBaseURL   = "http://localhost:8080"
	outputDirectoryMode    = 0o755
	outputFileMode         = 0o644
)

var errRenderFailed = errors.New("render failed")

type renderTarget struct {
	path       string
	handler    gin.HandlerFunc
	outputPath string
}

func renderPage(handler gin.HandlerFunc, path string) (int, []byte) {
	recorder := httptest.NewRecorder()
	context, _ := gin.CreateTestContext(recorder)
	context.Request = httptest.NewRequest(http.MethodGet, path, nil)
	handler(context)
	return recorder.Code, recorder.Body.Bytes()
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), outputDirectoryMode); err != nil {
		return err
	}
	return os.WriteFile(path, data, outputFileMode)
}

// run renders the public pages into a directory that any static host can serve.
func run(arguments []string, stdout io.Writer) error {
	flagSet := flag.NewFlagSet("staticsite", flag.ContinueOnError)
	contentFile := flagSet.String("content-file", "", "YAML file overriding the built-in site content")
	outputDir := flagSet.String("out", defaultOutputDirectory, "directory to write the static pages into")
	publicBaseURL := flagSet.String("public-base-url", defaultPublicBaseURL, "public URL of the site, used in the sitemap")
	if parseErr := flagSet.Parse(arguments); parseErr != nil {
		return parseErr
	}

	site, loadErr := content.Load(*contentFile)
	if loadErr != nil {
		return fmt.Errorf("load content: %w", loadErr)
	}

	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	contentStore := content.StaticStore(site)
	landingHandlers := httpapi.NewLandingPageHandlers(logger, contentStore, nil)
	privacyHandlers := httpapi.NewPrivacyPageHandlers(logger, contentStore)
	sitemapHandlers := httpapi.NewSitemapHandlers(*publicBaseURL)

	targets := []renderTarget{
		{path: httpapi.LandingPagePath, handler: landingHandlers.RenderLandingPage, outputPath: filepath.Join(*outputDir, "index.html")},
		{path: httpapi.PrivacyPagePath, handler: privacyHandlers.RenderPrivacyPage, outputPath: filepath.Join(*outputDir, "privacy", "index.html")},
		{path: httpapi.SitemapRoutePath, handler: sitemapHandlers.RenderSitemap, outputPath: filepath.Join(*outputDir, "sitemap.xml")},
	}

	for _, target := range targets {
		status, payload := renderPage(target.handler, target.path)
		if status < http.StatusOK || status >= http.StatusMultipleChoices {
			return fmt.Errorf("%w: %s returned %d", errRenderFailed, target.path, status)
		}
		payload = bytes.ReplaceAll(payload, []byte("\r\n"), []byte("\n"))
		if err := writeFile(target.outputPath, payload); err != nil {
			return fmt.Errorf("write %s: %w", target.outputPath, err)
		}
	}

	fmt.Fprintln(stdout, "static site generated in", *outputDir)
	return nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
