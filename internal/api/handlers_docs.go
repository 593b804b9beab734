package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"golang.org/x/net/html"

	"github.com/dgallion1/pagetree/internal/doctree"
)

var runIDPattern = regexp.MustCompile(`^[0-9A-Za-z]{10,32}$`)

var imageTokenPattern = regexp.MustCompile(`\[IMAGE:\s*([^\]]+)\]`)

// handleGetStructure serves the chapter JSON produced by a completed run.
func (s *Server) handleGetStructure(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if !runIDPattern.MatchString(runID) {
		jsonError(w, "invalid run id", http.StatusBadRequest)
		return
	}

	path := filepath.Join(s.cfg.OutputDir, runID, "structure.json")
	if _, err := os.Stat(path); err != nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	http.ServeFile(w, r, path)
}

// handlePreview renders a run's chapter as HTML. The markdown rendering
// goes through goldmark, then image placeholder tokens left by the layout
// engine are rewritten into <img> tags pointing at the images endpoint.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if !runIDPattern.MatchString(runID) {
		jsonError(w, "invalid run id", http.StatusBadRequest)
		return
	}

	path := filepath.Join(s.cfg.OutputDir, runID, "structure.json")
	data, err := os.ReadFile(path)
	if err != nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	var chapter doctree.Chapter
	if err := json.Unmarshal(data, &chapter); err != nil {
		jsonError(w, "corrupt structure file: "+err.Error(), http.StatusInternalServerError)
		return
	}

	md := doctree.RenderMarkdown(&chapter)

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		jsonError(w, "render failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	rendered, err := rewriteImageTokens(buf.Bytes(), runID)
	if err != nil {
		jsonError(w, "render failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(rendered)
}

// handleGetImage serves an extracted figure image from a run's image
// directory. The name is restricted to its base component so the handler
// cannot be walked out of the directory.
func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if !runIDPattern.MatchString(runID) {
		jsonError(w, "invalid run id", http.StatusBadRequest)
		return
	}

	name := filepath.Base(chi.URLParam(r, "name"))
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		jsonError(w, "invalid image name", http.StatusBadRequest)
		return
	}

	path := filepath.Join(s.cfg.OutputDir, runID, "images", name)
	if _, err := os.Stat(path); err != nil {
		jsonError(w, "image not found", http.StatusNotFound)
		return
	}

	http.ServeFile(w, r, path)
}

// rewriteImageTokens parses rendered HTML and replaces [IMAGE: path] text
// tokens with <img> elements referencing the run's image endpoint.
func rewriteImageTokens(doc []byte, runID string) ([]byte, error) {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return nil, err
	}

	// Collect text nodes first; splicing children while walking would
	// skip siblings.
	var textNodes []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode && strings.Contains(n.Data, "[IMAGE:") {
			textNodes = append(textNodes, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	for _, n := range textNodes {
		spliceImageNodes(n, runID)
	}

	var out bytes.Buffer
	if err := html.Render(&out, root); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func spliceImageNodes(n *html.Node, runID string) {
	parent := n.Parent
	if parent == nil {
		return
	}

	text := n.Data
	last := 0
	for _, m := range imageTokenPattern.FindAllStringSubmatchIndex(text, -1) {
		if pre := text[last:m[0]]; pre != "" {
			parent.InsertBefore(&html.Node{Type: html.TextNode, Data: pre}, n)
		}
		imgName := filepath.Base(strings.TrimSpace(text[m[2]:m[3]]))
		parent.InsertBefore(&html.Node{
			Type: html.ElementNode,
			Data: "img",
			Attr: []html.Attribute{
				{Key: "src", Val: fmt.Sprintf("/api/documents/%s/images/%s", runID, imgName)},
				{Key: "alt", Val: imgName},
			},
		}, n)
		last = m[1]
	}
	if rest := text[last:]; rest != "" {
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: rest}, n)
	}
	parent.RemoveChild(n)
}
