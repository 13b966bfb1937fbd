package report

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// markdownOnce initializes the converter a single time; the parser
// configuration never changes and goldmark is safe to share.
var (
	markdown     goldmark.Markdown
	markdownOnce sync.Once
)

func getMarkdown() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdown = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		)
	})
	return markdown
}

const htmlHeader = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family:-apple-system,Segoe UI,Helvetica,Arial,sans-serif;color:#1a1a2e;max-width:720px;margin:0 auto;padding:1em">
`

const htmlFooter = `</body>
</html>
`

// HTML converts a markdown report into a standalone HTML document
// suitable as an email body.
func HTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := getMarkdown().Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("convert report to html: %w", err)
	}
	return htmlHeader + buf.String() + htmlFooter, nil
}
