package softengine

import (
	"bytes"
	"image/color"
	"path"
	"strings"

	"golang.org/x/net/html"
)

// maxTextRuns bounds how many text runs a document contributes to the
// raster pass.
const maxTextRuns = 64

// scriptTag is one <script> element found in a document. Inline scripts
// carry Code directly; external ones carry the unresolved Src path.
type scriptTag struct {
	Code   string
	Src    string
	Module bool
}

// document is the parsed content model of a view: just enough structure
// to rasterize a recognizable page and run its scripts.
type document struct {
	Title      string
	Background color.RGBA
	Text       []string
	Scripts    []scriptTag
}

func newBlankDocument() *document {
	return &document{Background: color.RGBA{0xff, 0xff, 0xff, 0xff}}
}

// parseDocument builds a document model from raw HTML.
func parseDocument(data []byte) (*document, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	doc := newBlankDocument()
	var inTitle, inScript bool
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "title":
				inTitle = true
				defer func() { inTitle = false }()
			case "script":
				tag := scriptTag{
					Src:    attr(n, "src"),
					Module: strings.EqualFold(attr(n, "type"), "module"),
				}
				if tag.Src == "" {
					if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
						tag.Code = n.FirstChild.Data
					}
					if strings.TrimSpace(tag.Code) == "" {
						return
					}
				}
				doc.Scripts = append(doc.Scripts, tag)
				inScript = true
				defer func() { inScript = false }()
			case "body":
				if bg, ok := parseColor(attr(n, "bgcolor")); ok {
					doc.Background = bg
				}
				if bg, ok := styleBackground(attr(n, "style")); ok {
					doc.Background = bg
				}
			case "style":
				// Stylesheets beyond the body background are not modeled.
				return
			}
		case html.TextNode:
			text := strings.TrimSpace(n.Data)
			if text == "" {
				break
			}
			if inTitle {
				if doc.Title == "" {
					doc.Title = text
				}
				break
			}
			if !inScript && len(doc.Text) < maxTextRuns {
				doc.Text = append(doc.Text, text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return doc, nil
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}

// styleBackground extracts a background color from an inline style
// attribute. Only the background and background-color properties are
// recognized.
func styleBackground(style string) (color.RGBA, bool) {
	for _, decl := range strings.Split(style, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		k = strings.TrimSpace(strings.ToLower(k))
		if k != "background" && k != "background-color" {
			continue
		}
		if c, ok := parseColor(strings.TrimSpace(v)); ok {
			return c, true
		}
	}
	return color.RGBA{}, false
}

// namedColors covers the handful of CSS color keywords pages actually use
// for full-page backgrounds.
var namedColors = map[string]color.RGBA{
	"white":       {0xff, 0xff, 0xff, 0xff},
	"black":       {0x00, 0x00, 0x00, 0xff},
	"red":         {0xff, 0x00, 0x00, 0xff},
	"green":       {0x00, 0x80, 0x00, 0xff},
	"blue":        {0x00, 0x00, 0xff, 0xff},
	"gray":        {0x80, 0x80, 0x80, 0xff},
	"grey":        {0x80, 0x80, 0x80, 0xff},
	"silver":      {0xc0, 0xc0, 0xc0, 0xff},
	"yellow":      {0xff, 0xff, 0x00, 0xff},
	"transparent": {0x00, 0x00, 0x00, 0x00},
}

// parseColor understands #rgb, #rrggbb and a few named colors.
func parseColor(s string) (color.RGBA, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return color.RGBA{}, false
	}
	if c, ok := namedColors[s]; ok {
		return c, true
	}
	if !strings.HasPrefix(s, "#") {
		return color.RGBA{}, false
	}
	hex := s[1:]
	switch len(hex) {
	case 3:
		r, ok1 := hexNibble(hex[0])
		g, ok2 := hexNibble(hex[1])
		b, ok3 := hexNibble(hex[2])
		if !ok1 || !ok2 || !ok3 {
			return color.RGBA{}, false
		}
		return color.RGBA{r * 17, g * 17, b * 17, 0xff}, true
	case 6:
		var v [3]byte
		for i := 0; i < 3; i++ {
			hi, ok1 := hexNibble(hex[2*i])
			lo, ok2 := hexNibble(hex[2*i+1])
			if !ok1 || !ok2 {
				return color.RGBA{}, false
			}
			v[i] = hi<<4 | lo
		}
		return color.RGBA{v[0], v[1], v[2], 0xff}, true
	}
	return color.RGBA{}, false
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}

// resolveSrc resolves a script src relative to the directory of the
// document's origin path (a normalized virtual path or file URL).
func resolveSrc(origin, src string) string {
	src = strings.ReplaceAll(src, "\\", "/")
	if strings.HasPrefix(src, "/") || strings.Contains(src, "://") {
		return src
	}
	dir := path.Dir(strings.TrimPrefix(origin, "file://"))
	if dir == "." || dir == "/" {
		return src
	}
	return path.Join(dir, src)
}
