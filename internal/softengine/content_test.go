package softengine

import (
	"image/color"
	"testing"
)

func TestParseDocumentBasics(t *testing.T) {
	doc, err := parseDocument([]byte(`<html>
		<head><title>Hello</title></head>
		<body bgcolor="#102030">
			<p>first run</p>
			<p>second run</p>
			<script>var x = 1;</script>
			<script src="app.js"></script>
			<script type="module">import './dep.js';</script>
		</body>
	</html>`))
	if err != nil {
		t.Fatalf("parseDocument: %v", err)
	}
	if doc.Title != "Hello" {
		t.Errorf("title = %q, want %q", doc.Title, "Hello")
	}
	want := color.RGBA{0x10, 0x20, 0x30, 0xff}
	if doc.Background != want {
		t.Errorf("background = %v, want %v", doc.Background, want)
	}
	if len(doc.Text) != 2 || doc.Text[0] != "first run" || doc.Text[1] != "second run" {
		t.Errorf("text runs = %q", doc.Text)
	}
	if len(doc.Scripts) != 3 {
		t.Fatalf("scripts = %d, want 3", len(doc.Scripts))
	}
	if doc.Scripts[0].Code != "var x = 1;" || doc.Scripts[0].Src != "" {
		t.Errorf("inline script = %+v", doc.Scripts[0])
	}
	if doc.Scripts[1].Src != "app.js" {
		t.Errorf("external script src = %q", doc.Scripts[1].Src)
	}
	if !doc.Scripts[2].Module {
		t.Errorf("module script not flagged")
	}
}

func TestParseDocumentScriptTextExcluded(t *testing.T) {
	doc, err := parseDocument([]byte(`<body><script>var hidden = 'text';</script><p>visible</p></body>`))
	if err != nil {
		t.Fatalf("parseDocument: %v", err)
	}
	if len(doc.Text) != 1 || doc.Text[0] != "visible" {
		t.Errorf("text runs = %q, want only %q", doc.Text, "visible")
	}
}

func TestParseDocumentStyleBackground(t *testing.T) {
	doc, err := parseDocument([]byte(`<body style="margin: 0; background-color: red"></body>`))
	if err != nil {
		t.Fatalf("parseDocument: %v", err)
	}
	if (doc.Background != color.RGBA{0xff, 0x00, 0x00, 0xff}) {
		t.Errorf("background = %v, want red", doc.Background)
	}
}

func TestParseColor(t *testing.T) {
	cases := []struct {
		in   string
		want color.RGBA
		ok   bool
	}{
		{"#fff", color.RGBA{0xff, 0xff, 0xff, 0xff}, true},
		{"#A1B2C3", color.RGBA{0xa1, 0xb2, 0xc3, 0xff}, true},
		{"black", color.RGBA{0x00, 0x00, 0x00, 0xff}, true},
		{" Blue ", color.RGBA{0x00, 0x00, 0xff, 0xff}, true},
		{"#12345", color.RGBA{}, false},
		{"#ggg", color.RGBA{}, false},
		{"chartreuse", color.RGBA{}, false},
		{"", color.RGBA{}, false},
	}
	for _, tc := range cases {
		got, ok := parseColor(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("parseColor(%q) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestResolveSrc(t *testing.T) {
	cases := []struct {
		origin, src, want string
	}{
		{"app/index.html", "main.js", "app/main.js"},
		{"app/index.html", "lib/util.js", "app/lib/util.js"},
		{"index.html", "main.js", "main.js"},
		{"app/index.html", "/abs.js", "/abs.js"},
		{"file://pages/home.html", "home.js", "pages/home.js"},
	}
	for _, tc := range cases {
		if got := resolveSrc(tc.origin, tc.src); got != tc.want {
			t.Errorf("resolveSrc(%q, %q) = %q, want %q", tc.origin, tc.src, got, tc.want)
		}
	}
}

func TestContrastColor(t *testing.T) {
	if c := contrastColor(color.RGBA{0xff, 0xff, 0xff, 0xff}); c.R != 0 {
		t.Errorf("white background should get black text, got %v", c)
	}
	if c := contrastColor(color.RGBA{0x00, 0x00, 0x00, 0xff}); c.R != 0xff {
		t.Errorf("black background should get white text, got %v", c)
	}
}
