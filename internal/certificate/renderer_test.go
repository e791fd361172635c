package certificate

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"quiz-event-service/internal/domain"
	"golang.org/x/image/font/gofont/gobold"
)

func TestFileName(t *testing.T) {
	cases := map[string]string{
		"Jane Doe":       "jane_doe.png",
		"jane doe":       "jane_doe.png",
		"JANE  DOE":      "jane__doe.png",
		"Ada":            "ada.png",
		"Mary Ann Smith": "mary_ann_smith.png",
	}
	for in, want := range cases {
		if got := FileName(in); got != want {
			t.Fatalf("FileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderWritesPNG(t *testing.T) {
	r := newTestRenderer(t, t.TempDir())

	path, err := r.Render("Jane Doe")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if filepath.Base(path) != "jane_doe.png" {
		t.Fatalf("unexpected path %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 800 || img.Bounds().Dy() != 400 {
		t.Fatalf("expected template dimensions, got %v", img.Bounds())
	}

	// The backdrop sits behind the text starting at half height.
	var dark bool
	for x := 0; x < 800 && !dark; x++ {
		for y := 200; y < 300; y++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r < 0x4000 && g < 0x4000 && b < 0x4000 {
				dark = true
				break
			}
		}
	}
	if !dark {
		t.Fatalf("expected black text pixels in the lower half")
	}
}

func TestRenderCreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "certs")
	r := newTestRenderer(t, dir)

	if _, err := r.Render("Ada"); err != nil {
		t.Fatalf("render: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "ada.png")); err != nil {
		t.Fatalf("expected artifact: %v", err)
	}
}

func TestRenderCollidingNamesOverwrite(t *testing.T) {
	dir := t.TempDir()
	r := newTestRenderer(t, dir)

	first, err := r.Render("Jane Doe")
	if err != nil {
		t.Fatalf("render first: %v", err)
	}
	firstBytes := readFile(t, first)

	second, err := r.Render("jane doe")
	if err != nil {
		t.Fatalf("render second: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical paths, got %s and %s", first, second)
	}

	// Reference render of the second name in isolation.
	reference, err := newTestRenderer(t, t.TempDir()).Render("jane doe")
	if err != nil {
		t.Fatalf("render reference: %v", err)
	}
	got := readFile(t, second)
	if !bytes.Equal(got, readFile(t, reference)) {
		t.Fatalf("expected artifact to reflect only the latest render")
	}
	if bytes.Equal(got, firstBytes) {
		t.Fatalf("expected first render to be replaced")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected a single artifact, got %d", len(entries))
	}
}

func TestRenderSameNameReplaces(t *testing.T) {
	dir := t.TempDir()
	r := newTestRenderer(t, dir)

	path, err := r.Render("Ada")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if err := os.WriteFile(path, []byte("stale"), 0o644); err != nil {
		t.Fatalf("corrupt artifact: %v", err)
	}
	if _, err := r.Render("Ada"); err != nil {
		t.Fatalf("re-render: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	if _, err := png.Decode(f); err != nil {
		t.Fatalf("expected a fresh png, got decode error %v", err)
	}
}

func TestRenderFallsBackToSecondFont(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions(t, dir)
	opts.FallbackFont = opts.Font
	opts.Font = filepath.Join(dir, "missing.ttf")

	if _, err := NewRenderer(opts).Render("Ada"); err != nil {
		t.Fatalf("expected fallback font to be used, got %v", err)
	}
}

func TestRenderFailuresAreWrapped(t *testing.T) {
	dir := t.TempDir()

	opts := testOptions(t, dir)
	opts.Template = filepath.Join(dir, "no-template.png")
	_, err := NewRenderer(opts).Render("Ada")
	if !errors.Is(err, domain.ErrCertificateRender) {
		t.Fatalf("expected render error for missing template, got %v", err)
	}

	opts = testOptions(t, dir)
	opts.Font = filepath.Join(dir, "missing.ttf")
	opts.FallbackFont = filepath.Join(dir, "also-missing.ttf")
	_, err = NewRenderer(opts).Render("Ada")
	if !errors.Is(err, domain.ErrCertificateRender) {
		t.Fatalf("expected render error for missing fonts, got %v", err)
	}
}

func TestRenderRejectsNamesLeavingDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "certificates")
	r := newTestRenderer(t, dir)

	for _, name := range []string{"../escaped", "a/b", `a\b`} {
		if _, err := r.Render(name); !errors.Is(err, domain.ErrCertificateRender) {
			t.Fatalf("Render(%q): expected render error, got %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "escaped.png")); !os.IsNotExist(err) {
		t.Fatalf("expected no artifact outside %s, stat err %v", dir, err)
	}
	if entries, err := os.ReadDir(dir); err == nil && len(entries) != 0 {
		t.Fatalf("expected no artifacts, got %d", len(entries))
	}

	// Dots alone stay inside the directory.
	path, err := r.Render("J. R. R. Tolkien")
	if err != nil {
		t.Fatalf("render dotted name: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("expected artifact in %s, got %s", dir, path)
	}
}

func newTestRenderer(t *testing.T, dir string) *Renderer {
	t.Helper()
	return NewRenderer(testOptions(t, dir))
}

func testOptions(t *testing.T, dir string) Options {
	t.Helper()
	assets := t.TempDir()

	fontPath := filepath.Join(assets, "gobold.ttf")
	if err := os.WriteFile(fontPath, gobold.TTF, 0o644); err != nil {
		t.Fatalf("write font: %v", err)
	}

	tmpl := image.NewRGBA(image.Rect(0, 0, 800, 400))
	for x := 0; x < 800; x++ {
		for y := 0; y < 400; y++ {
			tmpl.Set(x, y, color.RGBA{R: 30, G: 90, B: 160, A: 255})
		}
	}
	templatePath := filepath.Join(assets, "base_certificate.png")
	f, err := os.Create(templatePath)
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	if err := png.Encode(f, tmpl); err != nil {
		t.Fatalf("encode template: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close template: %v", err)
	}

	return Options{
		Dir:      dir,
		Template: templatePath,
		Font:     fontPath,
		FontSize: 80,
	}
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return data
}
