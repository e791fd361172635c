// Package certificate composes participation certificates by overlaying the
// participant's name on a background template.
package certificate

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"quiz-event-service/internal/domain"
	"github.com/fogleman/gg"
)

const (
	padX        = 20
	padY        = 10
	backdropRGB = 255
	backdropA   = 200
)

// Options configures a Renderer.
type Options struct {
	Dir          string
	Template     string
	Font         string
	FallbackFont string
	FontSize     float64
}

// Renderer writes one PNG per sanitized participant name.
type Renderer struct {
	opts Options
}

func NewRenderer(opts Options) *Renderer {
	if opts.FontSize <= 0 {
		opts.FontSize = 80
	}
	return &Renderer{opts: opts}
}

// FileName derives the artifact file name for a participant. Distinct names
// that differ only in case or spacing map to the same file.
func FileName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_") + ".png"
}

// Path returns where the certificate for name is stored.
func (r *Renderer) Path(name string) string {
	return filepath.Join(r.opts.Dir, FileName(name))
}

// Render draws name onto the template and saves it, replacing any previous
// certificate stored under the same file name.
func (r *Renderer) Render(name string) (string, error) {
	path, err := r.render(name)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrCertificateRender, err)
	}
	log.Printf("certificate saved as %s", path)
	return path, nil
}

func (r *Renderer) render(name string) (string, error) {
	file := FileName(name)
	if strings.ContainsAny(file, `/\`) || !filepath.IsLocal(file) {
		return "", fmt.Errorf("name %q does not map to a file inside the certificate dir", name)
	}
	if err := os.MkdirAll(r.opts.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create certificate dir: %w", err)
	}

	background, err := gg.LoadImage(r.opts.Template)
	if err != nil {
		return "", fmt.Errorf("open template: %w", err)
	}
	dc := gg.NewContextForImage(background)

	if err := r.loadFont(dc); err != nil {
		return "", err
	}

	textW, textH := dc.MeasureString(name)
	x := (float64(dc.Width()) - textW) / 2
	y := float64(dc.Height() / 2)

	dc.SetRGBA255(backdropRGB, backdropRGB, backdropRGB, backdropA)
	dc.DrawRectangle(x-padX, y-padY, textW+2*padX, textH+2*padY)
	dc.Fill()

	dc.SetRGB(0, 0, 0)
	// ay=1 anchors the top of the text at y.
	dc.DrawStringAnchored(name, x, y, 0, 1)

	path := filepath.Join(r.opts.Dir, file)
	if err := dc.SavePNG(path); err != nil {
		return "", fmt.Errorf("save certificate: %w", err)
	}
	return path, nil
}

func (r *Renderer) loadFont(dc *gg.Context) error {
	err := dc.LoadFontFace(r.opts.Font, r.opts.FontSize)
	if err == nil {
		return nil
	}
	if r.opts.FallbackFont == "" {
		return fmt.Errorf("load font %s: %w", r.opts.Font, err)
	}
	if fallbackErr := dc.LoadFontFace(r.opts.FallbackFont, r.opts.FontSize); fallbackErr != nil {
		return fmt.Errorf("load fallback font %s: %w", r.opts.FallbackFont, fallbackErr)
	}
	return nil
}
