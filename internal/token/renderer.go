package token

import (
	"context"
	"strconv"
)

// Renderer turns a payload into a displayable SVG document.
type Renderer interface {
	Render(ctx context.Context, payload string) ([]byte, error)
}

// Variant names the rendering settings. Output is a pure function of the
// payload and the variant.
type Variant interface {
	Variant() string
}

// SVGRenderer renders directly without caching.
type SVGRenderer struct {
	ModuleSize int
}

func NewSVGRenderer(moduleSize int) *SVGRenderer {
	return &SVGRenderer{ModuleSize: moduleSize}
}

func (r *SVGRenderer) Render(_ context.Context, payload string) ([]byte, error) {
	img, err := Encode(payload)
	if err != nil {
		return nil, err
	}
	return img.SVG(r.ModuleSize), nil
}

func (r *SVGRenderer) Variant() string {
	return "svg-m" + strconv.Itoa(r.ModuleSize)
}
