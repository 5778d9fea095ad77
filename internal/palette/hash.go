package palette

import (
	"context"
	"hash/fnv"

	"github.com/huangsam/racebar/schema"
	"github.com/lucasb-eyer/go-colorful"
)

// HashSource derives a stable gradient from the entity id alone.
// The hue comes from the id hash; the second stop is a lighter tint of the first.
type HashSource struct {
	Chroma    float64
	Lightness float64
}

// DefaultHashSource returns the gradient settings used by the CLI.
func DefaultHashSource() HashSource {
	return HashSource{Chroma: 0.55, Lightness: 0.55}
}

// Colors implements Source.
func (s HashSource) Colors(ctx context.Context, entityID string) (schema.ColorPair, error) {
	if err := ctx.Err(); err != nil {
		return schema.ColorPair{}, err
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(entityID))
	hue := float64(h.Sum32() % 360)

	start := colorful.Hcl(hue, s.Chroma, s.Lightness).Clamped()
	end := colorful.Hcl(hue, s.Chroma*0.7, min(s.Lightness+0.2, 1)).Clamped()
	return schema.ColorPair{start.Hex(), end.Hex()}, nil
}
