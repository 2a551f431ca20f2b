package loader

import (
	"encoding/base64"
	"testing"

	gltf "github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-assets/diag"
	"github.com/Carmen-Shannon/oxy-assets/scene"
)

func f32(v float32) *float32 { return &v }

func TestExtractMaterialsDefaultsAndFallbackName(t *testing.T) {
	doc := gltf.NewDocument()
	doc.Materials = []*gltf.Material{{}}

	materials := extractMaterials(doc)
	require.Len(t, materials, 1)
	m := materials[0]
	assert.Equal(t, "material_0", m.Name)
	assert.Equal(t, [4]float32{1, 1, 1, 1}, m.BaseColorFactor)
	assert.Equal(t, scene.AlphaOpaque, m.AlphaMode)
	assert.Equal(t, -1, m.BaseColor.Texture)
}

func TestExtractMaterialsAppliesPBRFactors(t *testing.T) {
	doc := gltf.NewDocument()
	doc.Materials = []*gltf.Material{{
		Name: "paint",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float32{0.5, 0.25, 0.125, 1},
			MetallicFactor:  f32(0),
			RoughnessFactor: f32(0.3),
			BaseColorTexture: &gltf.TextureInfo{
				Index:    2,
				TexCoord: 1,
			},
		},
		EmissiveFactor: [3]float32{0.1, 0.2, 0.3},
		AlphaMode:      gltf.AlphaMask,
		AlphaCutoff:    f32(0.75),
		DoubleSided:    true,
	}}

	materials := extractMaterials(doc)
	require.Len(t, materials, 1)
	m := materials[0]
	assert.Equal(t, "paint", m.Name)
	assert.InDelta(t, 0.5, float64(m.BaseColorFactor[0]), 1e-6)
	assert.InDelta(t, 0.0, float64(m.MetallicFactor), 1e-6)
	assert.InDelta(t, 0.3, float64(m.RoughnessFactor), 1e-6)
	assert.Equal(t, scene.TextureSlot{Texture: 2, UVSet: 1}, m.BaseColor)
	assert.InDelta(t, 0.2, float64(m.EmissiveFactor[1]), 1e-6)
	assert.Equal(t, scene.AlphaMask, m.AlphaMode)
	assert.InDelta(t, 0.75, float64(m.AlphaCutoff), 1e-6)
	assert.True(t, m.DoubleSided)
}

func TestExtractMaterialsAlphaBlend(t *testing.T) {
	doc := gltf.NewDocument()
	doc.Materials = []*gltf.Material{{AlphaMode: gltf.AlphaBlend}}

	materials := extractMaterials(doc)
	assert.Equal(t, scene.AlphaBlend, materials[0].AlphaMode)
}

// stubTexLoader hands back a fixed handle for every texture.
type stubTexLoader struct{ fail bool }

func (s stubTexLoader) Load(index int, t *scene.Texture) (any, error) {
	if s.fail {
		return nil, assert.AnError
	}
	return "handle", nil
}

func TestExtractTexturesPreloadsAndDecodes(t *testing.T) {
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	doc := gltf.NewDocument()
	doc.Images = []*gltf.Image{{
		URI: "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload),
	}}
	doc.Textures = []*gltf.Texture{{Name: "albedo", Source: gltf.Index(0)}}
	dc := diag.New(nil)

	textures := extractTextures(doc, "", nil, stubTexLoader{}, DefaultLoadOptions(), dc)
	require.Len(t, textures, 1)
	assert.Equal(t, "albedo", textures[0].Name)
	assert.Equal(t, payload, textures[0].Data)
	assert.Equal(t, "handle", textures[0].Handle)
	assert.Zero(t, dc.LocalErrors())
}

func TestExtractTexturesDecodeFailureIsLocal(t *testing.T) {
	doc := gltf.NewDocument()
	doc.Images = []*gltf.Image{{
		URI: "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte{1}),
	}}
	doc.Textures = []*gltf.Texture{{Source: gltf.Index(0)}}
	dc := diag.New(nil)

	textures := extractTextures(doc, "", nil, stubTexLoader{fail: true}, DefaultLoadOptions(), dc)
	require.Len(t, textures, 1)
	assert.Nil(t, textures[0].Handle)
	assert.Equal(t, 1, dc.LocalErrors())
}

func TestExtractTexturesMissingSourceIsLocal(t *testing.T) {
	doc := gltf.NewDocument()
	doc.Textures = []*gltf.Texture{{}}
	dc := diag.New(nil)

	textures := extractTextures(doc, "", nil, nil, DefaultLoadOptions(), dc)
	require.Len(t, textures, 1)
	assert.Empty(t, textures[0].Data)
	assert.Equal(t, 1, dc.LocalErrors())
}

func TestExtractTexturesPreloadDisabled(t *testing.T) {
	doc := gltf.NewDocument()
	doc.Images = []*gltf.Image{{URI: "skin.png"}}
	doc.Textures = []*gltf.Texture{{Source: gltf.Index(0)}}
	opts := DefaultLoadOptions()
	opts.PreloadTextures = false

	textures := extractTextures(doc, "", nil, stubTexLoader{}, opts, diag.New(nil))
	require.Len(t, textures, 1)
	assert.Empty(t, textures[0].Data)
	assert.Nil(t, textures[0].Handle)
	assert.Equal(t, "skin.png", textures[0].URI)
}
