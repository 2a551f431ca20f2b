package loader

import (
	"fmt"

	gltf "github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-assets/diag"
	"github.com/Carmen-Shannon/oxy-assets/scene"
)

// extractMaterials converts the document's material table. Texture slot
// indices are stored as declared and revalidated later against the
// resolved texture table; extraction itself never fails.
func extractMaterials(doc *gltf.Document) []scene.Material {
	materials := make([]scene.Material, 0, len(doc.Materials))

	for i, src := range doc.Materials {
		m := scene.DefaultMaterial()
		m.Name = src.Name
		if m.Name == "" {
			m.Name = fmt.Sprintf("material_%d", i)
		}

		if pbr := src.PBRMetallicRoughness; pbr != nil {
			if pbr.BaseColorFactor != nil {
				for c := 0; c < 4; c++ {
					m.BaseColorFactor[c] = float32(pbr.BaseColorFactor[c])
				}
			}
			if pbr.MetallicFactor != nil {
				m.MetallicFactor = float32(*pbr.MetallicFactor)
			}
			if pbr.RoughnessFactor != nil {
				m.RoughnessFactor = float32(*pbr.RoughnessFactor)
			}
			if pbr.BaseColorTexture != nil {
				m.BaseColor = scene.TextureSlot{
					Texture: int(pbr.BaseColorTexture.Index),
					UVSet:   int(pbr.BaseColorTexture.TexCoord),
				}
			}
			if pbr.MetallicRoughnessTexture != nil {
				m.MetallicRoughness = scene.TextureSlot{
					Texture: int(pbr.MetallicRoughnessTexture.Index),
					UVSet:   int(pbr.MetallicRoughnessTexture.TexCoord),
				}
			}
		}

		if nt := src.NormalTexture; nt != nil && nt.Index != nil {
			m.Normal = scene.TextureSlot{Texture: int(*nt.Index), UVSet: int(nt.TexCoord)}
			if nt.Scale != nil {
				m.NormalScale = float32(*nt.Scale)
			}
		}
		if ot := src.OcclusionTexture; ot != nil && ot.Index != nil {
			m.Occlusion = scene.TextureSlot{Texture: int(*ot.Index), UVSet: int(ot.TexCoord)}
			if ot.Strength != nil {
				m.OcclusionStrength = float32(*ot.Strength)
			}
		}
		if et := src.EmissiveTexture; et != nil {
			m.Emissive = scene.TextureSlot{Texture: int(et.Index), UVSet: int(et.TexCoord)}
		}

		for c := 0; c < 3; c++ {
			m.EmissiveFactor[c] = float32(src.EmissiveFactor[c])
		}
		switch src.AlphaMode {
		case gltf.AlphaMask:
			m.AlphaMode = scene.AlphaMask
		case gltf.AlphaBlend:
			m.AlphaMode = scene.AlphaBlend
		default:
			m.AlphaMode = scene.AlphaOpaque
		}
		if src.AlphaCutoff != nil {
			m.AlphaCutoff = float32(*src.AlphaCutoff)
		}
		m.DoubleSided = src.DoubleSided

		materials = append(materials, m)
	}
	return materials
}

// extractTextures builds the texture table. Payload resolution and handle
// creation are both best-effort: a texture whose bytes or handle cannot be
// produced stays in the table with a nil handle and is reported as a local
// error, never failing the load.
func extractTextures(doc *gltf.Document, baseDir string, resolver FileResolver, texLoader TextureLoader, opts LoadOptions, dc *diag.Context) []scene.Texture {
	textures := make([]scene.Texture, len(doc.Textures))

	for i, src := range doc.Textures {
		t := scene.Texture{Name: src.Name}

		if src.Source == nil || int(*src.Source) >= len(doc.Images) {
			dc.CountLocalError("texture has no image source", zap.Int("texture", i))
			textures[i] = t
			continue
		}
		img := doc.Images[int(*src.Source)]
		t.URI = img.URI
		t.MimeType = img.MimeType

		if opts.PreloadTextures {
			t.Data = resolveImagePayload(doc, img, baseDir, resolver, i, dc)
		}

		if opts.PreloadTextures && texLoader != nil && len(t.Data) > 0 {
			handle, err := texLoader.Load(i, &t)
			if err != nil {
				dc.CountLocalError("texture decode failed",
					zap.Int("texture", i), zap.Error(wrapError(KindTextureLoadFailure, err, "texture %d", i)))
			} else {
				t.Handle = handle
			}
		}
		textures[i] = t
	}
	return textures
}

// resolveImagePayload fetches an image's raw encoded bytes from whichever
// source case applies: a buffer view window, a base64 data URI, or an
// external file next to the asset.
func resolveImagePayload(doc *gltf.Document, img *gltf.Image, baseDir string, resolver FileResolver, index int, dc *diag.Context) []byte {
	switch {
	case img.BufferView != nil:
		viewIdx := int(*img.BufferView)
		if viewIdx < 0 || viewIdx >= len(doc.BufferViews) {
			dc.CountLocalError("image buffer view out of range",
				zap.Int("texture", index), zap.Int("view", viewIdx))
			return nil
		}
		data, err := modeler.ReadBufferView(doc, doc.BufferViews[viewIdx])
		if err != nil {
			dc.CountLocalError("image buffer view unreadable",
				zap.Int("texture", index), zap.Error(err))
			return nil
		}
		return data

	case img.URI != "" && len(img.URI) > 5 && img.URI[:5] == "data:":
		data, err := decodeDataURI(img.URI)
		if err != nil {
			dc.CountLocalError("image data URI unreadable",
				zap.Int("texture", index), zap.Error(err))
			return nil
		}
		return data

	case img.URI != "":
		if resolver == nil {
			dc.CountLocalError("external image with no file resolver",
				zap.Int("texture", index), zap.String("uri", img.URI))
			return nil
		}
		data, err := resolver.Resolve(baseDir, img.URI)
		if err != nil {
			dc.CountLocalError("external image load failed",
				zap.Int("texture", index), zap.String("uri", img.URI), zap.Error(err))
			return nil
		}
		return data

	default:
		dc.CountLocalError("image has no payload source", zap.Int("texture", index))
		return nil
	}
}
