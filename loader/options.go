package loader

// LoadOptions tunes the asset pipeline. The zero value is not useful; start
// from DefaultLoadOptions.
type LoadOptions struct {
	// ValidateOnLoad runs the post-process validator before a scene is
	// published.
	ValidateOnLoad bool `yaml:"validate_on_load"`

	// GenerateMissingNormals computes area-weighted vertex normals for
	// primitives that declare none.
	GenerateMissingNormals bool `yaml:"generate_missing_normals"`

	// GenerateMissingTangents computes UV-gradient tangents for primitives
	// that declare none but have normals and a UV channel.
	GenerateMissingTangents bool `yaml:"generate_missing_tangents"`

	// OptimizeMeshes deduplicates identical vertices after extraction.
	OptimizeMeshes bool `yaml:"optimize_meshes"`

	// PreloadTextures resolves and decodes texture payloads during load.
	PreloadTextures bool `yaml:"preload_textures"`

	// MaxBoneInfluences caps the skinning influences kept per vertex, at
	// most 4. Weights beyond the cap are zeroed and the rest renormalized.
	MaxBoneInfluences int `yaml:"max_bone_influences"`

	// AnimationTolerance is the minimum spacing between keyframe times
	// treated as distinct during sampling.
	AnimationTolerance float32 `yaml:"animation_tolerance"`

	// MaxVertexCount caps vertices per primitive.
	MaxVertexCount int `yaml:"max_vertex_count"`

	// MaxTriangleCount caps triangles per primitive.
	MaxTriangleCount int `yaml:"max_triangle_count"`

	// MaxTextureSize caps texture width and height; larger images are
	// downscaled by the texture collaborator.
	MaxTextureSize int `yaml:"max_texture_size"`

	// MaxMemoryBytes caps the measured footprint of a loaded scene.
	MaxMemoryBytes uint64 `yaml:"max_memory_bytes"`
}

// DefaultLoadOptions returns the standard pipeline settings.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		ValidateOnLoad:          true,
		GenerateMissingNormals:  true,
		GenerateMissingTangents: true,
		OptimizeMeshes:          false,
		PreloadTextures:         true,
		MaxBoneInfluences:       4,
		AnimationTolerance:      0.001,
		MaxVertexCount:          1_000_000,
		MaxTriangleCount:        2_000_000,
		MaxTextureSize:          4096,
		MaxMemoryBytes:          256 << 20,
	}
}

// sanitize clamps option values into their legal ranges.
func (o *LoadOptions) sanitize() {
	if o.MaxBoneInfluences < 0 {
		o.MaxBoneInfluences = 0
	}
	if o.MaxBoneInfluences > 4 {
		o.MaxBoneInfluences = 4
	}
	if o.AnimationTolerance <= 0 {
		o.AnimationTolerance = 0.001
	}
}
