package loader

import (
	"fmt"

	"github.com/chewxy/math32"
	gltf "github.com/qmuntal/gltf"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-assets/diag"
	"github.com/Carmen-Shannon/oxy-assets/scene"
)

// extractMeshes pulls every mesh primitive through the accessor resolver
// into the uniform vertex record. The position attribute is mandatory per
// primitive; a primitive without one (or with an unreadable one) is
// skipped with a reported local error while its siblings still process.
// Optional attributes degrade independently to their vertex defaults.
// Resource caps are fatal.
func extractMeshes(doc *gltf.Document, r *accessorResolver, opts LoadOptions, dc *diag.Context) ([]scene.Mesh, *Error) {
	var meshes []scene.Mesh

	for mi, src := range doc.Meshes {
		name := src.Name
		if name == "" {
			name = fmt.Sprintf("mesh_%d", mi)
		}

		for pi, prim := range src.Primitives {
			mesh, err := extractPrimitive(doc, r, prim, opts)
			if err != nil {
				if err.Kind == KindResourceLimit {
					return nil, err
				}
				dc.CountLocalError("primitive skipped",
					zap.Int("mesh", mi), zap.Int("primitive", pi), zap.Error(err))
				continue
			}

			mesh.Name = name
			if len(src.Primitives) > 1 {
				mesh.Name = fmt.Sprintf("%s_prim%d", name, pi)
			}
			if opts.OptimizeMeshes {
				optimizeMesh(&mesh)
			}
			meshes = append(meshes, mesh)
		}
	}
	return meshes, nil
}

// extractPrimitive resolves one primitive into a mesh.
func extractPrimitive(doc *gltf.Document, r *accessorResolver, prim *gltf.Primitive, opts LoadOptions) (scene.Mesh, *Error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return scene.Mesh{}, newError(KindMissingRequiredData, "primitive has no position attribute")
	}
	positions, ok := r.readVec3(int(posIdx))
	if !ok {
		return scene.Mesh{}, newError(KindCorruptedBuffer, "position attribute unreadable")
	}
	vertexCount := len(positions)

	if opts.MaxVertexCount > 0 && vertexCount > opts.MaxVertexCount {
		return scene.Mesh{}, newError(KindResourceLimit, "primitive has %d vertices, cap is %d", vertexCount, opts.MaxVertexCount)
	}

	mesh := scene.Mesh{
		MaterialIndex: -1,
		Vertices:      make([]scene.Vertex, vertexCount),
	}
	if prim.Material != nil {
		mesh.MaterialIndex = int(*prim.Material)
	}

	for i := range mesh.Vertices {
		mesh.Vertices[i].Position = positions[i]
		mesh.Vertices[i].Color = [4]float32{1, 1, 1, 1}
	}

	// Optional attributes are independently best-effort: a failed or
	// count-mismatched read leaves the vertex default in place.
	hasNormals := false
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if normals, ok := r.readVec3(int(idx)); ok && len(normals) == vertexCount {
			for i := range mesh.Vertices {
				mesh.Vertices[i].Normal = normals[i]
			}
			hasNormals = true
		}
	}

	hasTangents := false
	if idx, ok := prim.Attributes[gltf.TANGENT]; ok {
		if tangents, ok := r.readVec4(int(idx)); ok && len(tangents) == vertexCount {
			for i := range mesh.Vertices {
				mesh.Vertices[i].Tangent = tangents[i]
			}
			hasTangents = true
		}
	}

	hasUV0 := false
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if uvs, ok := r.readVec2(int(idx)); ok && len(uvs) == vertexCount {
			for i := range mesh.Vertices {
				mesh.Vertices[i].TexCoord0 = uvs[i]
			}
			hasUV0 = true
		}
	}

	if idx, ok := prim.Attributes[gltf.TEXCOORD_1]; ok {
		if uvs, ok := r.readVec2(int(idx)); ok && len(uvs) == vertexCount {
			for i := range mesh.Vertices {
				mesh.Vertices[i].TexCoord1 = uvs[i]
			}
		}
	}

	if idx, ok := prim.Attributes[gltf.COLOR_0]; ok {
		if colors, ok := r.readColors(int(idx)); ok && len(colors) == vertexCount {
			for i := range mesh.Vertices {
				mesh.Vertices[i].Color = colors[i]
			}
		}
	}

	// Joints and weights are only honored as a pair.
	jointIdx, hasJoints := prim.Attributes[gltf.JOINTS_0]
	weightIdx, hasWeights := prim.Attributes[gltf.WEIGHTS_0]
	if hasJoints && hasWeights {
		joints, jok := r.readJoints(int(jointIdx))
		weights, wok := r.readWeights(int(weightIdx))
		if jok && wok && len(joints) == vertexCount && len(weights) == vertexCount {
			for i := range mesh.Vertices {
				mesh.Vertices[i].Joints = joints[i]
				mesh.Vertices[i].Weights = clampInfluences(weights[i], opts.MaxBoneInfluences)
			}
			mesh.HasSkin = true
		}
	}

	// An explicit index accessor is widened to 32 bits; without one, a
	// trivial identity index list is synthesized so downstream always has
	// an index buffer.
	if prim.Indices != nil {
		indices, ok := r.readIndices(int(*prim.Indices))
		if !ok {
			return scene.Mesh{}, newError(KindCorruptedBuffer, "index accessor unreadable")
		}
		mesh.Indices = indices
	} else {
		mesh.Indices = make([]uint32, vertexCount)
		for i := range mesh.Indices {
			mesh.Indices[i] = uint32(i)
		}
	}

	if opts.MaxTriangleCount > 0 && len(mesh.Indices)/3 > opts.MaxTriangleCount {
		return scene.Mesh{}, newError(KindResourceLimit, "primitive has %d triangles, cap is %d",
			len(mesh.Indices)/3, opts.MaxTriangleCount)
	}

	if !hasNormals && opts.GenerateMissingNormals {
		generateNormals(mesh.Vertices, mesh.Indices)
		hasNormals = true
	}
	if !hasTangents && opts.GenerateMissingTangents && hasNormals && hasUV0 {
		generateTangents(mesh.Vertices, mesh.Indices)
	}

	mesh.BoundingMin, mesh.BoundingMax = calculateBoundingBox(mesh.Vertices)
	return mesh, nil
}

// clampInfluences zeroes weights beyond the configured influence cap and
// renormalizes the remainder.
func clampInfluences(w [4]float32, maxInfluences int) [4]float32 {
	if maxInfluences >= 4 || maxInfluences < 0 {
		return w
	}
	var sum float32
	for i := 0; i < 4; i++ {
		if i >= maxInfluences {
			w[i] = 0
		}
		sum += w[i]
	}
	if sum > 0 {
		for i := 0; i < maxInfluences; i++ {
			w[i] /= sum
		}
	}
	return w
}

// generateNormals computes per-vertex normals by accumulating each face's
// cross product (area weighted) and normalizing the result.
func generateNormals(vertices []scene.Vertex, indices []uint32) {
	for i := range vertices {
		vertices[i].Normal = [3]float32{}
	}

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		if int(i0) >= len(vertices) || int(i1) >= len(vertices) || int(i2) >= len(vertices) {
			continue
		}
		p0 := vertices[i0].Position
		p1 := vertices[i1].Position
		p2 := vertices[i2].Position

		e1 := [3]float32{p1[0] - p0[0], p1[1] - p0[1], p1[2] - p0[2]}
		e2 := [3]float32{p2[0] - p0[0], p2[1] - p0[1], p2[2] - p0[2]}

		// Unnormalized cross product keeps the area weighting.
		n := [3]float32{
			e1[1]*e2[2] - e1[2]*e2[1],
			e1[2]*e2[0] - e1[0]*e2[2],
			e1[0]*e2[1] - e1[1]*e2[0],
		}
		for _, vi := range []uint32{i0, i1, i2} {
			vertices[vi].Normal[0] += n[0]
			vertices[vi].Normal[1] += n[1]
			vertices[vi].Normal[2] += n[2]
		}
	}

	for i := range vertices {
		n := vertices[i].Normal
		length := math32.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
		if length > 1e-6 {
			vertices[i].Normal = [3]float32{n[0] / length, n[1] / length, n[2] / length}
		} else {
			vertices[i].Normal = [3]float32{0, 1, 0}
		}
	}
}

// generateTangents derives tangents from the UV gradient of each triangle,
// then Gram-Schmidt orthogonalizes against the normal. The w component
// records the bitangent handedness.
func generateTangents(vertices []scene.Vertex, indices []uint32) {
	tan1 := make([][3]float32, len(vertices))
	tan2 := make([][3]float32, len(vertices))

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		if int(i0) >= len(vertices) || int(i1) >= len(vertices) || int(i2) >= len(vertices) {
			continue
		}
		v0, v1, v2 := &vertices[i0], &vertices[i1], &vertices[i2]

		x1 := v1.Position[0] - v0.Position[0]
		y1 := v1.Position[1] - v0.Position[1]
		z1 := v1.Position[2] - v0.Position[2]
		x2 := v2.Position[0] - v0.Position[0]
		y2 := v2.Position[1] - v0.Position[1]
		z2 := v2.Position[2] - v0.Position[2]

		s1 := v1.TexCoord0[0] - v0.TexCoord0[0]
		t1 := v1.TexCoord0[1] - v0.TexCoord0[1]
		s2 := v2.TexCoord0[0] - v0.TexCoord0[0]
		t2 := v2.TexCoord0[1] - v0.TexCoord0[1]

		det := s1*t2 - s2*t1
		if math32.Abs(det) < 1e-8 {
			continue
		}
		f := 1 / det

		sdir := [3]float32{f * (t2*x1 - t1*x2), f * (t2*y1 - t1*y2), f * (t2*z1 - t1*z2)}
		tdir := [3]float32{f * (s1*x2 - s2*x1), f * (s1*y2 - s2*y1), f * (s1*z2 - s2*z1)}

		for _, vi := range []uint32{i0, i1, i2} {
			for c := 0; c < 3; c++ {
				tan1[vi][c] += sdir[c]
				tan2[vi][c] += tdir[c]
			}
		}
	}

	for i := range vertices {
		n := vertices[i].Normal
		t := tan1[i]

		ndott := n[0]*t[0] + n[1]*t[1] + n[2]*t[2]
		tx := t[0] - n[0]*ndott
		ty := t[1] - n[1]*ndott
		tz := t[2] - n[2]*ndott

		length := math32.Sqrt(tx*tx + ty*ty + tz*tz)
		if length < 1e-6 {
			vertices[i].Tangent = [4]float32{1, 0, 0, 1}
			continue
		}
		tx, ty, tz = tx/length, ty/length, tz/length

		// Handedness from the sign of ((n x t) . tan2).
		cx := n[1]*tz - n[2]*ty
		cy := n[2]*tx - n[0]*tz
		cz := n[0]*ty - n[1]*tx
		w := float32(1)
		if cx*tan2[i][0]+cy*tan2[i][1]+cz*tan2[i][2] < 0 {
			w = -1
		}
		vertices[i].Tangent = [4]float32{tx, ty, tz, w}
	}
}

// calculateBoundingBox returns the axis-aligned extents of the vertices.
func calculateBoundingBox(vertices []scene.Vertex) ([3]float32, [3]float32) {
	if len(vertices) == 0 {
		return [3]float32{}, [3]float32{}
	}
	minV := vertices[0].Position
	maxV := vertices[0].Position
	for i := 1; i < len(vertices); i++ {
		p := vertices[i].Position
		for c := 0; c < 3; c++ {
			if p[c] < minV[c] {
				minV[c] = p[c]
			}
			if p[c] > maxV[c] {
				maxV[c] = p[c]
			}
		}
	}
	return minV, maxV
}

// optimizeMesh collapses identical vertex records and remaps the index
// buffer accordingly.
func optimizeMesh(mesh *scene.Mesh) {
	seen := make(map[scene.Vertex]uint32, len(mesh.Vertices))
	remap := make([]uint32, len(mesh.Vertices))
	unique := make([]scene.Vertex, 0, len(mesh.Vertices))

	for i, v := range mesh.Vertices {
		if idx, ok := seen[v]; ok {
			remap[i] = idx
			continue
		}
		idx := uint32(len(unique))
		seen[v] = idx
		unique = append(unique, v)
		remap[i] = idx
	}
	if len(unique) == len(mesh.Vertices) {
		return
	}

	for i, idx := range mesh.Indices {
		if int(idx) < len(remap) {
			mesh.Indices[i] = remap[idx]
		}
	}
	mesh.Vertices = unique
}
