// SPDX-License-Identifier: Unlicense OR MIT

package render

// The quad covering normalized device space, drawn as two triangles.
var (
	quadPositions = []float32{
		-1, +1,
		+1, +1,
		-1, -1,
		+1, -1,
	}
	// Texture coordinates are flipped vertically with respect to the
	// positions: frame sources have their origin at the top.
	quadTexCoords = []float32{
		0, 1,
		1, 1,
		0, 0,
		1, 0,
	}
	quadIndices = []uint16{0, 1, 2, 1, 3, 2}
)

const (
	// Bytes per vertex for both attributes: two float32 components.
	quadStride = 2 * 4
	// The texture coordinates follow the positions in the vertex buffer.
	texCoordOffset = 4 * quadStride
)

// quadVertices returns the positions followed by the texture
// coordinates, the layout of the vertex buffer.
func quadVertices() []float32 {
	v := make([]float32, 0, len(quadPositions)+len(quadTexCoords))
	v = append(v, quadPositions...)
	return append(v, quadTexCoords...)
}
