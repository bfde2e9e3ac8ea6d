package math

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float32
}

// Vec4 represents a 4D vector
type Vec4 struct {
	X, Y, Z, W float32
}

// Mat4 is a 4x4 matrix stored column by column, the layout shaders read uniform matrices in.
// Translation lives in Data[12], Data[13] and Data[14].
type Mat4 struct {
	Data [16]float32
}
