// Package preview renders shell layers to PNG and plots remeshing
// diagnostics.
package preview

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"github.com/soypat/prism/render"
	"gonum.org/v1/gonum/spatial/r3"
)

// View places the camera of a preview render. The model is first fit in
// a bi-unit cube centered at the origin.
type View struct {
	Eye, LookAt, Up r3.Vec
	Near, Far       float64
	// Width and Height of the output image in pixels.
	Width, Height int
	// Supersampling factor before downsampling for antialiasing.
	Scale int
}

// DefaultView looks at the model from above and to the side.
func DefaultView() View {
	return View{
		Eye:    r3.Vec{X: 2, Y: -3, Z: 3},
		Up:     r3.Vec{Z: 1},
		Near:   1,
		Far:    20,
		Width:  960,
		Height: 540,
		Scale:  2,
	}
}

// STLToPNG renders the STL file at stlName with Phong shading and saves
// the image as PNG to outputName.
func STLToPNG(stlName, outputName string, view View) error {
	mesh, err := fauxgl.LoadSTL(stlName)
	if err != nil {
		return err
	}
	if view.Width <= 0 || view.Height <= 0 {
		return fmt.Errorf("invalid image size %dx%d", view.Width, view.Height)
	}
	if view.Scale < 1 {
		view.Scale = 1
	}
	const fovy = 30 // vertical field of view in degrees
	var (
		eye    = fauxgl.V(view.Eye.X, view.Eye.Y, view.Eye.Z)          // camera position
		center = fauxgl.V(view.LookAt.X, view.LookAt.Y, view.LookAt.Z) // view center position
		up     = fauxgl.V(view.Up.X, view.Up.Y, view.Up.Z)             // up vector
		light  = fauxgl.V(-0.75, 1, 0.25).Normalize()                  // light direction
		color  = fauxgl.HexColor("#468966")                            // object color
	)
	// fit mesh in a bi-unit cube centered at the origin
	mesh.BiUnitCube()
	context := fauxgl.NewContext(view.Width*view.Scale, view.Height*view.Scale)
	context.ClearColorBufferWith(fauxgl.HexColor("#FFF8E3"))
	aspect := float64(view.Width) / float64(view.Height)
	matrix := fauxgl.LookAt(eye, center, up).Perspective(fovy, aspect, view.Near, view.Far)
	shader := fauxgl.NewPhongShader(matrix, light, eye)
	shader.ObjectColor = color
	context.Shader = shader
	context.DrawMesh(mesh)
	// downsample image for antialiasing
	image := context.Image()
	image = resize.Resize(uint(view.Width), uint(view.Height), image, resize.Bilinear)
	return fauxgl.SavePNG(outputName, image)
}

// LayerToPNG renders the triangles F over vertices V to a PNG file.
func LayerToPNG(V []r3.Vec, F [][3]int, outputName string, view View) error {
	dir, err := os.MkdirTemp("", "prism-preview")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)
	stl := filepath.Join(dir, "layer.stl")
	if err := render.CreateSTL(stl, render.NewMeshRenderer(V, F)); err != nil {
		return err
	}
	return STLToPNG(stl, outputName, view)
}
