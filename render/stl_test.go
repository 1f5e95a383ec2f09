package render_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/soypat/prism"
	"github.com/soypat/prism/internal/shelltest"
	"github.com/soypat/prism/render"
	"gonum.org/v1/gonum/spatial/r3"
)

// readAll drains r in batches of n triangles, keeping the triangles
// returned together with io.EOF.
func readAll(t *testing.T, r render.Renderer, n int) []render.Triangle3 {
	t.Helper()
	var model []render.Triangle3
	buf := make([]render.Triangle3, n)
	for {
		nt, err := r.ReadTriangles(buf)
		model = append(model, buf[:nt]...)
		if err == io.EOF {
			return model
		}
		if err != nil {
			t.Fatal(err)
		}
	}
}

func TestSTLCreateWriteRead(t *testing.T) {
	V, F := shelltest.Grid(4, 0.5)
	path := filepath.Join(t.TempDir(), "grid.stl")
	err := render.CreateSTL(path, render.NewMeshRenderer(V, F))
	if err != nil {
		t.Fatal(err)
	}
	bfile, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	model := readAll(t, render.NewMeshRenderer(V, F), 7)
	if len(model) != len(F) {
		t.Fatalf("renderer streamed %d triangles, want %d", len(model), len(F))
	}
	var b bytes.Buffer
	err = render.WriteSTL(&b, model)
	if err != nil {
		t.Fatal(err)
	}
	if b.Len() != 84+50*len(F) {
		t.Fatalf("unexpected STL size %d", b.Len())
	}
	if !bytes.Equal(b.Bytes(), bfile) {
		t.Fatal("WriteSTL and CreateSTL output mismatch")
	}
	got, err := render.LoadSTL(path)
	if err != nil {
		t.Fatal(err)
	}
	for i := range model {
		if got[i] != model[i] {
			t.Errorf("triangle %d: got %v, want %v", i, got[i], model[i])
		}
	}
}

func TestCreateSTLLarge(t *testing.T) {
	// More triangles than fit in one read buffer.
	V, F := shelltest.Grid(40, 0.1)
	path := filepath.Join(t.TempDir(), "large.stl")
	if err := render.CreateSTL(path, render.NewMeshRenderer(V, F)); err != nil {
		t.Fatal(err)
	}
	got, err := render.LoadSTL(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(F) {
		t.Fatalf("read %d triangles, want %d", len(got), len(F))
	}
	want := render.Soup(V, F)
	for i := range want {
		for j := range want[i] {
			if r3.Norm(r3.Sub(got[i][j], want[i][j])) > 1e-6 {
				t.Fatalf("triangle %d corner %d: got %v, want %v", i, j, got[i][j], want[i][j])
			}
		}
	}
}

func TestSTLEmpty(t *testing.T) {
	var b bytes.Buffer
	if err := render.WriteSTL(&b, nil); !errors.Is(err, render.ErrEmptyModel) {
		t.Errorf("WriteSTL: want ErrEmptyModel, got %v", err)
	}
	path := filepath.Join(t.TempDir(), "empty.stl")
	if err := render.CreateSTL(path, render.NewMeshRenderer(nil, nil)); !errors.Is(err, render.ErrEmptyModel) {
		t.Errorf("CreateSTL: want ErrEmptyModel, got %v", err)
	}
	if _, err := render.ReadSTL(bytes.NewReader(make([]byte, 84))); !errors.Is(err, render.ErrEmptyModel) {
		t.Errorf("ReadSTL: want ErrEmptyModel, got %v", err)
	}
	if _, err := render.ReadSTL(bytes.NewReader(make([]byte, 10))); err == nil {
		t.Error("expected error on truncated header")
	}
}

func TestReadSTLInvalid(t *testing.T) {
	model := []render.Triangle3{{{}, {X: 1}, {Y: 1}}}
	encode := func(edit func(b []byte)) io.Reader {
		var b bytes.Buffer
		if err := render.WriteSTL(&b, model); err != nil {
			t.Fatal(err)
		}
		raw := b.Bytes()
		edit(raw[84:])
		return bytes.NewReader(raw)
	}
	// Normal flipped to lie in plane: usable model, mismatch reported.
	got, err := render.ReadSTL(encode(func(b []byte) {
		binary.LittleEndian.PutUint32(b[0:], math.Float32bits(1))
		binary.LittleEndian.PutUint32(b[8:], math.Float32bits(0))
	}))
	if !errors.Is(err, render.ErrNormalMismatch) || len(got) != 1 {
		t.Errorf("want one triangle and ErrNormalMismatch, got %d, %v", len(got), err)
	}
	// NaN vertex.
	_, err = render.ReadSTL(encode(func(b []byte) {
		binary.LittleEndian.PutUint32(b[12:], math.Float32bits(float32(math.NaN())))
	}))
	if err == nil {
		t.Error("expected error on NaN vertex")
	}
	// Truncated body.
	_, err = render.ReadSTL(io.LimitReader(encode(func([]byte) {}), 100))
	if err == nil {
		t.Error("expected error on truncated triangle")
	}
}

func TestTriangleNormal(t *testing.T) {
	n := render.Triangle3{{}, {X: 2}, {Y: 2}}.Normal()
	if n != (r3.Vec{Z: 1}) {
		t.Errorf("got normal %v", n)
	}
	if n := (render.Triangle3{{}, {X: 1}, {X: 2}}).Normal(); n != (r3.Vec{}) {
		t.Errorf("degenerate triangle normal %v", n)
	}
}

func TestWeld(t *testing.T) {
	V, F := shelltest.Grid(3, 1)
	gotV, gotF, err := render.Weld(render.Soup(V, F), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(gotV) != len(V) || len(gotF) != len(F) {
		t.Fatalf("welded to %d vertices %d faces", len(gotV), len(gotF))
	}
	for i, f := range gotF {
		for j := range f {
			if gotV[f[j]] != V[F[i][j]] {
				t.Errorf("face %d corner %d moved", i, j)
			}
		}
	}
	// Jittered soup welds back with a coarse tolerance.
	soup := render.Soup(V, F)
	soup[0][2].X += 1e-4
	gotV, _, err = render.Weld(soup, 1e-2)
	if err != nil {
		t.Fatal(err)
	}
	if len(gotV) != len(V) {
		t.Errorf("jittered soup welded to %d vertices", len(gotV))
	}
	if _, _, err = render.Weld(soup, 5); err == nil {
		t.Error("expected error for oversized tolerance")
	}
	sliver := []render.Triangle3{{{}, {X: 1e-3}, {Y: 1}}}
	if _, _, err = render.Weld(sliver, 1e-2); err == nil {
		t.Error("expected error for triangle collapsing under tolerance")
	}
	if _, _, err = render.Weld(nil, 0); !errors.Is(err, render.ErrEmptyModel) {
		t.Errorf("want ErrEmptyModel, got %v", err)
	}
}

func TestWeldLayers(t *testing.T) {
	V, F := shelltest.Grid(3, 1)
	base := render.Soup(shelltest.Offset(V, -0.5), F)
	mid := render.Soup(V, F)
	top := render.Soup(shelltest.Offset(V, 0.5), F)
	B, M, T, gotF, err := render.WeldLayers(base, mid, top, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(B) != len(M) || len(T) != len(M) || len(gotF) != len(F) {
		t.Fatal("layer size mismatch")
	}
	for v := range M {
		if B[v].Z != M[v].Z-0.5 || T[v].Z != M[v].Z+0.5 || B[v].X != M[v].X {
			t.Errorf("vertex %d: base %v mid %v top %v", v, B[v], M[v], T[v])
		}
	}

	_, _, _, _, err = render.WeldLayers(base[1:], mid, top, 0)
	if !errors.Is(err, prism.ErrLayerMismatch) {
		t.Errorf("want ErrLayerMismatch, got %v", err)
	}
	top[0][0].Z = 3 // corners of mid vertex 0 disagree on top position.
	_, _, _, _, err = render.WeldLayers(base, mid, top, 0)
	if !errors.Is(err, prism.ErrLayerMismatch) {
		t.Errorf("want ErrLayerMismatch, got %v", err)
	}
}
