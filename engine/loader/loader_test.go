package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/tsuki-go/engine/scene"
	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRejectsUnsupportedExtension(t *testing.T) {
	_, l, logs := newTestLoader(t)

	e, err := l.Load("model.obj", scene.New())
	assert.ErrorIs(t, err, ErrUnsupportedExtension)
	assert.Equal(t, scene.NullEntity, e)
	assert.Equal(t, 1, logs.FilterMessage("cannot load asset").Len())
}

func TestLoadMissingFile(t *testing.T) {
	_, l, _ := newTestLoader(t)

	e, err := l.Load(filepath.Join(t.TempDir(), "missing.glb"), scene.New())
	assert.Error(t, err)
	assert.Equal(t, scene.NullEntity, e)
	assert.Empty(t, l.Paths())
}

func TestLoadBinaryFile(t *testing.T) {
	device, l, logs := newTestLoader(t)
	path := filepath.Join(t.TempDir(), "tri.glb")
	require.NoError(t, gltf.SaveBinary(texturedDocument(), path))

	s := scene.New()
	root, err := l.Load(path, s)
	require.NoError(t, err)
	assert.Equal(t, "tri.glb", s.EntityName(root))
	assert.True(t, l.Cached(path))
	assert.Equal(t, []string{filepath.Clean(path)}, l.Paths())
	assert.Equal(t, 1, logs.FilterMessage("imported asset").Len())

	parent := s.Children(root)[0]
	mc, ok := scene.GetComponent[*scene.MeshComponent](s, parent)
	require.True(t, ok)
	assert.Len(t, mc.Mesh.Submeshes, 2)
	assert.Len(t, device.Images, 1)

	_, err = l.Load(path, s)
	require.NoError(t, err)
	assert.Len(t, device.Buffers, 1, "second load reuses the cached import")
	assert.Equal(t, 1, logs.FilterMessage("imported asset").Len())
}

func TestReloadReadsFileAgain(t *testing.T) {
	device, l, _ := newTestLoader(t)
	path := filepath.Join(t.TempDir(), "tri.glb")
	require.NoError(t, gltf.SaveBinary(texturedDocument(), path))

	s := scene.New()
	first, err := l.Load(path, s)
	require.NoError(t, err)

	l.Reload(path)
	assert.False(t, l.Cached(path))
	assert.False(t, device.Images[0].Released, "the live entity keeps its textures")
	assert.False(t, device.Buffers[0].Released, "the live entity keeps its mesh")

	_, err = l.Load(path, s)
	require.NoError(t, err)
	assert.Len(t, device.Buffers, 2)
	assert.Len(t, device.Images, 2)

	s.DestroyEntity(first)
	assert.True(t, device.Buffers[0].Released)
	assert.True(t, device.Images[0].Released)
	assert.False(t, device.Buffers[1].Released)
	assert.False(t, device.Images[1].Released)
}

func TestLoadExternalImage(t *testing.T) {
	device, l, _ := newTestLoader(t)
	dir := t.TempDir()

	doc := texturedDocument()
	data, err := imageSource(doc, doc.Images[0], "")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "textures"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "textures", "albedo map.png"), data, 0o644))
	doc.Images[0].BufferView = nil
	doc.Images[0].URI = "textures/albedo%20map.png"

	_, err = l.LoadDocument(filepath.Join(dir, "tri.gltf"), doc, scene.New())
	require.NoError(t, err)
	require.Len(t, device.Images, 1)
	assert.Equal(t, "albedo", device.Images[0].Desc().Label)
}

func TestImageWithoutSource(t *testing.T) {
	_, err := imageSource(&gltf.Document{}, &gltf.Image{}, "")
	assert.ErrorIs(t, err, ErrNoImageSource)
}
