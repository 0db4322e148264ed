package loader

import (
	"path/filepath"
	"slices"
	"strconv"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/tsuki-go/common"
	"github.com/Carmen-Shannon/tsuki-go/engine/gpu"
	"github.com/Carmen-Shannon/tsuki-go/engine/model"
	"github.com/Carmen-Shannon/tsuki-go/engine/renderer/material"
	"github.com/Carmen-Shannon/tsuki-go/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"
)

// quantizationExtension allows integer vertex attributes in place of floats.
const quantizationExtension = "KHR_mesh_quantization"

var identityMatrix = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// gltfAsset holds the GPU resources imported from one glTF document. Scene instances share its
// meshes and materials; the asset keeps one reference to every mesh, material and to the texture
// set until release.
type gltfAsset struct {
	path      string
	name      string
	doc       *gltf.Document
	meshes    []*model.Mesh
	materials []*material.Material
	textures  *material.TextureSet
}

// release drops the asset's references. Meshes, materials and textures still referenced by scene
// entities stay alive until those entities go.
func (a *gltfAsset) release() {
	for _, m := range a.meshes {
		if m != nil {
			m.Release()
		}
	}
	for _, m := range a.materials {
		m.Release()
	}
	if a.textures != nil {
		a.textures.Release()
	}
	a.meshes, a.materials, a.textures = nil, nil, nil
}

// gltfImporter turns glTF documents into GPU resources and scene entities.
type gltfImporter struct {
	device gpu.Device
	pool   worker.DynamicWorkerPool
	log    *zap.Logger
}

// importDocument uploads every image, sampler, material and mesh of doc. Failures of individual
// images, samplers or primitives are logged and leave placeholders; the import itself does not fail.
//
// Parameters:
//   - doc: the decoded glTF document with loaded buffers
//   - path: the asset path, used for naming and resolving image URIs
//   - folder: the directory external image URIs are relative to
//
// Returns:
//   - *gltfAsset: the imported resources
func (imp *gltfImporter) importDocument(doc *gltf.Document, path, folder string) *gltfAsset {
	log := imp.log.With(zap.String("asset", path))
	a := &gltfAsset{path: path, name: assetName(path), doc: doc}

	quantized := slices.Contains(doc.ExtensionsRequired, quantizationExtension)
	if quantized {
		log.Info("asset uses " + quantizationExtension)
	}

	formats := colorSpaceTable(doc, log)
	a.textures = material.NewTextureSet(
		loadImages(imp.device, imp.pool, doc, folder, formats, log),
		loadSamplers(imp.device, doc, log),
	)
	a.materials = buildMaterials(doc, buildTextures(doc, a.textures.Images, a.textures.Samplers), a.textures)

	a.meshes = make([]*model.Mesh, len(doc.Meshes))
	for i, m := range doc.Meshes {
		if m == nil {
			continue
		}
		meshLog := log.With(zap.Int("mesh", i))

		prims := make([]*primitiveContext, 0, len(m.Primitives))
		for j, prim := range m.Primitives {
			if prim == nil {
				continue
			}
			primLog := meshLog.With(zap.Int("primitive", j))
			p, err := decodePrimitive(doc, prim, primLog)
			if err != nil {
				continue
			}
			if quantized {
				logQuantization(primLog, p)
			}
			prims = append(prims, p)
		}

		label := m.Name
		if label == "" {
			label = "Mesh " + strconv.Itoa(i)
		}
		mesh, err := PackMesh(imp.device, label, prims)
		if err != nil {
			meshLog.Error("failed to pack mesh", zap.Error(err))
			continue
		}
		a.meshes[i] = mesh
	}
	return a
}

// assetName returns the file name of path with its extension, used to name the root entity.
func assetName(path string) string {
	return filepath.Base(path)
}

func logQuantization(log *zap.Logger, p *primitiveContext) {
	for _, attr := range []struct {
		name string
		info attributeInfo
	}{
		{"position", p.position},
		{"normal", p.normal},
		{"tangent", p.tangent},
		{"texcoord0", p.texcoord0},
	} {
		log.Info("quantized attribute",
			zap.String("attribute", attr.name),
			zap.Stringer("format", attr.info.Format),
			zap.Bool("normalized", attr.info.Normalized),
		)
	}
}

// instantiate adds the asset's node tree to s under a new root entity named after the asset file.
// Nodes are visited depth first from the default scene (or scene 0). Every entity with a mesh gets
// a MeshComponent holding its own references to the mesh and to every material of the asset.
//
// Parameters:
//   - a: the imported asset
//   - s: the scene receiving the entities
//
// Returns:
//   - scene.Entity: the root entity
func (imp *gltfImporter) instantiate(a *gltfAsset, s *scene.Scene) scene.Entity {
	log := imp.log.With(zap.String("asset", a.path))
	root := s.CreateEntity(a.name)

	doc := a.doc
	sceneIndex := 0
	if doc.Scene != nil {
		sceneIndex = *doc.Scene
	}
	if sceneIndex < 0 || sceneIndex >= len(doc.Scenes) || doc.Scenes[sceneIndex] == nil {
		log.Warn("asset root is left empty", zap.Int("scene", sceneIndex), zap.Error(ErrNoScene))
		return root
	}

	visiting := make([]bool, len(doc.Nodes))
	var addNode func(index int, parent scene.Entity)
	addNode = func(index int, parent scene.Entity) {
		if index < 0 || index >= len(doc.Nodes) || doc.Nodes[index] == nil {
			log.Warn("node index out of range", zap.Int("node", index))
			return
		}
		if visiting[index] {
			log.Warn("node hierarchy contains a cycle", zap.Int("node", index))
			return
		}
		visiting[index] = true
		defer func() { visiting[index] = false }()

		node := doc.Nodes[index]
		name := node.Name
		if name == "" {
			name = "Node " + strconv.Itoa(index)
		}
		e := s.CreateChildEntity(parent, name)
		applyNodeTransform(s.Transform(e), node)

		if node.Mesh != nil {
			mi := *node.Mesh
			if mi >= 0 && mi < len(a.meshes) && a.meshes[mi] != nil {
				mesh := a.meshes[mi].Retain()
				materials := make([]*material.Material, len(a.materials))
				for i, m := range a.materials {
					materials[i] = m.Retain()
				}
				scene.AddComponent(s, e, &scene.MeshComponent{
					Mesh:      mesh,
					Bounds:    mesh.Bounds,
					Materials: materials,
				})
			} else {
				log.Warn("node references a missing mesh", zap.Int("node", index), zap.Int("mesh", mi))
			}
		}

		for _, child := range node.Children {
			addNode(child, e)
		}
	}

	for _, n := range doc.Scenes[sceneIndex].Nodes {
		addNode(n, root)
	}
	return root
}

// applyNodeTransform copies a node's local transform. A non-identity matrix is decomposed;
// otherwise the translation, rotation and scale fields are used with glTF defaults.
func applyNodeTransform(t *scene.Transform, node *gltf.Node) {
	if node.Matrix != [16]float64{} && node.Matrix != identityMatrix {
		var m mgl32.Mat4
		for i, v := range node.Matrix {
			m[i] = float32(v)
		}
		translation, rotation, scale := common.DecomposeMatrix(m)
		t.Translation = translation
		t.Rotation = common.QuatToEulerDegrees(rotation)
		t.Scale = scale
		return
	}

	tr := node.Translation
	r := node.Rotation
	if r == [4]float64{} {
		r[3] = 1
	}
	sc := node.Scale
	if sc == [3]float64{} {
		sc = [3]float64{1, 1, 1}
	}
	t.Translation = mgl32.Vec3{float32(tr[0]), float32(tr[1]), float32(tr[2])}
	t.Rotation = common.QuatToEulerDegrees(mgl32.Quat{
		W: float32(r[3]),
		V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])},
	}.Normalize())
	t.Scale = mgl32.Vec3{float32(sc[0]), float32(sc[1]), float32(sc[2])}
}
