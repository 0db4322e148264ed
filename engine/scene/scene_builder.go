package scene

// SceneBuilderOption is a functional option for configuring a Scene via New.
type SceneBuilderOption func(*Scene)

// WithName is an option builder that sets the name of the Scene.
//
// Parameters:
//   - name: the scene identifier
//
// Returns:
//   - SceneBuilderOption: a function that applies the name option to a scene
func WithName(name string) SceneBuilderOption {
	return func(s *Scene) {
		s.name = name
	}
}
