package gpu

import (
	_ "embed"
	"fmt"
)

var (
	//go:embed shaders/common.wgsl
	commonWGSL string

	//go:embed shaders/depth_prepass.wgsl
	depthPrePassWGSL string

	//go:embed shaders/shadow.wgsl
	shadowWGSL string

	//go:embed shaders/lighting.wgsl
	lightingWGSL string
)

// ProgramSource returns the complete WGSL source of a built-in program, shared prelude included.
//
// Parameters:
//   - p: the program to look up
//
// Returns:
//   - string: the WGSL source
//   - error: an error if the program is unknown
func ProgramSource(p Program) (string, error) {
	var body string
	switch p {
	case ProgramDepthPrePass:
		body = depthPrePassWGSL
	case ProgramShadow:
		body = shadowWGSL
	case ProgramLighting:
		body = lightingWGSL
	default:
		return "", fmt.Errorf("unknown program %d", int(p))
	}
	return commonWGSL + "\n" + body, nil
}
