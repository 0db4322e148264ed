package gpu

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// bindingDeclRegex captures group, binding, optional address space, variable name and type from
	// declarations such as `@group(0) @binding(0) var<uniform> scene: SceneData;`.
	bindingDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)

	vertexEntryRegex   = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)
)

// dynamicGroup is bound with a dynamic offset per draw; it carries the push constant block.
const dynamicGroup = 2

var textureViewDimensions = map[string]wgpu.TextureViewDimension{
	"texture_2d":             wgpu.TextureViewDimension2D,
	"texture_2d_array":       wgpu.TextureViewDimension2DArray,
	"texture_cube":           wgpu.TextureViewDimensionCube,
	"texture_depth_2d":       wgpu.TextureViewDimension2D,
	"texture_depth_2d_array": wgpu.TextureViewDimension2DArray,
	"texture_depth_cube":     wgpu.TextureViewDimensionCube,
}

// reflectedProgram is the resource interface of a WGSL program recovered from its source.
type reflectedProgram struct {
	vertexEntry   string
	fragmentEntry string
	groups        []wgpu.BindGroupLayoutDescriptor
}

// reflectProgram parses every resource declaration of a WGSL program into bind group layout
// descriptors, one per group index from zero to the highest declared group. Entries are visible to
// both stages and sorted by binding.
//
// Parameters:
//   - label: a prefix for the descriptor labels
//   - source: the WGSL source
//
// Returns:
//   - reflectedProgram: the entry points and layouts
func reflectProgram(label, source string) reflectedProgram {
	cleaned := stripWGSLComments(source)
	out := reflectedProgram{
		vertexEntry:   firstSubmatch(vertexEntryRegex, cleaned),
		fragmentEntry: firstSubmatch(fragmentEntryRegex, cleaned),
	}

	groups := make(map[int][]wgpu.BindGroupLayoutEntry)
	maxGroup := -1
	for _, m := range bindingDeclRegex.FindAllStringSubmatch(cleaned, -1) {
		group, _ := strconv.Atoi(m[1])
		binding, _ := strconv.Atoi(m[2])
		entry := classifyBinding(uint32(binding), strings.TrimSpace(m[3]), strings.TrimSpace(m[5]))
		if group == dynamicGroup && entry.Buffer.Type != wgpu.BufferBindingTypeUndefined {
			entry.Buffer.HasDynamicOffset = true
			entry.Buffer.MinBindingSize = PushConstantSize
		}
		groups[group] = append(groups[group], entry)
		maxGroup = max(maxGroup, group)
	}

	out.groups = make([]wgpu.BindGroupLayoutDescriptor, maxGroup+1)
	for g := 0; g <= maxGroup; g++ {
		entries := groups[g]
		sort.Slice(entries, func(i, j int) bool { return entries[i].Binding < entries[j].Binding })
		pairDepthSamplers(entries)
		out.groups[g] = wgpu.BindGroupLayoutDescriptor{
			Label:   label + " Group " + strconv.Itoa(g),
			Entries: entries,
		}
	}
	return out
}

// classifyBinding builds a layout entry from the address space and type of a declaration.
func classifyBinding(binding uint32, addressSpace, typeName string) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
	}

	if addressSpace == "uniform" {
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		return entry
	}

	base, _, _ := strings.Cut(typeName, "<")
	switch {
	case base == "sampler":
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case base == "sampler_comparison":
		entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
	case strings.HasPrefix(base, "texture_depth_"):
		entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
		entry.Texture.ViewDimension = textureViewDimensions[base]
	case strings.HasPrefix(base, "texture_"):
		entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
		entry.Texture.ViewDimension = textureViewDimensions[base]
	}
	return entry
}

// pairDepthSamplers downgrades the sampler paired with a depth texture to non-filtering,
// the only plain sampler type a depth texture accepts.
func pairDepthSamplers(entries []wgpu.BindGroupLayoutEntry) {
	for i := 0; i+1 < len(entries); i++ {
		if entries[i].Texture.SampleType != wgpu.TextureSampleTypeDepth {
			continue
		}
		next := &entries[i+1]
		if next.Binding == entries[i].Binding+1 && next.Sampler.Type == wgpu.SamplerBindingTypeFiltering {
			next.Sampler.Type = wgpu.SamplerBindingTypeNonFiltering
		}
	}
}

func firstSubmatch(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

// stripWGSLComments removes line and (nested) block comments.
func stripWGSLComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		if i+1 < len(source) {
			switch {
			case source[i] == '/' && source[i+1] == '*':
				depth++
				i++
				continue
			case source[i] == '*' && source[i+1] == '/' && depth > 0:
				depth--
				i++
				continue
			case depth == 0 && source[i] == '/' && source[i+1] == '/':
				for i < len(source) && source[i] != '\n' {
					i++
				}
				sb.WriteByte('\n')
				continue
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
	}
	return sb.String()
}
