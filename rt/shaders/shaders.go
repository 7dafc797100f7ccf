// Package shaders embeds the WGSL programs of the renderer.
package shaders

import (
	_ "embed"
	"strings"
)

//go:embed raymarch.wgsl
var raymarchWGSL string

//go:embed raster.wgsl
var RasterWGSL string

//go:embed blend.wgsl
var BlendWGSL string

//go:embed text.wgsl
var TextWGSL string

const lightsPlaceholder = "//#include lights"

// Raymarch returns the ray-march program with the light declarations for
// maxLights lights per kind bound at group 0, binding 1.
func Raymarch(maxLights int) string {
	return strings.Replace(raymarchWGSL, lightsPlaceholder,
		LightDeclarations(DirectionalLightsName, AmbientLightsName, maxLights, 0, 1), 1)
}
