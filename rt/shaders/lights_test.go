package shaders

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLightDeclarations(t *testing.T) {
	src := LightDeclarations("uDirectionalLights", "uAmbientLights", 10, 0, 1)

	assert.Contains(t, src, "uDirectionalLights: array<DirectionalLight, 10>")
	assert.Contains(t, src, "uAmbientLights: array<AmbientLight, 10>")
	assert.Contains(t, src, "uNumDirectionalLights: i32")
	assert.Contains(t, src, "uNumAmbientLights: i32")
	assert.Contains(t, src, "@group(0) @binding(1) var<uniform> lights: Lights;")
	assert.Contains(t, src, "min(lights.uNumAmbientLights, 10)")
}

func TestRaymarchIncludesLights(t *testing.T) {
	src := Raymarch(4)
	assert.NotContains(t, src, lightsPlaceholder)
	assert.Contains(t, src, "array<DirectionalLight, 4>")
	assert.Equal(t, 1, strings.Count(src, "struct Lights"))

	for _, name := range []string{
		"uSpheres", "uSpheresCount", "uCameraPosition", "uCameraQuaternion",
		"uCameraDirection", "uCameraNear", "uCameraFar", "uCameraNearSize",
		"uCameraFarSize", "uCameraAspectRatio", "uRayMarchHitThreshold",
		"uMaxMarchDistance", "uExternalDistanceCutDiff", "uSmoothUnion",
		"uContactEdgeOffset", "uContactEdgeMin", "uContactEdgeMax",
		"uResolution", "uTime", "uDepthTexture", "uStickyDepthTexture",
		"uEnvMap", "uDiffuseTexture",
	} {
		if !strings.Contains(src, name) {
			t.Errorf("raymarch program does not declare %s", name)
		}
	}
}

func TestEmbeddedPrograms(t *testing.T) {
	for name, src := range map[string]string{"raster": RasterWGSL, "blend": BlendWGSL, "text": TextWGSL} {
		assert.Contains(t, src, "fn vs_main", name)
		assert.Contains(t, src, "fn fs_main", name)
	}
}
