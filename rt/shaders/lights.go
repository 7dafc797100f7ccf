package shaders

import (
	"fmt"
	"strings"
)

const (
	DirectionalLightsName = "uDirectionalLights"
	AmbientLightsName     = "uAmbientLights"
)

// LightDeclarations generates the light structs and the uniform block that
// holds maxLights entries of each kind plus the active counts.
func LightDeclarations(directionalName, ambientName string, maxLights, group, binding int) string {
	var b strings.Builder
	b.WriteString(`struct DirectionalLight {
    position: vec3<f32>,
    direction: vec3<f32>,
    color: vec3<f32>,
    intensity: f32,
}

struct AmbientLight {
    color: vec3<f32>,
    intensity: f32,
}

`)
	fmt.Fprintf(&b, "struct Lights {\n")
	fmt.Fprintf(&b, "    %s: array<DirectionalLight, %d>,\n", directionalName, maxLights)
	fmt.Fprintf(&b, "    %s: array<AmbientLight, %d>,\n", ambientName, maxLights)
	b.WriteString("    uNumDirectionalLights: i32,\n")
	b.WriteString("    uNumAmbientLights: i32,\n")
	b.WriteString("}\n\n")
	fmt.Fprintf(&b, "@group(%d) @binding(%d) var<uniform> lights: Lights;\n\n", group, binding)

	fmt.Fprintf(&b, `fn directionalLight(i: i32) -> DirectionalLight {
    return lights.%s[i];
}

fn ambientLight(i: i32) -> AmbientLight {
    return lights.%s[i];
}

fn numDirectionalLights() -> i32 {
    return min(lights.uNumDirectionalLights, %d);
}

fn numAmbientLights() -> i32 {
    return min(lights.uNumAmbientLights, %d);
}
`, directionalName, ambientName, maxLights, maxLights)
	return b.String()
}
