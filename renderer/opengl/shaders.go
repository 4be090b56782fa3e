package opengl

// Output locations of the g-buffer shader.
const (
	gbufferPositionSlot   = 0
	gbufferNormalSlot     = 1
	gbufferFaceNormalSlot = 2
	gbufferColorSlot      = 3
	gbufferMatPropsSlot   = 4

	lightOutputSlot     = 0
	reprojectOutputSlot = 0
)

const shaderPrelude = `
#define PI 3.14159265359

// Build a world space primary ray for a point in [0, 1]^2.
vec3 cameraRay(mat4 camTransform, float fovDeg, float aspect, vec2 coord) {
	float tanHalfFov = tan(radians(fovDeg) * 0.5);
	vec2 ndc = coord * 2.0 - 1.0;
	vec3 dir = normalize(vec3(ndc.x * tanHalfFov * aspect, ndc.y * tanHalfFov, -1.0));
	return normalize(mat3(camTransform) * dir);
}

vec3 skyColor(vec3 dir) {
	float t = clamp(dir.y * 0.5 + 0.5, 0.0, 1.0);
	return mix(vec3(1.0, 0.95, 0.9), vec3(0.35, 0.55, 1.0), t);
}
`

const fullscreenVertexShader = `
out vec2 vCoord;

void main() {
	vec2 pos = vec2((gl_VertexID << 1) & 2, gl_VertexID & 2);
	vCoord = pos;
	gl_Position = vec4(pos * 2.0 - 1.0, 0.0, 1.0);
}
`

// Ray casts an infinite checkered ground plane at y = 0 under a sky dome.
// Sky pixels store a zero w component in the position output.
const gbufferFragmentShader = `
in vec2 vCoord;

uniform mat4 uCamera;
uniform float uFOV;
uniform float uAspect;
uniform vec2 uJitter;

layout(location = 0) out vec4 outPosition;
layout(location = 1) out vec4 outNormal;
layout(location = 2) out vec4 outFaceNormal;
layout(location = 3) out vec4 outColor;
layout(location = 4) out vec4 outMatProps;

void main() {
	vec3 origin = uCamera[3].xyz;
	vec3 dir = cameraRay(uCamera, uFOV, uAspect, vCoord + uJitter);

	if (dir.y >= -1e-4 || origin.y <= 0.0) {
		outPosition = vec4(dir, 0.0);
		outNormal = vec4(0.0);
		outFaceNormal = vec4(0.0);
		outColor = vec4(skyColor(dir), 1.0);
		outMatProps = vec4(0.0);
		gl_FragDepth = 1.0;
		return;
	}

	float t = -origin.y / dir.y;
	vec3 hit = origin + t * dir;
	float checker = mod(floor(hit.x) + floor(hit.z), 2.0);

	outPosition = vec4(hit, 1.0);
	outNormal = vec4(0.0, 1.0, 0.0, 0.0);
	outFaceNormal = vec4(0.0, 1.0, 0.0, 0.0);
	outColor = vec4(mix(vec3(0.8), vec3(0.3), checker), 1.0);
	outMatProps = vec4(0.6 + 0.3 * checker, 0.0, 0.0, 0.0);
	gl_FragDepth = clamp(t / 1000.0, 0.0, 1.0);
}
`

// Computes one cosine weighted sky visibility sample per pixel. The rgb
// channels hold radiance and alpha holds the sample weight so that additive
// accumulation yields (sum, count).
const lightFragmentShader = `
in vec2 vCoord;

uniform sampler2D uPosition;
uniform sampler2D uNormal;
uniform sampler2D uColor;
uniform sampler2D uNoise;

uniform vec2 uSize;
uniform vec2 uNoiseSize;
uniform vec2 uSeedOffset;
uniform vec2 uJitter;
uniform float uStrataCount;
uniform float uStrataIndex;

out vec4 outLight;

void main() {
	vec2 uv = gl_FragCoord.xy / uSize + uJitter;
	vec4 position = texture(uPosition, uv);
	vec3 albedo = texture(uColor, uv).rgb;

	if (position.w == 0.0) {
		outLight = vec4(albedo, 1.0);
		return;
	}

	vec2 noise = texture(uNoise, (gl_FragCoord.xy + uSeedOffset) / uNoiseSize).rg;
	float stratum = floor(noise.x * uStrataCount);
	vec2 u = vec2((mod(stratum + uStrataIndex, uStrataCount) + fract(noise.x * uStrataCount)) / uStrataCount, noise.y);

	vec3 n = normalize(texture(uNormal, uv).xyz);
	vec3 tangent = normalize(abs(n.y) < 0.99 ? cross(n, vec3(0.0, 1.0, 0.0)) : cross(n, vec3(1.0, 0.0, 0.0)));
	vec3 bitangent = cross(n, tangent);

	float r = sqrt(u.x);
	float phi = 2.0 * PI * u.y;
	vec3 dir = normalize(tangent * r * cos(phi) + bitangent * r * sin(phi) + n * sqrt(max(0.0, 1.0 - u.x)));

	outLight = vec4(albedo * skyColor(dir), 1.0);
}
`

// Blends the accumulated light with the history reprojected from the
// previous camera. Samples whose previous surface position disagrees with
// the current one are rejected.
const reprojectFragmentShader = `
in vec2 vCoord;

uniform sampler2D uLight;
uniform sampler2D uPosition;
uniform sampler2D uPreviousLight;
uniform sampler2D uPreviousPosition;

uniform vec2 uLightScale;
uniform vec2 uPreviousLightScale;
uniform mat4 uPreviousViewProj;
uniform vec2 uJitter;
uniform float uBlendAmount;

out vec4 outLight;

void main() {
	vec4 light = texture(uLight, vCoord * uLightScale);
	vec4 position = texture(uPosition, vCoord + uJitter);

	vec4 history = vec4(0.0);
	if (position.w > 0.0 && uBlendAmount > 0.0) {
		vec4 clip = uPreviousViewProj * vec4(position.xyz, 1.0);
		vec2 prevCoord = clip.xy / clip.w * 0.5 + 0.5;

		if (clip.w > 0.0 && all(greaterThanEqual(prevCoord, vec2(0.0))) && all(lessThanEqual(prevCoord, vec2(1.0)))) {
			vec4 prevPosition = texture(uPreviousPosition, prevCoord);
			if (prevPosition.w > 0.0 && distance(prevPosition.xyz, position.xyz) < 0.1) {
				vec4 prevLight = texture(uPreviousLight, prevCoord * uPreviousLightScale);
				if (prevLight.a > 0.0) {
					history = prevLight / prevLight.a;
				}
			}
		}
	}

	outLight = light + uBlendAmount * history;
}
`

// Reinhard tone mapping followed by gamma correction.
const tonemapFragmentShader = `
in vec2 vCoord;

uniform sampler2D uLight;
uniform sampler2D uPosition;
uniform vec2 uLightScale;
uniform float uExposure;

out vec4 outColor;

void main() {
	vec4 light = texture(uLight, vCoord * uLightScale);
	vec3 color = light.a > 0.0 ? light.rgb / light.a : vec3(0.0);

	// Sky pixels are not affected by exposure
	float exposure = texture(uPosition, vCoord).w > 0.0 ? uExposure : 1.0;
	color *= exposure;
	color = color / (1.0 + color);

	outColor = vec4(pow(color, vec3(1.0 / 2.2)), 1.0);
}
`
