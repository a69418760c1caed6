package shader

// BSPVertexShader transforms map vertices and forwards texture, lightmap,
// and opacity channels.
const BSPVertexShader = `#version 410 core

in vec2 vTex;
in vec3 vLightmapTex0;
in vec3 vLightmapTex1;
in vec3 vLightmapTex2;
in vec3 vLightmapTex3;
in float vOpacity;
in vec3 vPosition;

uniform mat4 uViewProj;
uniform mat4 uModel;

out vec2 fTex;
out vec3 fLightmapTex0;
out vec3 fLightmapTex1;
out vec3 fLightmapTex2;
out vec3 fLightmapTex3;
out float fOpacity;

void main() {
    gl_Position = uViewProj * uModel * vec4(vPosition, 1.0);
    fTex = vTex;
    fLightmapTex0 = vLightmapTex0;
    fLightmapTex1 = vLightmapTex1;
    fLightmapTex2 = vLightmapTex2;
    fLightmapTex3 = vLightmapTex3;
    fOpacity = vOpacity;
}
`

// BSPFragmentShader sums the four light styles, each weighted by its scale
// channel, and modulates the material color.
const BSPFragmentShader = `#version 410 core

in vec2 fTex;
in vec3 fLightmapTex0;
in vec3 fLightmapTex1;
in vec3 fLightmapTex2;
in vec3 fLightmapTex3;
in float fOpacity;

uniform sampler2D sTex;
uniform sampler2D sLightmapTex0;
uniform sampler2D sLightmapTex1;
uniform sampler2D sLightmapTex2;
uniform sampler2D sLightmapTex3;

out vec4 outColor;

void main() {
    vec3 light = texture(sLightmapTex0, fLightmapTex0.xy).rgb * fLightmapTex0.z
               + texture(sLightmapTex1, fLightmapTex1.xy).rgb * fLightmapTex1.z
               + texture(sLightmapTex2, fLightmapTex2.xy).rgb * fLightmapTex2.z
               + texture(sLightmapTex3, fLightmapTex3.xy).rgb * fLightmapTex3.z;

    vec4 color = texture(sTex, fTex);
    outColor = vec4(color.rgb * light, fOpacity);
}
`
