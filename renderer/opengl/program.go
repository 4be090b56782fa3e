package opengl

import (
	"fmt"
	"strings"

	"github.com/achilleasa/prism/renderer"
	"github.com/achilleasa/prism/types"
	"github.com/go-gl/gl/v3.3-core/gl"
)

type program struct {
	name      string
	id        uint32
	locations map[string]int32
}

// Compile and link a program that pairs the full screen vertex shader with
// the given fragment shader.
func newProgram(name, fragmentSource string) (*program, error) {
	vs, err := compileShader(gl.VERTEX_SHADER, shaderSource(fullscreenVertexShader))
	if err != nil {
		return nil, fmt.Errorf("opengl: %s vertex shader: %w", name, err)
	}
	defer gl.DeleteShader(vs)

	fs, err := compileShader(gl.FRAGMENT_SHADER, shaderSource(fragmentSource))
	if err != nil {
		return nil, fmt.Errorf("opengl: %s fragment shader: %w", name, err)
	}
	defer gl.DeleteShader(fs)

	id := gl.CreateProgram()
	gl.AttachShader(id, vs)
	gl.AttachShader(id, fs)
	gl.LinkProgram(id)

	var status int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(id, logLength, nil, gl.Str(log))
		gl.DeleteProgram(id)
		return nil, fmt.Errorf("opengl: %s link error: %s", name, strings.TrimRight(log, "\x00"))
	}

	return &program{
		name:      name,
		id:        id,
		locations: make(map[string]int32),
	}, nil
}

func compileShader(shaderType uint32, source string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile error: %s", strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

// Prefix a shader body with the version directive and shared definitions.
func shaderSource(body string) string {
	var sb strings.Builder
	sb.WriteString("#version 330 core\n")
	sb.WriteString(shaderPrelude)
	sb.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		sb.WriteString("\n")
	}
	return sb.String()
}

func (p *program) use() {
	gl.UseProgram(p.id)
}

func (p *program) loc(name string) int32 {
	if loc, exists := p.locations[name]; exists {
		return loc
	}
	loc := gl.GetUniformLocation(p.id, gl.Str(name+"\x00"))
	p.locations[name] = loc
	return loc
}

func (p *program) setFloat(name string, v float32) {
	gl.Uniform1f(p.loc(name), v)
}

func (p *program) setInt(name string, v int32) {
	gl.Uniform1i(p.loc(name), v)
}

func (p *program) setVec2(name string, v types.Vec2) {
	gl.Uniform2f(p.loc(name), v[0], v[1])
}

func (p *program) setMat4(name string, m types.Mat4) {
	gl.UniformMatrix4fv(p.loc(name), 1, false, &m[0])
}

// Bind tex to a texture unit and point the named sampler at it. Textures
// allocated by another device are ignored.
func (p *program) setTexture(name string, unit uint32, tex renderer.Texture) {
	var id uint32
	if glTex, ok := tex.(*Texture); ok && glTex != nil {
		id = glTex.id
	}
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, id)
	p.setInt(name, int32(unit))
}

func (p *program) release() {
	if p.id != 0 {
		gl.DeleteProgram(p.id)
		p.id = 0
	}
}
