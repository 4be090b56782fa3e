package cmd

import (
	"fmt"
	"runtime"
	"time"

	"github.com/achilleasa/prism/renderer"
	"github.com/achilleasa/prism/renderer/opengl"
	"github.com/achilleasa/prism/scene"
	"github.com/achilleasa/prism/types"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/urfave/cli"
)

const (
	// Coefficients for converting delta cursor movements to yaw/pitch camera angles.
	mouseSensitivityX float32 = 0.005
	mouseSensitivityY float32 = 0.005

	// Camera movement speed
	cameraMoveSpeed float32 = 0.05
)

// An interactive glfw window driving the progressive pipeline.
type viewer struct {
	window   *glfw.Window
	dev      *opengl.Device
	passes   *opengl.Passes
	pipeline *renderer.Pipeline

	camera *scene.Camera
	full   bool

	// state
	lastCursorPos types.Vec2
	rotating      bool
}

func newViewer(width, height int, exposure float32, full bool, opts renderer.Options) (*viewer, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize glfw: %s", err.Error())
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	v := &viewer{full: full}
	var err error
	v.window, err = glfw.CreateWindow(width, height, "prism", nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("could not create opengl window: %s", err.Error())
	}
	v.window.MakeContextCurrent()
	glfw.SwapInterval(0)

	if v.dev, err = opengl.NewDevice(); err != nil {
		v.Close()
		return nil, err
	}
	if v.passes, err = opengl.NewPasses(v.dev, exposure, opts.Seed); err != nil {
		v.Close()
		return nil, err
	}
	if v.pipeline, err = renderer.NewPipeline(v.dev, v.passes.Passes(), opts); err != nil {
		v.Close()
		return nil, err
	}

	// The framebuffer may be larger than the window on high DPI displays
	fbW, fbH := v.window.GetFramebufferSize()
	if err = v.resize(fbW, fbH); err != nil {
		v.Close()
		return nil, err
	}

	// Bind event callbacks
	v.window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	v.window.SetKeyCallback(v.onKeyEvent)
	v.window.SetMouseButtonCallback(v.onMouseEvent)
	v.window.SetCursorPosCallback(v.onCursorPosEvent)
	v.window.SetFramebufferSizeCallback(v.onFramebufferSizeEvent)

	return v, nil
}

func (v *viewer) resize(w, h int) error {
	if w <= 0 || h <= 0 {
		return nil
	}
	if v.camera == nil {
		v.camera = scene.NewCamera(45)
		v.camera.Position = types.XYZ(0, 1.5, 4)
		v.camera.LookAt = types.XYZ(0, 1, 0)
	}
	v.camera.SetupProjection(float32(w) / float32(h))
	return v.pipeline.SetSize(w, h)
}

func (v *viewer) Close() {
	if v.pipeline != nil {
		v.pipeline.Close()
	}
	if v.passes != nil {
		v.passes.Release()
	}
	if v.dev != nil {
		v.dev.Close()
	}
	if v.window != nil {
		v.window.Destroy()
	}
	glfw.Terminate()
}

// Run the render loop until the window is closed.
func (v *viewer) Run() error {
	for !v.window.ShouldClose() {
		glfw.PollEvents()

		if v.pipeline.Readiness() == renderer.Failed {
			return v.pipeline.NoiseError()
		}

		v.pipeline.Time(time.Duration(glfw.GetTime() * float64(time.Second)))
		if v.full {
			v.pipeline.DrawFull(v.camera.Snapshot())
		} else {
			v.pipeline.Draw(v.camera.Snapshot())
		}

		v.window.SwapBuffers()
	}
	return nil
}

func (v *viewer) onKeyEvent(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press && action != glfw.Repeat {
		return
	}

	var moveDir scene.CameraDirection
	switch key {
	case glfw.KeyEscape:
		v.window.SetShouldClose(true)
		return
	case glfw.KeyUp, glfw.KeyW:
		moveDir = scene.Forward
	case glfw.KeyDown, glfw.KeyS:
		moveDir = scene.Backward
	case glfw.KeyLeft, glfw.KeyA:
		moveDir = scene.Left
	case glfw.KeyRight, glfw.KeyD:
		moveDir = scene.Right
	case glfw.KeyF:
		v.full = !v.full
		logger.Noticef("full resolution mode: %t", v.full)
		return
	default:
		return
	}

	// Double speed if shift is pressed
	var speedScaler float32 = 1.0
	if (mods & glfw.ModShift) == glfw.ModShift {
		speedScaler = 2.0
	}
	v.camera.Move(moveDir, speedScaler*cameraMoveSpeed)
}

func (v *viewer) onMouseEvent(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mod glfw.ModifierKey) {
	if button != glfw.MouseButtonLeft {
		return
	}

	v.rotating = action == glfw.Press
	if v.rotating {
		xPos, yPos := w.GetCursorPos()
		v.lastCursorPos = types.XY(float32(xPos), float32(yPos))
	}
}

func (v *viewer) onCursorPosEvent(w *glfw.Window, xPos, yPos float64) {
	if !v.rotating {
		return
	}

	// Calculate delta movement and apply mouse sensitivity
	newPos := types.XY(float32(xPos), float32(yPos))
	delta := v.lastCursorPos.Sub(newPos)
	v.lastCursorPos = newPos

	// Rotate lookat around eye
	v.camera.Pitch = delta[1] * mouseSensitivityY
	v.camera.Yaw = delta[0] * mouseSensitivityX
	v.camera.Update()
}

func (v *viewer) onFramebufferSizeEvent(w *glfw.Window, width, height int) {
	if err := v.resize(width, height); err != nil {
		logger.Errorf("could not resize pipeline to %dx%d: %v", width, height, err)
		v.window.SetShouldClose(true)
	}
}

// Open a window and render the built-in scene interactively.
func RenderInteractive(ctx *cli.Context) error {
	setupLogging(ctx)

	opts, err := pipelineOptions(ctx)
	if err != nil {
		return err
	}

	// glfw and the GL context must stay on the main thread
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	v, err := newViewer(ctx.Int("width"), ctx.Int("height"), float32(ctx.Float64("exposure")), ctx.Bool("full"), opts)
	if err != nil {
		return err
	}
	defer v.Close()

	v.pipeline.OnSampleRendered(func(sample int, since time.Duration) {
		logger.Debugf("sample %d rendered in %s", sample, since)
	})
	v.pipeline.LoadNoise(noiseLoader(ctx, opts.Seed))

	return v.Run()
}
