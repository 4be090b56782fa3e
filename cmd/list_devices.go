package cmd

import (
	"bytes"
	"fmt"
	"runtime"

	"github.com/achilleasa/prism/renderer/opengl"
	"github.com/achilleasa/prism/tracer"
	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Initial tile and preview sizes for a frame size, before any adaptation.
type scheduleEstimate struct {
	Width, Height int

	TileW, TileH int
	NumTiles     int

	PreviewW, PreviewH int
}

func estimateSchedule(maxRenderbufferSize, w, h int) scheduleEstimate {
	tiles := tracer.NewTileScheduler(maxRenderbufferSize)
	tiles.SetSize(w, h)
	preview := tracer.NewRenderSize(maxRenderbufferSize)
	preview.SetSize(w, h)

	est := scheduleEstimate{
		Width:    w,
		Height:   h,
		NumTiles: tiles.NumTiles(),
		PreviewW: preview.Width(),
		PreviewH: preview.Height(),
	}
	est.TileW, est.TileH = tiles.TileSize()
	return est
}

// Frame sizes used for reporting schedule estimates.
var estimateSizes = [][2]int{{640, 480}, {1280, 720}, {1920, 1080}, {3840, 2160}}

func writeEstimates(buf *bytes.Buffer, maxRenderbufferSize int) {
	table := tablewriter.NewWriter(buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Frame", "Tile size", "Tiles", "Preview size"})
	for _, size := range estimateSizes {
		est := estimateSchedule(maxRenderbufferSize, size[0], size[1])
		table.Append([]string{
			fmt.Sprintf("%dx%d", est.Width, est.Height),
			fmt.Sprintf("%dx%d", est.TileW, est.TileH),
			fmt.Sprintf("%d", est.NumTiles),
			fmt.Sprintf("%dx%d", est.PreviewW, est.PreviewH),
		})
	}
	table.Render()
}

// List the opengl device and the initial schedule it implies.
func ListDevices(ctx *cli.Context) error {
	setupLogging(ctx)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize glfw: %s", err.Error())
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	window, err := glfw.CreateWindow(16, 16, "prism", nil, nil)
	if err != nil {
		return fmt.Errorf("could not create opengl context: %s", err.Error())
	}
	defer window.Destroy()
	window.MakeContextCurrent()

	dev, err := opengl.NewDevice()
	if err != nil {
		return err
	}
	defer dev.Close()

	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("\n[Device]\n  Vendor   %s\n  Renderer %s\n  Version  %s\n  GLSL     %s\n  Max renderbuffer size %d\n\n",
		gl.GoStr(gl.GetString(gl.VENDOR)),
		gl.GoStr(gl.GetString(gl.RENDERER)),
		gl.GoStr(gl.GetString(gl.VERSION)),
		gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION)),
		dev.MaxRenderbufferSize(),
	))
	writeEstimates(&buf, dev.MaxRenderbufferSize())

	logger.Notice(buf.String())
	return nil
}
