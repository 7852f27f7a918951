package main

import (
	"gshsdk/pkg/gshsdk"
	"gshsdk/protocol"
)

// gradientService is a demo gshsdk.Service: one window filled with a
// horizontally scrolling RGBA gradient, advanced once per tick.
type gradientService struct {
	windowID      uint32
	width, height uint32
	offset        int
}

func newGradientService() *gradientService {
	return &gradientService{windowID: 1, width: 640, height: 480}
}

func (g *gradientService) ServerHello() gshsdk.Hello {
	return gshsdk.Hello{
		Format: protocol.FrameFormatRGBA,
		Windows: []protocol.Window{
			{
				WindowID:  g.windowID,
				Width:     g.width,
				Height:    g.height,
				Title:     "gshd gradient demo",
				Mode:      protocol.WindowModeWindowed,
				Resizable: true,
			},
		},
	}
}

func (g *gradientService) OnStart(h *gshsdk.Handle) {
	h.SendStatus(protocol.StatusLevelInfo, 0, "gradient demo session started")
}

func (g *gradientService) OnTick(h *gshsdk.Handle) error {
	g.offset++
	buf := g.render()
	return h.PublishFrame(g.windowID, g.width, g.height, buf)
}

func (g *gradientService) OnResize(h *gshsdk.Handle, windowID, width, height uint32) {
	if windowID != g.windowID {
		return
	}
	g.width, g.height = width, height
}

func (g *gradientService) OnExit(h *gshsdk.Handle, reason gshsdk.ExitReason) {}

func (g *gradientService) render() []byte {
	stride := protocol.FrameFormatRGBA.Stride()
	buf := make([]byte, int(g.width)*int(g.height)*stride)
	for y := 0; y < int(g.height); y++ {
		for x := 0; x < int(g.width); x++ {
			i := (y*int(g.width) + x) * stride
			buf[i+0] = byte((x + g.offset) % 256)
			buf[i+1] = byte((y + g.offset) % 256)
			buf[i+2] = byte((x + y + g.offset) % 256)
			buf[i+3] = 0xff
		}
	}
	return buf
}
