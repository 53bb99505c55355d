package view

import (
	"image"

	"github.com/soocke/screenshare-test/ui/images"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// CapturePreview shows the latest frame of the live stream.
type CapturePreview interface {
	UpdatePreview(img image.Image)
	ResetPreview()
	Widget() *LabelWidget
}

type capturePreview struct {
	label     *LabelWidget
	prevPhoto *Img // disposed before replacement so old pixel data is released
	w, h      int
}

// NewCapturePreview creates the preview label inside parent. The caller grids it.
func NewCapturePreview(parent *FrameWidget, w, h int) CapturePreview {
	v := &capturePreview{w: w, h: h}
	v.prevPhoto = NewPhoto(Data(images.EncodePNG(images.Placeholder(w, h))))
	v.label = parent.Label(Image(v.prevPhoto), Borderwidth(1), Relief("sunken"), Background("black"))
	return v
}

func (v *capturePreview) Widget() *LabelWidget { return v.label }

// UpdatePreview shows img, which the presenter has already scaled.
func (v *capturePreview) UpdatePreview(img image.Image) {
	if v.label == nil || img == nil {
		return
	}
	v.replace(images.EncodePNG(img))
}

func (v *capturePreview) ResetPreview() {
	if v.label == nil {
		return
	}
	v.replace(images.EncodePNG(images.Placeholder(v.w, v.h)))
}

func (v *capturePreview) replace(png []byte) {
	if v.prevPhoto != nil {
		v.prevPhoto.Delete()
	}
	v.prevPhoto = NewPhoto(Data(png))
	v.label.Configure(Image(v.prevPhoto))
}
