package grid

import (
	"strconv"

	"github.com/matzehuels/tilegrid/pkg/dom"
)

// ContainerStatus is the serializable state of a ContainerManager.
type ContainerStatus struct {
	Rect Rect `json:"rect"`
}

// ContainerManager owns the container's measured size and writes back the
// content size after each pass.
type ContainerManager struct {
	el         *dom.Element
	horizontal bool
	orgCSSText string
	rect       Rect
}

// NewContainerManager binds to el. A statically positioned container is made
// relative so absolutely positioned items lay out inside it.
func NewContainerManager(el *dom.Element, horizontal bool) *ContainerManager {
	cm := &ContainerManager{
		el:         el,
		horizontal: horizontal,
		orgCSSText: el.CSSText(),
	}
	if el.ComputedPosition() == "static" {
		el.SetStyleProperty("position", "relative")
	}
	return cm
}

// Element returns the container element.
func (cm *ContainerManager) Element() *dom.Element { return cm.el }

// Resize re-measures the container's client box.
func (cm *ContainerManager) Resize() {
	cm.rect = Rect{Width: cm.el.ClientWidth(), Height: cm.el.ClientHeight()}
}

// Rect returns the last measured size.
func (cm *ContainerManager) Rect() Rect { return cm.rect }

// InlineSize returns the measured size across tracks.
func (cm *ContainerManager) InlineSize() float64 {
	return cm.rect.Get(RectNames(cm.horizontal).InlineSize)
}

// ContentSize returns the measured size along tracks.
func (cm *ContainerManager) ContentSize() float64 {
	return cm.rect.Get(RectNames(cm.horizontal).ContentSize)
}

// SetContentSize grows or shrinks the container to fit placed content.
func (cm *ContainerManager) SetContentSize(size float64) {
	name := RectNames(cm.horizontal).ContentSize
	cm.rect.Set(name, size)
	cm.el.SetStyleProperty(name, formatPx(size))
}

// Status snapshots the measured rect.
func (cm *ContainerManager) Status() ContainerStatus {
	return ContainerStatus{Rect: cm.rect}
}

// SetStatus restores a snapshot and re-applies its content size.
func (cm *ContainerManager) SetStatus(s ContainerStatus) {
	cm.rect = s.Rect
	cm.SetContentSize(cm.ContentSize())
}

// Destroy restores the container's original inline style unless preserveUI.
func (cm *ContainerManager) Destroy(preserveUI bool) {
	if !preserveUI {
		cm.el.SetCSSText(cm.orgCSSText)
	}
}

func formatPx(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}
