package entities

import "fmt"

// Viewport represents the browser window size
type Viewport struct {
	Width  int `json:"width" toml:"width"`
	Height int `json:"height" toml:"height"`
}

var (
	ViewportDesktop = Viewport{Width: 1280, Height: 720}
	ViewportTablet  = Viewport{Width: 768, Height: 1024}
	ViewportMobile  = Viewport{Width: 375, Height: 812}
)

// IsZero reports whether no size was set
func (v Viewport) IsZero() bool {
	return v.Width == 0 && v.Height == 0
}

func (v Viewport) String() string {
	return fmt.Sprintf("%dx%d", v.Width, v.Height)
}
