package clipboard

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	xclip "golang.design/x/clipboard"
)

// System is the production Reader/Writer backed by golang.design/x/clipboard.
// The backend speaks text and PNG image formats; file-drop lists are not
// exposed by it, so ContainsFileList always reports false here and file
// capture only activates on platforms with a file-list capable backend.
type System struct{}

// NewSystem initializes the OS clipboard backend.
func NewSystem() (*System, error) {
	if err := xclip.Init(); err != nil {
		return nil, fmt.Errorf("clipboard: init: %w", err)
	}
	return &System{}, nil
}

func (s *System) ContainsText() bool {
	return len(xclip.Read(xclip.FmtText)) > 0
}

func (s *System) Text() (string, error) {
	data := xclip.Read(xclip.FmtText)
	if len(data) == 0 {
		return "", ErrUnavailable
	}
	return string(data), nil
}

func (s *System) ContainsImage() bool {
	return len(xclip.Read(xclip.FmtImage)) > 0
}

func (s *System) Image() (image.Image, error) {
	data := xclip.Read(xclip.FmtImage)
	if len(data) == 0 {
		return nil, ErrUnavailable
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("clipboard: decode image: %w", err)
	}
	return img, nil
}

func (s *System) ContainsFileList() bool { return false }

func (s *System) FileList() ([]string, error) { return nil, ErrUnavailable }

func (s *System) SetText(text string) error {
	xclip.Write(xclip.FmtText, []byte(text))
	return nil
}

func (s *System) SetImage(img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("clipboard: encode image: %w", err)
	}
	xclip.Write(xclip.FmtImage, buf.Bytes())
	return nil
}

func (s *System) SetFileList([]string) error { return ErrUnavailable }
