package document

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"image/png"

	"github.com/wudi/pdfstream/objects"
)

// docImage is an image XObject already written to the file, cached so the
// same bytes placed twice share one object.
type docImage struct {
	ref    *Reference
	width  int
	height int
}

// Image places image data (JPEG or PNG) with its top-left corner at (x, y).
// w and h give the display size in points; zero keeps the natural pixel
// size, and when only one is zero the image scales uniformly.
func (d *Document) Image(data []byte, x, y, w, h float64) *Document {
	if d.err != nil || d.page == nil {
		return d
	}
	img, err := d.openImage(data)
	if err != nil {
		d.fail(err)
		return d
	}
	if w == 0 && h == 0 {
		w, h = float64(img.width), float64(img.height)
	} else if w == 0 {
		w = h * float64(img.width) / float64(img.height)
	} else if h == 0 {
		h = w * float64(img.height) / float64(img.width)
	}

	d.imageCount++
	label := fmt.Sprintf("Im%d", d.imageCount)
	d.page.xobjects()[objects.Name(label)] = img.ref

	// Image space runs bottom-up, so re-flip inside the page's top-left
	// coordinate system.
	d.Save()
	d.Transform(w, 0, 0, -h, x, y+h)
	d.addContent(fmt.Sprintf("/%s Do", label))
	d.Restore()
	return d
}

func (d *Document) openImage(data []byte) (*docImage, error) {
	key := md5.Sum(data)
	if img, ok := d.imageCache[key]; ok {
		return img, nil
	}
	var (
		img *docImage
		err error
	)
	switch {
	case len(data) >= 2 && data[0] == 0xFF && data[1] == 0xD8:
		img, err = d.embedJPEG(data)
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		img, err = d.embedPNG(data)
	default:
		err = fmt.Errorf("document: unsupported image format")
	}
	if err != nil {
		return nil, err
	}
	d.imageCache[key] = img
	return img, nil
}

// embedJPEG passes the JPEG bytes through untouched under a DCTDecode
// filter, reading only the frame header for dimensions and color space.
func (d *Document) embedJPEG(data []byte) (*docImage, error) {
	width, height, bits, components, err := jpegHeader(data)
	if err != nil {
		return nil, err
	}
	var space objects.Name
	switch components {
	case 1:
		space = "DeviceGray"
	case 3:
		space = "DeviceRGB"
	case 4:
		space = "DeviceCMYK"
	default:
		return nil, fmt.Errorf("document: jpeg with %d components", components)
	}

	ref := d.Ref()
	ref.SetCompress(false)
	ref.Data = objects.Dict{
		"Type":             objects.Name("XObject"),
		"Subtype":          objects.Name("Image"),
		"Width":            width,
		"Height":           height,
		"BitsPerComponent": bits,
		"ColorSpace":       space,
		"Filter":           objects.Name("DCTDecode"),
	}
	if components == 4 {
		// Adobe CMYK JPEGs store inverted values.
		ref.Data["Decode"] = objects.Array{1, 0, 1, 0, 1, 0, 1, 0}
	}
	ref.Write(data)
	if err := ref.End(); err != nil {
		return nil, err
	}
	return &docImage{ref: ref, width: width, height: height}, nil
}

// jpegHeader scans the marker stream for the first frame header.
func jpegHeader(data []byte) (width, height, bits, components int, err error) {
	pos := 2
	for pos+4 <= len(data) {
		if data[pos] != 0xFF {
			return 0, 0, 0, 0, fmt.Errorf("document: malformed jpeg")
		}
		marker := data[pos+1]
		// Standalone markers carry no length.
		if marker == 0xD8 || marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
			pos += 2
			continue
		}
		length := int(data[pos+2])<<8 | int(data[pos+3])
		if marker >= 0xC0 && marker <= 0xCF && marker != 0xC4 && marker != 0xC8 && marker != 0xCC {
			if pos+9 > len(data) {
				break
			}
			bits = int(data[pos+4])
			height = int(data[pos+5])<<8 | int(data[pos+6])
			width = int(data[pos+7])<<8 | int(data[pos+8])
			components = int(data[pos+9])
			return width, height, bits, components, nil
		}
		pos += 2 + length
	}
	return 0, 0, 0, 0, fmt.Errorf("document: jpeg frame header not found")
}

// embedPNG decodes the PNG and re-encodes it as raw samples: an RGB image
// XObject plus a grayscale SMask when the image carries transparency.
func (d *Document) embedPNG(data []byte) (*docImage, error) {
	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("document: decode png: %w", err)
	}
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	rgb := make([]byte, 0, w*h*3)
	alpha := make([]byte, 0, w*h)
	opaque := true
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := src.At(x, y).RGBA()
			rgb = append(rgb, byte(r>>8), byte(g>>8), byte(b>>8))
			alpha = append(alpha, byte(a>>8))
			if a != 0xFFFF {
				opaque = false
			}
		}
	}

	ref := d.Ref()
	ref.Data = objects.Dict{
		"Type":             objects.Name("XObject"),
		"Subtype":          objects.Name("Image"),
		"Width":            w,
		"Height":           h,
		"BitsPerComponent": 8,
		"ColorSpace":       objects.Name("DeviceRGB"),
	}
	if !opaque {
		smask := d.Ref()
		smask.Data = objects.Dict{
			"Type":             objects.Name("XObject"),
			"Subtype":          objects.Name("Image"),
			"Width":            w,
			"Height":           h,
			"BitsPerComponent": 8,
			"ColorSpace":       objects.Name("DeviceGray"),
		}
		smask.Write(alpha)
		if err := smask.End(); err != nil {
			return nil, err
		}
		ref.Data["SMask"] = smask
	}
	ref.Write(rgb)
	if err := ref.End(); err != nil {
		return nil, err
	}
	return &docImage{ref: ref, width: w, height: h}, nil
}
