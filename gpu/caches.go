// SPDX-License-Identifier: Unlicense OR MIT

package gpu

import (
	"fmt"
	"image"

	"gioui.org/nanovg/gpu/internal/driver"
	"gioui.org/nanovg/gpu/internal/uniform"
)

// ImageID identifies an image created by a Renderer. The zero ImageID
// denotes no image.
type ImageID int

// ImageFlags modify how an image is sampled.
type ImageFlags uint8

const (
	// ImagePremultiplied marks the color channels of the image as
	// multiplied by alpha.
	ImagePremultiplied ImageFlags = 1 << iota
	// ImageFlipY flips the image vertically in image paints.
	ImageFlipY
	// ImageNearest samples the image with nearest filtering.
	ImageNearest
)

type imageFormat uint8

const (
	imageRGBA imageFormat = iota
	// imageAlpha is a single channel image.
	imageAlpha
)

type texture struct {
	tex    driver.Texture
	format imageFormat
	flags  ImageFlags
	// size is the size of the source image; texSize is smaller when the
	// image was scaled down to fit the device.
	size    image.Point
	texSize image.Point
}

// imageCache maps image ids to textures. Textures deleted while a
// frame is open are released at the end of the frame.
type imageCache struct {
	res     map[ImageID]*texture
	deleted []*texture
	next    ImageID
}

func newImageCache() *imageCache {
	return &imageCache{
		res: make(map[ImageID]*texture),
	}
}

func (c *imageCache) get(id ImageID) (*texture, bool) {
	t, exists := c.res[id]
	return t, exists
}

func (c *imageCache) put(t *texture) ImageID {
	c.next++
	id := c.next
	if _, exists := c.res[id]; exists {
		panic(fmt.Errorf("image %d exists", id))
	}
	c.res[id] = t
	return id
}

// delete removes id and queues its texture for release by frame.
func (c *imageCache) delete(id ImageID) bool {
	t, exists := c.res[id]
	if !exists {
		return false
	}
	delete(c.res, id)
	c.deleted = append(c.deleted, t)
	return true
}

// frame releases the textures deleted since the last call.
func (c *imageCache) frame() {
	for i, t := range c.deleted {
		t.release()
		c.deleted[i] = nil
	}
	c.deleted = c.deleted[:0]
}

func (c *imageCache) release() {
	c.frame()
	for id, t := range c.res {
		t.release()
		delete(c.res, id)
	}
}

func (t *texture) release() {
	if t.tex != nil {
		t.tex.Release()
		t.tex = nil
	}
}

// texType returns how the shaders interpret texels of t.
func (t *texture) texType() uniform.TexType {
	switch {
	case t.format == imageAlpha:
		return uniform.TexAlpha
	case t.flags&ImagePremultiplied != 0:
		return uniform.TexRGBA
	default:
		return uniform.TexPremultiply
	}
}
