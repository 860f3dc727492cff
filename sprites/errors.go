package sprites

import "errors"

// Sprite errors
var (
	// ErrBadFormat indicates a malformed `lzm or `lzt format tag.
	ErrBadFormat = errors.New("invalid sprite format")

	// ErrNoTileset indicates that a tilemap's tileset cannot be resolved.
	ErrNoTileset = errors.New("tileset not found")

	// ErrSizeMismatch indicates a bitmap whose size differs from the tilemap's.
	ErrSizeMismatch = errors.New("bitmap size does not match tilemap")
)
