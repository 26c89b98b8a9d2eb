package project

import (
	"errors"

	"github.com/petervdpas/isoedit/internal/content"
)

var (
	ErrNoProject   = errors.New("no project open")
	ErrNoActiveMap = errors.New("no active map")
	ErrNoPreview   = errors.New("active map is not loaded")
	ErrNotOpen     = errors.New("map is not open")

	ErrOutsideRoot = content.ErrOutsideRoot
	ErrNotFound    = content.ErrNotFound
	ErrNotDir      = content.ErrNotDir
	ErrExists      = content.ErrExists
	ErrInvalidName = content.ErrInvalidName
	ErrProtected   = content.ErrProtected
)
