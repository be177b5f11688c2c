// Package ports defines the core interfaces for the application.
package ports

import "go.trai.ch/srcset/internal/core/domain"

// SourceInspector reads the identity and metadata of a source image.
//
//go:generate mockgen -source=source.go -destination=mocks/mock_source.go -package=mocks
type SourceInspector interface {
	// Inspect fingerprints the file at path and reads its intrinsic dimensions and format.
	// It does not decode pixel data.
	Inspect(path string) (domain.SourceImage, error)
}
