// Package model defines the data structures shared by the analyzer layers.
package model

// Path represents a file system path.
type Path string

// File represents a JavaScript file submitted for review.
type File struct {
	FullPath  Path
	ShortPath Path
	Hash      string
}

// Source is a unit of analysis: one JavaScript file.
type Source struct {
	Origin *File
}
