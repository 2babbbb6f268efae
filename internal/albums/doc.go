// Package albums lists user albums, smart albums and moments.
package albums
