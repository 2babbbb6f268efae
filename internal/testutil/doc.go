// Package testutil holds fixtures shared by package tests: encoded images
// with controlled EXIF data and temporary catalogues.
package testutil
