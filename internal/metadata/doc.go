// Package metadata extracts the extended metadata block reported for
// image assets: orientation plus typed Exif, GPS and TIFF records parsed
// from embedded EXIF data.
//
// Every field is optional. A record is nil when the image carries none of
// its tags, and tags without a typed field are kept in the record's Other
// map as their printed values.
package metadata
