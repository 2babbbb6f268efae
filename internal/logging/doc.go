// Package logging is the leveled logger used across the media library
// service and the libraryctl tool.
//
// Levels, lowest first: DEBUG, INFO, WARN, ERROR. FATAL always prints and
// exits. The level is read once from DEBUG (any truthy value forces debug)
// or LOG_LEVEL, and may be overridden at runtime with SetLevel, which the
// CLI does for its --log-level flag.
package logging
