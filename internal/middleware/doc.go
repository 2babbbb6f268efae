// Package middleware provides HTTP middleware for the media library API.
//
// It includes:
//   - Request logging in W3C Extended Log Format, with the asset id of
//     failed asset requests
//   - Prometheus request metrics labelled by route template
//   - Panic recovery
package middleware
