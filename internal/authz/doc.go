// Package authz gates access to the media library behind per-capability
// authorization.
//
// Each capability (read, write) is NotDetermined until the first Request,
// which asks a Prompter once. Only an Authorized answer grants access;
// any other answer is stored as Denied and is never asked again. Later
// requests for a denied capability fail with mediaerr.ErrPermissionDenied
// and carry the settings redirect target, if one is configured, so the
// user can change the decision out of band.
//
// Decisions are persisted through a StateStore (the catalogue metadata
// table) and survive restarts.
package authz
