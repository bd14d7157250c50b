// Package model defines the questionnaire configuration consumed by the engine
// and the renderers: ordered pages holding ordered questions, each question
// optionally carrying a follow-up list revealed by a trigger value. The package
// also owns the answer containers (Responses, ErrorMap) and the submission
// envelope handed to hosts once a session completes.
//
// Pages are traversed in slice order. The numeric Order fields are kept for
// display and round-tripping only; nothing in the engine sorts by them.
//
// Several scalar fields accept more than one JSON/YAML shape so existing
// configurations load unchanged: IDs may be strings or numbers, bounds may be
// numbers or numeric strings, options may be plain strings or value/label
// objects and triggers may be a single value or a list of values.
package model
