// Package template defines the seam between the HTML renderer and its
// template engine. The pongo subpackage is the pongo2-backed implementation.
package template
