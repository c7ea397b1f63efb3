// Package constants centralizes defaults shared across the assessment pipeline.
//
// File permissions, well-known project file names, size caps, and the OSV
// cache window live here so cmd/ and internal/ agree on them without
// introducing import cycles.
package constants
