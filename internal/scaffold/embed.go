// Package scaffold embeds the starter files "codeassist init" writes into a
// project: a commented codeassist.yml and example agent plugin descriptors.
package scaffold

import "embed"

// FS contains the embedded templates. Walk from "templates" to iterate over
// all files; paths below it mirror the project layout.
//
//go:embed all:templates
var FS embed.FS

// Root is the directory inside FS that maps to the project root.
const Root = "templates"
