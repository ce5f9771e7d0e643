// Package content embeds the static marketing sections served under /api.
package content

import (
	"embed"
	"errors"
)

//go:embed data/*.json
var files embed.FS

var ErrUnknownSection = errors.New("unknown content section")

// Sections lists every static section in route order.
var Sections = []string{
	"hero",
	"advantages",
	"differentiators",
	"reasons",
	"products",
	"metrics",
	"faqs",
	"testimonials",
}

func Load(section string) ([]byte, error) {
	if !known(section) {
		return nil, ErrUnknownSection
	}
	return files.ReadFile("data/" + section + ".json")
}

func known(section string) bool {
	for _, s := range Sections {
		if s == section {
			return true
		}
	}
	return false
}
