// Copyright © 2018 One Concern

package histdump

// File is the name of the history export in a .hg directory
const File = "history.yaml"

// history is the layout of a history export:
//
//	changesets:
//	  - user: alice <alice@example.com>
//	    date: "2018-06-01T12:00:00+02:00"
//	    branch: default
//	    parents: []
//	    message: initial import
//	    files:
//	      README.md: |
//	        hello
//	    removed: []
//
// Parents are indices of earlier changesets in the list. Files hold the new
// content of every path the changeset adds or modifies.
type history struct {
	Changesets []changesetDump `yaml:"changesets"`
}

type changesetDump struct {
	User    string            `yaml:"user"`
	Date    string            `yaml:"date"`
	Branch  string            `yaml:"branch,omitempty"`
	Parents []int             `yaml:"parents,omitempty"`
	Message string            `yaml:"message"`
	Files   map[string]string `yaml:"files,omitempty"`
	Removed []string          `yaml:"removed,omitempty"`
}
