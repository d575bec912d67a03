// Copyright © 2018 One Concern

package main

import (
	"github.com/oneconcern/blobimport/cmd/blobimport/cmd"
)

func main() {
	cmd.Execute()
}
