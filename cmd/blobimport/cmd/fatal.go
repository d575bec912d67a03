// Copyright © 2018 One Concern

package cmd

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

var (
	// used to patch over calls to os.Exit() during test
	osExit = os.Exit

	// logger built from the root flags, see root.go
	logger *zap.Logger
)

func logFatal(err error) {
	if logger != nil {
		logger.Error("blobimport failed", zap.Error(err))
		_ = logger.Sync()
	} else {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
	}
	osExit(1)
}
