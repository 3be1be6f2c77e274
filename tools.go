//go:build never

package mipsrt

// This file pins the versions of the tools used to work on this repository.
// Run them with go run, for example go run github.com/go-task/task/v3/cmd/task.

import (
	_ "github.com/go-task/task/v3/cmd/task"
	_ "golang.org/x/tools/cmd/goimports"
	_ "mvdan.cc/gofumpt"
)
