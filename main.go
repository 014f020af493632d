package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/medvision/dicom2yolo/cmd"
	"github.com/medvision/dicom2yolo/internal/pipeline"
)

const version = "0.1.0"

func main() {
	root := cmd.NewRootCmd()

	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(pipeline.ExitCode(err))
	}
}
