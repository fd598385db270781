package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/Christiano300/mcn-ls/cmd/mcnls/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
