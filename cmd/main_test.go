package main

import (
	"testing"

	"github.com/okian/eventrec/cmd/cli"
	"github.com/smartystreets/goconvey/convey"
)

func TestCommandTree(t *testing.T) {
	convey.Convey("Given the eventrec root command", t, func() {
		root := cli.NewRootCmd()

		convey.Convey("Then every subcommand is registered", func() {
			names := map[string]bool{}
			for _, c := range root.Commands() {
				names[c.Name()] = true
			}
			for _, want := range []string{"rank", "interact", "generate", "serve-ops"} {
				convey.So(names[want], convey.ShouldBeTrue)
			}
		})
	})
}
