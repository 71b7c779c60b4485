package cmd

import (
	"fmt"

	"github.com/playcore/playcore/icon"
	"github.com/playcore/playcore/style"
	"github.com/playcore/playcore/util"
	"github.com/playcore/playcore/where"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
)

type clearTarget struct {
	name     string
	argLong  string
	argShort mo.Option[string]
	location func() string
}

var clearTargets = []clearTarget{
	{"history file", "history", mo.Some("s"), where.History},
	{"cache directory", "cache", mo.Some("c"), where.Cache},
	{"socket directory", "sockets", mo.None[string](), where.Sockets},
}

func init() {
	rootCmd.AddCommand(clearCmd)

	for _, target := range clearTargets {
		help := fmt.Sprintf("clear %s", target.name)
		if short, ok := target.argShort.Get(); ok {
			clearCmd.Flags().BoolP(target.argLong, short, false, help)
		} else {
			clearCmd.Flags().Bool(target.argLong, false, help)
		}
	}
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove saved positions, cached data or stale engine sockets",
	Run: func(cmd *cobra.Command, args []string) {
		var anyCleared bool

		for _, target := range clearTargets {
			if !lo.Must(cmd.Flags().GetBool(target.argLong)) {
				continue
			}
			anyCleared = true

			erase := util.PrintErasable(fmt.Sprintf("%s Clearing %s...", icon.Get(icon.Buffering), target.name))
			err := util.Delete(target.location())
			erase()

			if err != nil {
				fmt.Printf("%s %s: %s\n", style.Fg(style.WarningColor)(icon.Get(icon.Fail)), util.Capitalize(target.name), style.Faint(err.Error()))
				continue
			}
			fmt.Printf("%s %s cleared\n", style.Fg(style.SuccessColor)(icon.Get(icon.Success)), util.Capitalize(target.name))
		}

		if !anyCleared {
			handleErr(cmd.Help())
		}
	},
}
