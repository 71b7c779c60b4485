package cmd

import (
	"fmt"
	"os"

	"github.com/playcore/playcore/style"
	"github.com/playcore/playcore/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// wherePath is one directory playcore owns. Runtime paths are listed only
// with --all.
type wherePath struct {
	name    string
	short   string
	path    func() string
	runtime bool
}

var wherePaths = []wherePath{
	{name: "config", short: "c", path: where.Config},
	{name: "logs", short: "l", path: where.Logs},
	{name: "assets", short: "a", path: where.Assets},
	{name: "cache", path: where.Cache, runtime: true},
	{name: "history", path: where.History, runtime: true},
	{name: "sockets", path: where.Sockets, runtime: true},
}

func init() {
	rootCmd.AddCommand(whereCmd)

	for _, p := range wherePaths {
		whereCmd.Flags().BoolP(p.name, p.short, false, "print only the "+p.name+" path")
	}
	whereCmd.Flags().Bool("all", false, "include runtime paths")

	whereCmd.MarkFlagsMutuallyExclusive(lo.Map(wherePaths, func(p wherePath, _ int) string {
		return p.name
	})...)

	whereCmd.SetOut(os.Stdout)
}

func listedPaths(all bool) []wherePath {
	return lo.Filter(wherePaths, func(p wherePath, _ int) bool {
		return all || !p.runtime
	})
}

var whereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show the paths playcore reads and writes",
	Run: func(cmd *cobra.Command, args []string) {
		for _, p := range wherePaths {
			if lo.Must(cmd.Flags().GetBool(p.name)) {
				cmd.Println(p.path())
				return
			}
		}

		listed := listedPaths(lo.Must(cmd.Flags().GetBool("all")))
		width := lo.Max(lo.Map(listed, func(p wherePath, _ int) int {
			return len(p.name)
		}))
		label := style.New().Bold(true).Foreground(style.AccentColor).Render

		for _, p := range listed {
			cmd.Printf("%s  %s\n", label(fmt.Sprintf("%-*s", width, p.name)), p.path())
		}
	},
}
