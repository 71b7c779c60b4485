package cmd

import (
	"fmt"
	"sort"

	"github.com/playcore/playcore/history"
	"github.com/playcore/playcore/style"
	"github.com/playcore/playcore/util"
	"github.com/playcore/playcore/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringP("forget", "f", "", "Forget the saved position of a source")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved playback positions",
	Run: func(cmd *cobra.Command, args []string) {
		store := history.Open(where.History())

		if source := lo.Must(cmd.Flags().GetString("forget")); source != "" {
			handleErr(store.Remove(source))
			return
		}

		saved, err := store.Get()
		handleErr(err)

		positions := lo.Values(saved)
		sort.Slice(positions, func(i, j int) bool {
			return positions[i].UpdatedAt.After(positions[j].UpdatedAt)
		})

		fmt.Println(style.Faint(util.Quantify(len(positions), "saved position", "saved positions")))
		for _, p := range positions {
			fmt.Printf("%s %s %s\n",
				style.Fg(style.AccentColor)(formatMillis(p.Position)),
				p.Source,
				style.Faint(p.UpdatedAt.Format("2006-01-02 15:04")),
			)
		}
	},
}
