package cmd

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/playcore/playcore/constant"
	"github.com/playcore/playcore/host"
	"github.com/playcore/playcore/icon"
	"github.com/playcore/playcore/key"
	"github.com/playcore/playcore/platform"
	"github.com/playcore/playcore/style"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const probeTimeout = 10 * time.Second

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringP("engine", "e", "", "Engine to probe instead of engine.default")
	_ = checkCmd.RegisterFlagCompletionFunc("engine", completionEngines)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that the engine backend and platform capabilities work",
	Run: func(cmd *cobra.Command, args []string) {
		name := engineName(cmd)

		if name == constant.EngineMPV {
			if _, err := exec.LookPath(viper.GetString(key.EngineMPVPath)); err != nil {
				printMissingDependencyError(viper.GetString(key.EngineMPVPath))
				handleErr(err)
			}
		}

		h, err := host.FromConfigWith(name)
		handleErr(err)

		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()

		report("engine "+name, h.Probe(ctx))

		_, err = platform.NewWakeLock(viper.GetString(key.PlatformWakeBackend))
		report("wake lock "+viper.GetString(key.PlatformWakeBackend), err)
	},
}

func report(what string, err error) {
	if err != nil {
		code, msg := host.Reply(err)
		fmt.Printf("%s %s %s\n", style.Fg(style.ErrorColor)(icon.Get(icon.Fail)), what, style.Faint(code+": "+msg))
		return
	}
	fmt.Printf("%s %s\n", style.Fg(style.SuccessColor)(icon.Get(icon.Success)), what)
}

func printMissingDependencyError(dep string) {
	var installCmd string
	switch runtime.GOOS {
	case constant.Darwin:
		installCmd = "brew install mpv"
	case constant.Linux:
		installCmd = "sudo apt install mpv"
	case constant.Windows:
		installCmd = "scoop install mpv"
	}

	title := style.New().Bold(true).Foreground(style.ErrorColor).Render(fmt.Sprintf("%s Missing dependency", icon.Get(icon.Fail)))
	body := style.New().Foreground(style.Text).Render(fmt.Sprintf("%q was not found in your PATH.", dep))

	suggestion := ""
	if installCmd != "" {
		suggestion = fmt.Sprintf("\nTo install it, try running:\n  %s", style.New().Foreground(style.AccentColor).Bold(true).Render(installCmd))
	}

	fmt.Println(style.Box(style.ErrorColor)(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			body,
			suggestion,
		),
	))
}
