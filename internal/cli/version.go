package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			plain := f.plain(out)
			fmt.Fprintln(out, paint(styleTitle, plain, "microfin"))
			fmt.Fprintln(out, keyValue(plain, "Version", Version))
			fmt.Fprintln(out, keyValue(plain, "Git Commit", GitCommit))
			fmt.Fprintln(out, keyValue(plain, "Built", BuildDate))
			fmt.Fprintln(out, keyValue(plain, "Go Version", runtime.Version()))
			fmt.Fprintln(out, keyValue(plain, "OS/Arch", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)))
		},
	}
}
