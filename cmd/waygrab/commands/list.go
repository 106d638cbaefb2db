package commands

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/waygrab/waygrab/internal/capture"
	"github.com/waygrab/waygrab/internal/logger"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the compositor's outputs",
	Long:  `List all outputs known to the compositor with their geometry and transform.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	logger.Init("warn", true)

	client, err := capture.Connect("", capture.WaitOptions{Timeout: 10 * time.Second})
	if err != nil {
		return err
	}
	defer client.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDESCRIPTION\tLOGICAL\tPHYSICAL\tTRANSFORM")
	for _, out := range client.Outputs() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d\t%s\n",
			out.Name,
			out.Description,
			out.LogicalRegion,
			out.PhysicalSize.Width, out.PhysicalSize.Height,
			capture.TransformName(out.Transform),
		)
	}
	return w.Flush()
}
