package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/spf13/cobra"

	"tasklync-cli/internal/docs"
)

type docsTopic struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

func newDocsCmd(app *App) *cobra.Command {
	var (
		raw    bool
		render bool
		width  int
	)

	cmd := &cobra.Command{
		Use:   "docs [topic]",
		Short: "Read the user guide",
		Long: "Without a topic, lists the guide's pages with their titles.\n" +
			"With a topic, prints that page inside the usual envelope, as plain markdown (--raw),\n" +
			"or styled for the terminal (--render).",
		Example: "  tasklync docs\n  tasklync docs board --render",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				var topics []docsTopic
				for _, name := range docs.Topics() {
					topics = append(topics, docsTopic{Name: name, Title: docs.Title(name)})
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"topics": topics}})
			}
			if raw && render {
				return writeErr(cmd, errors.New("--raw and --render cannot be combined"))
			}

			body, ok := docs.Get(args[0])
			if !ok {
				return writeErr(cmd, fmt.Errorf("unknown docs topic: %q (see `tasklync docs`)", args[0]))
			}
			switch {
			case raw:
				_, err := io.WriteString(cmd.OutOrStdout(), body)
				return err
			case render:
				return renderDoc(cmd.OutOrStdout(), body, width)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"topic":    args[0],
				"title":    docs.Title(args[0]),
				"markdown": body,
			}})
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print the page's markdown source")
	cmd.Flags().BoolVar(&render, "render", false, "Print the page styled for a terminal")
	cmd.Flags().IntVar(&width, "width", 80, "Wrap width for --render")
	return cmd
}

// renderDoc uses the no-TTY style so output stays stable when piped.
func renderDoc(w io.Writer, md string, width int) error {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(styles.NoTTYStyle),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return err
	}
	out, err := r.Render(md)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
