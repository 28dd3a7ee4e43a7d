package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ritzau/dataflows/pkg/graph"
	"github.com/ritzau/dataflows/pkg/model"
	"github.com/ritzau/dataflows/pkg/output"
	"github.com/ritzau/dataflows/pkg/scene"
)

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, len(args))
	for i, a := range args {
		id, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("%q is not an id", a)
		}
		ids[i] = id
	}
	return ids, nil
}

func (c *CLI) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored scenes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scenes, err := c.client().FetchAll(cmd.Context())
			if err != nil {
				return err
			}
			output.PrintSceneList(c.out, scenes)
			return nil
		},
	}
}

func (c *CLI) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <scene-id>",
		Short: "Summarize a scene's topology",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			summary, err := c.client().Summary(cmd.Context(), ids[0])
			if err != nil {
				return err
			}
			output.PrintSummary(c.out, summary)
			return nil
		},
	}
}

func (c *CLI) pushCommand() *cobra.Command {
	var id int

	cmd := &cobra.Command{
		Use:   "push <file>",
		Short: "Upload a scene file, as a new scene or over --id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			sc, err := scene.Deserialize(data)
			if err != nil {
				return err
			}
			if id != scene.NoID {
				sc.ID = id
			}

			// catch bad files before they reach the server
			if _, err := scene.Load(sc, graph.NewAnchor(model.Position{})); err != nil {
				return err
			}

			saved, err := c.client().Save(cmd.Context(), sc, sc.ID == scene.NoID)
			if err != nil {
				return err
			}
			c.Logger.Info("pushed scene", "id", saved, "devices", len(sc.Devices), "cords", len(sc.Cords))
			fmt.Fprintln(c.out, saved)
			return nil
		},
	}

	cmd.Flags().IntVar(&id, "id", scene.NoID, "overwrite this scene instead of creating one")
	return cmd
}

func (c *CLI) pullCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "pull <scene-id>",
		Short: "Download a scene as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			sc, err := c.client().Fetch(cmd.Context(), ids[0])
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(sc, "", "  ")
			if err != nil {
				return err
			}
			data = append(data, '\n')

			if file == "" {
				_, err = c.out.Write(data)
				return err
			}
			if err := os.WriteFile(file, data, 0644); err != nil {
				return err
			}
			c.Logger.Info("pulled scene", "id", sc.ID, "file", file)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func (c *CLI) pathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path <scene-id> <from-device> <to-device>",
		Short: "Show the shortest route between two devices",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			route, err := c.client().Path(cmd.Context(), ids[0], ids[1], ids[2])
			if err != nil {
				return err
			}
			output.PrintRoute(c.out, route)
			return nil
		},
	}
}

func (c *CLI) rmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <scene-id>...",
		Short: "Delete scenes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			for _, id := range ids {
				if err := c.client().Delete(cmd.Context(), id); err != nil {
					return err
				}
				c.Logger.Info("deleted scene", "id", id)
			}
			return nil
		},
	}
}
