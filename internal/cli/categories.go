package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/me/shelf/pkg/model"
)

func newCategoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Browse categories",
	}
	cmd.AddCommand(newCategoriesListCmd())
	return cmd
}

func newCategoriesListCmd() *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			var categories []model.Category
			if search != "" {
				list, err := client.ListCategories(cmd.Context(), search, model.ListOptions{Limit: 100})
				if err != nil {
					return fmt.Errorf("list categories: %w", err)
				}
				categories = list.Items
			} else {
				if err := state.RefreshCategories(cmd.Context()); err != nil {
					return fmt.Errorf("list categories: %w", err)
				}
				categories = state.Categories()
			}

			if len(categories) == 0 {
				fmt.Println("No categories found.")
				return nil
			}

			fmt.Printf("%-10s  %-30s  %s\n", "ID", "NAME", "DESCRIPTION")
			fmt.Printf("%-10s  %-30s  %s\n", "--", "----", "-----------")
			for _, c := range categories {
				fmt.Printf("%-10s  %-30s  %s\n", c.ID, truncate(c.Name, 30), c.Description)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Filter categories by name")
	return cmd
}
