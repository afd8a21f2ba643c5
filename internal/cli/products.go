package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/me/shelf/pkg/model"
)

func newProductsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Browse and manage products",
	}
	cmd.AddCommand(
		newProductsListCmd(),
		newProductsGetCmd(),
		newProductsCreateCmd(),
		newProductsUpdateCmd(),
		newProductsDeleteCmd(),
	)
	return cmd
}

func newProductsListCmd() *cobra.Command {
	var (
		page     int
		search   string
		category string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of products",
		RunE: func(cmd *cobra.Command, args []string) error {
			if search != "" {
				state.SetSearchText(search)
			}
			if category != "" {
				state.SetCategoryFilter(category)
			}
			if cmd.Flags().Changed("page") {
				if page < 1 {
					page = 1
				}
				state.SetCurrentPage(page)
			}

			if err := state.RefreshProducts(cmd.Context()); err != nil {
				return fmt.Errorf("list products: %w", err)
			}

			products := state.Products()
			if len(products) == 0 {
				fmt.Println("No products found.")
				return nil
			}

			printProductTable(products)
			fmt.Printf("\nPage %d of %d (%d products)\n", state.Page(), state.TotalPages(), state.Total())
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number (1-based)")
	cmd.Flags().StringVar(&search, "search", "", "Search text (disables pagination)")
	cmd.Flags().StringVar(&category, "category", "", "Filter by category ID")
	return cmd
}

func newProductsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := client.GetProduct(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printProductDetail(p)
			return nil
		},
	}
}

func newProductsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := client.DeleteProduct(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Deleted %s\n", id)
			return nil
		},
	}
}

func printProductTable(products []model.Product) {
	fmt.Printf("%-10s  %-30s  %10s  %-12s  %s\n", "ID", "NAME", "PRICE", "CATEGORY", "UPDATED")
	fmt.Printf("%-10s  %-30s  %10s  %-12s  %s\n", "--", "----", "-----", "--------", "-------")
	for _, p := range products {
		fmt.Printf("%-10s  %-30s  %10.2f  %-12s  %s\n",
			p.ID, truncate(p.Name, 30), p.Price, p.CategoryID, humanize.Time(p.UpdatedAt))
	}
}

func printProductDetail(p *model.Product) {
	fmt.Printf("ID:          %s\n", p.ID)
	fmt.Printf("Name:        %s\n", p.Name)
	if p.Slug != "" {
		fmt.Printf("Slug:        %s\n", p.Slug)
	}
	fmt.Printf("Price:       %.2f\n", p.Price)
	if p.Description != "" {
		fmt.Printf("Description: %s\n", p.Description)
	}
	if p.CategoryID != "" {
		fmt.Printf("Category:    %s\n", p.CategoryID)
	}
	for i, img := range p.Images {
		fmt.Printf("Image %d:     %s\n", i+1, img)
	}
	fmt.Printf("Created:     %s\n", humanize.Time(p.CreatedAt))
	fmt.Printf("Updated:     %s\n", humanize.Time(p.UpdatedAt))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
