package cli

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/me/shelf/pkg/model"
)

func newProductsCreateCmd() *cobra.Command {
	var (
		name        string
		description string
		price       float64
		category    string
		slug        string
		images      []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a product",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := model.Product{
				Name:        name,
				Description: description,
				Price:       price,
				CategoryID:  category,
				Slug:        slug,
				Images:      imageLocators(images),
			}

			created, err := client.CreateProduct(cmd.Context(), p)
			if err != nil {
				return err
			}
			fmt.Printf("Created %s\n", created.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Product name (required)")
	cmd.Flags().StringVar(&description, "description", "", "Product description")
	cmd.Flags().Float64Var(&price, "price", 0, "Product price (required, > 0)")
	cmd.Flags().StringVar(&category, "category", "", "Category ID")
	cmd.Flags().StringVar(&slug, "slug", "", "Display URL slug")
	cmd.Flags().StringArrayVar(&images, "image", nil, "Image file path (repeatable)")
	return cmd
}

func newProductsUpdateCmd() *cobra.Command {
	var (
		name        string
		description string
		price       float64
		category    string
		slug        string
		images      []string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a product",
		Long:  "Fetch a product, apply the given flags, and submit the result. Unset flags keep their current values.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := client.GetProduct(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("name") {
				p.Name = name
			}
			if cmd.Flags().Changed("description") {
				p.Description = description
			}
			if cmd.Flags().Changed("price") {
				p.Price = price
			}
			if cmd.Flags().Changed("category") {
				p.CategoryID = category
			}
			if cmd.Flags().Changed("slug") {
				p.Slug = slug
			}
			if cmd.Flags().Changed("image") {
				p.Images = imageLocators(images)
			}

			updated, err := client.UpdateProduct(cmd.Context(), p.ID, *p)
			if err != nil {
				return err
			}
			fmt.Printf("Updated %s\n", updated.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Product name")
	cmd.Flags().StringVar(&description, "description", "", "Product description")
	cmd.Flags().Float64Var(&price, "price", 0, "Product price")
	cmd.Flags().StringVar(&category, "category", "", "Category ID")
	cmd.Flags().StringVar(&slug, "slug", "", "Display URL slug")
	cmd.Flags().StringArrayVar(&images, "image", nil, "Image file path (replaces all images, repeatable)")
	return cmd
}

// imageLocators converts local image paths into the local://images/
// locators the backend stores. There is no real upload: the catalog
// records locators only, mirroring the object-URL stand-in of the web
// client.
func imageLocators(paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, "local://images/"+uuid.NewString()+filepath.Ext(p))
	}
	return out
}
