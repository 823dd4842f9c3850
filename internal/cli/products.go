package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"inventory/internal/contract"
	"inventory/internal/models"
	"inventory/internal/screens"
)

func newProductsCommand(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Manage products from the command line",
	}
	cmd.AddCommand(
		newProductsListCommand(st),
		newProductsAddCommand(st),
		newProductsSellCommand(st),
		newProductsDeleteCommand(st),
		newProductsOrderCommand(st),
	)
	return cmd
}

func newProductsListCommand(st *state) *cobra.Command {
	var (
		name        string
		maxQuantity int
		sortBy      string
		desc        bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := st.open()
			if err != nil {
				return err
			}
			defer a.Close()

			sel := models.Selection{NameContains: name}
			if cmd.Flags().Changed("max-quantity") {
				sel.MaxQuantity = &maxQuantity
			}

			list := screens.NewProductList(a.Products, notifier(cmd.ErrOrStderr()))
			if err := list.SetFilter(sel, models.Sort{Column: sortBy, Descending: desc}); err != nil {
				return err
			}
			if list.Empty() {
				fmt.Fprintln(cmd.OutOrStdout(), "No products")
				return nil
			}
			return printRows(cmd.OutOrStdout(), list.Rows())
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "only products whose name contains this text")
	cmd.Flags().IntVar(&maxQuantity, "max-quantity", 0, "only products with at most this many in stock")
	cmd.Flags().StringVar(&sortBy, "sort", "", "sort column: _id, name, price, quantity or sold")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")
	return cmd
}

func newProductsAddCommand(st *state) *cobra.Command {
	var (
		form      screens.Form
		imagePath string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a product",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := st.open()
			if err != nil {
				return err
			}
			defer a.Close()

			editor := screens.NewEditor(a.Products, notifier(cmd.ErrOrStderr()), a.Restock, "")
			editor.SetName(form.Name)
			editor.SetPrice(form.Price)
			editor.SetQuantity(form.Quantity)
			editor.SetSold(form.Sold)
			if imagePath != "" {
				image, err := os.ReadFile(imagePath)
				if err != nil {
					return fmt.Errorf("failed to read image: %w", err)
				}
				editor.SetImage(image)
			}

			if !editor.Save() {
				return errors.New("product was not saved")
			}
			id, err := contract.ParseID(editor.Address())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Name, "name", "", "product name")
	cmd.Flags().StringVar(&form.Price, "price", "", "unit price")
	cmd.Flags().StringVar(&form.Quantity, "quantity", "0", "units in stock")
	cmd.Flags().StringVar(&form.Sold, "sold", "0", "units sold")
	cmd.Flags().StringVar(&imagePath, "image", "", "path to the product picture")
	return cmd
}

func newProductsSellCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "sell ID",
		Short: "Record one sale of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProductID(args[0])
			if err != nil {
				return err
			}
			a, err := st.open()
			if err != nil {
				return err
			}
			defer a.Close()

			list := screens.NewProductList(a.Products, notifier(cmd.ErrOrStderr()))
			if err := list.SetFilter(models.Selection{ID: &id}, models.Sort{}); err != nil {
				return err
			}
			if !list.Sale(id) {
				return fmt.Errorf("product %d was not sold", id)
			}
			return nil
		},
	}
}

func newProductsDeleteCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProductID(args[0])
			if err != nil {
				return err
			}
			a, err := st.open()
			if err != nil {
				return err
			}
			defer a.Close()

			editor := screens.NewEditor(a.Products, notifier(cmd.ErrOrStderr()), a.Restock, contract.ProductAddress(id))
			if !editor.Delete(nil) {
				return fmt.Errorf("product %d was not deleted", id)
			}
			return nil
		},
	}
}

func newProductsOrderCommand(st *state) *cobra.Command {
	var quantity int
	cmd := &cobra.Command{
		Use:   "order ID",
		Short: "Draft a restock order for a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProductID(args[0])
			if err != nil {
				return err
			}
			a, err := st.open()
			if err != nil {
				return err
			}
			defer a.Close()

			editor := screens.NewEditor(a.Products, notifier(cmd.ErrOrStderr()), a.Restock, contract.ProductAddress(id))
			order, err := editor.OrderMore(quantity)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), order.MailtoURL)
			return nil
		},
	}
	cmd.Flags().IntVar(&quantity, "quantity", 1, "units to order")
	return cmd
}

func parseProductID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid product id %q", arg)
	}
	return id, nil
}

func notifier(w io.Writer) screens.Notifier {
	return screens.NotifierFunc(func(message string) {
		fmt.Fprintln(w, message)
	})
}

func printRows(w io.Writer, rows []screens.Row) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tQUANTITY\tSOLD")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\n", r.ID, r.Name, r.Price, r.Quantity, r.Sold)
	}
	return tw.Flush()
}
