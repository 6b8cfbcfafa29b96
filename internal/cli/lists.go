package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/samarth126/SmartShelf/internal/inventory"
	"github.com/samarth126/SmartShelf/internal/models"
	"github.com/samarth126/SmartShelf/internal/smartcart"
)

var listsCmd = &cobra.Command{
	Use:   "lists",
	Short: "Show all inventory lists",
	Args:  cobra.NoArgs,
	RunE:  runLists,
}

var listCmd = &cobra.Command{
	Use:   "list <id>",
	Short: "Show the items of one inventory list",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

var matchCmd = &cobra.Command{
	Use:   "match <image>",
	Short: "Match a pantry photo against an inventory list",
	Args:  cobra.ExactArgs(1),
	RunE:  runMatch,
}

var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export an inventory list as CSV or XLSX",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var (
	matchListID  int64
	exportFormat string
	exportOut    string
)

func init() {
	matchCmd.Flags().Int64Var(&matchListID, "list", 0, "inventory list id to match against")
	exportCmd.Flags().StringVar(&exportFormat, "format", inventory.FormatCSV, "export format: csv or xlsx")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "-", "output file, - for stdout")

	rootCmd.AddCommand(listsCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(exportCmd)
}

func runLists(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	browser := inventory.NewBrowser(client, nil, "cli", newLogger(cmd))
	browser.Mount(cmd.Context())

	lists := browser.Lists()
	out := cmd.OutOrStdout()
	if len(lists) == 0 {
		fmt.Fprintln(out, "No inventory lists found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPURPOSE\tITEMS\tCREATED")
	for _, list := range lists {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", list.ID, list.Name, list.Purpose, len(list.InventoryItems), list.CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

func runList(cmd *cobra.Command, args []string) error {
	list, err := fetchList(cmd, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", list.Name, list.Purpose)
	writeItems(out, list.InventoryItems)
	return nil
}

func runMatch(cmd *cobra.Command, args []string) error {
	upload, err := readImage(args[0])
	if err != nil {
		return err
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	result, err := smartcart.NewService(client, newLogger(cmd)).Match(cmd.Context(), upload, matchListID)
	if err != nil {
		if errors.Is(err, smartcart.ErrMatchFailed) {
			return errors.New(smartcart.FailureText)
		}
		return err
	}

	out := cmd.OutOrStdout()
	if result.Message != "" {
		fmt.Fprintln(out, result.Message)
	}
	fmt.Fprintf(out, "List: %s\n", result.ListName)
	fmt.Fprintf(out, "Missing items: %d\n", result.TotalMissingItems)
	for _, name := range result.RestockList {
		fmt.Fprintf(out, "  - %s\n", name)
	}
	if result.CheapestInfo.Store != "" {
		fmt.Fprintf(out, "Cheapest at %s: $%.2f\n", result.CheapestInfo.Store, result.CheapestInfo.EstimatedTotalCost)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	if _, err := inventory.ContentType(exportFormat); err != nil {
		return fmt.Errorf("unsupported format %q", exportFormat)
	}

	list, err := fetchList(cmd, args[0])
	if err != nil {
		return err
	}

	if exportOut == "-" {
		return inventory.Export(cmd.OutOrStdout(), list, exportFormat)
	}

	f, err := os.Create(exportOut)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", exportOut, err)
	}

	if err := inventory.Export(f, list, exportFormat); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func fetchList(cmd *cobra.Command, rawID string) (models.InventoryList, error) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return models.InventoryList{}, fmt.Errorf("invalid list id %q", rawID)
	}

	client, err := newClient()
	if err != nil {
		return models.InventoryList{}, err
	}

	list, err := inventory.NewBrowser(client, nil, "cli", newLogger(cmd)).Detail(cmd.Context(), id)
	if errors.Is(err, inventory.ErrListNotFound) {
		return models.InventoryList{}, fmt.Errorf("inventory list %d not found", id)
	}
	return list, err
}

func writeItems(out io.Writer, items []models.InventoryItem) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tQUANTITY\tBRAND")
	for _, item := range items {
		brand := "-"
		if item.Brand != nil {
			brand = *item.Brand
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", item.Name, item.Quantity, brand)
	}
	_ = w.Flush()
}
