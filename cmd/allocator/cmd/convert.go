package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"order-allocation-service/internal/message"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the convert command
var (
	convertInput     string
	convertOutputDir string
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a pasted order message into an order CSV",
	Long: `Convert parses an order message (the text the ordering chatbot sends)
and writes it as the semicolon-delimited CSV the allocate command ingests.
The output file is named after the customer's tax ID and phone number.

Examples:
  # Convert a saved message
  allocator convert --input pedido.txt

  # Read the message from stdin
  cat pedido.txt | allocator convert --input -

  # Write the CSV to a specific directory
  allocator convert --input pedido.txt --output-dir ./pedidos`,

	PreRunE: validateConvertFlags,
	RunE:    runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&convertInput, "input", "i", "", "order message file, or '-' for stdin (required)")
	convertCmd.Flags().StringVarP(&convertOutputDir, "output-dir", "d", ".", "directory for the converted CSV")

	convertCmd.MarkFlagRequired("input")

	viper.BindPFlag("input", convertCmd.Flags().Lookup("input"))
	viper.BindPFlag("output-dir", convertCmd.Flags().Lookup("output-dir"))
}

func validateConvertFlags(cmd *cobra.Command, args []string) error {
	convertInput = viper.GetString("input")
	convertOutputDir = viper.GetString("output-dir")

	if convertInput == "" {
		return fmt.Errorf("input is required")
	}
	if convertInput != "-" {
		if err := validateFileExists(convertInput, "order message file"); err != nil {
			return err
		}
	}

	info, err := os.Stat(convertOutputDir)
	if os.IsNotExist(err) {
		return fmt.Errorf("output directory does not exist: %s", convertOutputDir)
	}
	if err != nil {
		return fmt.Errorf("error accessing output directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output-dir is not a directory: %s", convertOutputDir)
	}

	return nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	if err := configureLogging(); err != nil {
		return err
	}

	text, err := readConvertInput()
	if err != nil {
		return err
	}

	handler := NewCLIErrorHandler()

	order, err := message.ParseOrderMessage(text)
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	outputPath := filepath.Join(convertOutputDir, order.FileName())
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := message.WriteOrderCSV(file, order); err != nil {
		return fmt.Errorf("failed to write order CSV: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Wrote %d items to %s\n", len(order.Items), outputPath)
	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Customer: %s (%s)\n", order.Customer.Name, order.Customer.TaxID)
		fmt.Fprintf(os.Stderr, "Order total: %s\n", order.GrandTotal.String())
	}

	return nil
}

func readConvertInput() (string, error) {
	if convertInput == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(convertInput)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", convertInput, err)
	}
	return string(data), nil
}
