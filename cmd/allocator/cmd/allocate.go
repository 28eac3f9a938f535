package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"order-allocation-service/cmd/allocator/config"
	"order-allocation-service/internal/allocator"
	"order-allocation-service/internal/parsers"
	"order-allocation-service/internal/reporter"
	"order-allocation-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the allocate command
var (
	stockFiles          []string
	orderFiles          []string
	outputFormat        string
	outputFile          string
	archiveFile         string
	delimiter           string
	decrementOnAllocate bool
	showProgress        bool
	showStock           bool
)

// allocateCmd represents the allocate command
var allocateCmd = &cobra.Command{
	Use:   "allocate",
	Short: "Allocate order lines against aggregated stock",
	Long: `Allocate reads stock exports and order files, aggregates the stock by
product and pool, and decides per order line which pool can fulfill the
requested quantity. Lines no pool fully covers are reported without stock.

This command requires:
- One or more stock files (CSV, semicolon-delimited, or XLSX)
- One or more order files (CSV, semicolon-delimited, or XLSX)

Examples:
  # Basic allocation
  allocator allocate --stock-files estoque_qm.csv,estoque_mf.csv --order-files pedido.csv

  # Multiple order files with a JSON report
  allocator allocate --stock-files estoque.csv --order-files p1.csv,p2.csv \
    --output-format json --output-file report.json

  # Export per-file, per-pool CSV partitions as a zip bundle
  allocator allocate --stock-files estoque.csv --order-files pedido.csv \
    --archive pedidos.zip

  # Consume stock as lines allocate instead of judging each line
  # against the opening snapshot
  allocator allocate --stock-files estoque.csv --order-files pedido.csv \
    --decrement-on-allocate`,

	PreRunE: validateAllocateFlags,
	RunE:    runAllocate,
}

func init() {
	rootCmd.AddCommand(allocateCmd)

	// Required flags
	allocateCmd.Flags().StringSliceVarP(&stockFiles, "stock-files", "s", []string{}, "comma-separated paths to stock files (required)")
	allocateCmd.Flags().StringSliceVarP(&orderFiles, "order-files", "p", []string{}, "comma-separated paths to order files (required)")

	// Output flags
	allocateCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	allocateCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")
	allocateCmd.Flags().StringVar(&archiveFile, "archive", "", "write per-file, per-pool CSV partitions to this zip archive")

	// Input format flags
	allocateCmd.Flags().StringVar(&delimiter, "delimiter", ";", "CSV field delimiter")

	// Behavior flags
	allocateCmd.Flags().BoolVar(&decrementOnAllocate, "decrement-on-allocate", false, "consume stock as lines allocate")
	allocateCmd.Flags().BoolVar(&showProgress, "progress", false, "show progress indicators")
	allocateCmd.Flags().BoolVar(&showStock, "show-stock", false, "include the aggregated stock snapshot in the report")

	// Mark required flags
	allocateCmd.MarkFlagRequired("stock-files")
	allocateCmd.MarkFlagRequired("order-files")

	// Bind flags to viper
	viper.BindPFlag("stock-files", allocateCmd.Flags().Lookup("stock-files"))
	viper.BindPFlag("order-files", allocateCmd.Flags().Lookup("order-files"))
	viper.BindPFlag("output-format", allocateCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", allocateCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("archive", allocateCmd.Flags().Lookup("archive"))
	viper.BindPFlag("delimiter", allocateCmd.Flags().Lookup("delimiter"))
	viper.BindPFlag("decrement-on-allocate", allocateCmd.Flags().Lookup("decrement-on-allocate"))
	viper.BindPFlag("progress", allocateCmd.Flags().Lookup("progress"))
	viper.BindPFlag("show-stock", allocateCmd.Flags().Lookup("show-stock"))
}

func validateAllocateFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	stockFiles = viper.GetStringSlice("stock-files")
	orderFiles = viper.GetStringSlice("order-files")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	archiveFile = viper.GetString("archive")
	delimiter = viper.GetString("delimiter")
	decrementOnAllocate = viper.GetBool("decrement-on-allocate")
	showProgress = viper.GetBool("progress")
	showStock = viper.GetBool("show-stock")

	// Validate required flags
	if len(stockFiles) == 0 {
		return fmt.Errorf("at least one stock-file is required")
	}
	if len(orderFiles) == 0 {
		return fmt.Errorf("at least one order-file is required")
	}

	// Validate file existence
	for i, stockFile := range stockFiles {
		if err := validateFileExists(stockFile, fmt.Sprintf("stock file %d", i+1)); err != nil {
			return err
		}
	}
	for i, orderFile := range orderFiles {
		if err := validateFileExists(orderFile, fmt.Sprintf("order file %d", i+1)); err != nil {
			return err
		}
	}

	// Validate output format
	validFormats := map[string]bool{"console": true, "json": true, "csv": true}
	if !validFormats[outputFormat] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", outputFormat)
	}

	// Validate output destinations
	for _, path := range []string{outputFile, archiveFile} {
		if path == "" {
			continue
		}
		dir := filepath.Dir(path)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	// Check if file is readable
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func runAllocate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if err := configureLogging(); err != nil {
		return err
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting allocation...\n")
		fmt.Fprintf(os.Stderr, "Stock files: %s\n", strings.Join(stockFiles, ", "))
		fmt.Fprintf(os.Stderr, "Order files: %s\n", strings.Join(orderFiles, ", "))
		fmt.Fprintf(os.Stderr, "Output format: %s\n", outputFormat)
		if outputFile != "" {
			fmt.Fprintf(os.Stderr, "Output file: %s\n", outputFile)
		}
		if archiveFile != "" {
			fmt.Fprintf(os.Stderr, "Archive: %s\n", archiveFile)
		}
	}

	handler := NewCLIErrorHandler()

	// Create configurations
	loaderConfig, err := config.CreateLoaderConfig(delimiter)
	if err != nil {
		return fmt.Errorf("failed to create loader config: %w", err)
	}

	// Create allocation service
	service := allocator.NewAllocationService(parsers.NewTableLoader(loaderConfig))

	request := &allocator.AllocationRequest{
		StockFiles:   stockFiles,
		OrderFiles:   orderFiles,
		Engine:       config.CreateEngineConfig(decrementOnAllocate),
		ShowProgress: showProgress,
	}

	result, err := service.ProcessAllocation(ctx, request)
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	// Generate report
	reportConfig := config.CreateReportConfig(outputFormat)
	reportConfig.IncludeStockPreview = showStock
	reportGenerator, err := reporter.NewReportGenerator(reportConfig)
	if err != nil {
		return fmt.Errorf("failed to create report generator: %w", err)
	}

	output := os.Stdout
	if outputFile != "" {
		output, err = os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	}

	if err := reportGenerator.GenerateReport(result, output); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	// Write the export bundle
	if archiveFile != "" {
		if err := writeArchive(archiveFile, result); err != nil {
			os.Exit(handler.HandleError(err))
		}
	}

	// Show completion message
	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nAllocation completed successfully.\n")
		fmt.Fprintf(os.Stderr, "Processed %d order lines: %d fulfilled, %d without stock.\n",
			result.Summary.TotalLines, result.Summary.FulfilledLines, result.Summary.UnfulfilledLines)
		if len(result.SkippedFiles) > 0 {
			fmt.Fprintf(os.Stderr, "Skipped %d order files with unresolvable columns.\n", len(result.SkippedFiles))
		}
		fmt.Fprintf(os.Stderr, "Processing time: %v\n", result.Duration)
	}

	return nil
}

func writeArchive(path string, result *allocator.AllocationResult) error {
	partitions := reporter.PartitionRecords(result.Records)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer file.Close()

	if err := reporter.WriteArchive(file, partitions); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Wrote %d export partitions to %s\n", len(partitions), path)
	}
	return nil
}

func configureLogging() error {
	log, err := logger.NewLogger(config.CreateLoggerConfig(viper.GetBool("verbose")))
	if err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	logger.SetGlobalLogger(log)
	return nil
}
