package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestValidateFileExists(t *testing.T) {
	// Create temporary test files
	tmpDir := t.TempDir()
	validFile := filepath.Join(tmpDir, "valid.csv")
	if err := os.WriteFile(validFile, []byte("test"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	tests := []struct {
		name        string
		filePath    string
		description string
		expectError bool
	}{
		{
			name:        "valid file",
			filePath:    validFile,
			description: "test file",
			expectError: false,
		},
		{
			name:        "empty path",
			filePath:    "",
			description: "test file",
			expectError: true,
		},
		{
			name:        "non-existent file",
			filePath:    "/non/existent/file.csv",
			description: "test file",
			expectError: true,
		},
		{
			name:        "directory instead of file",
			filePath:    tmpDir,
			description: "test file",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFileExists(tt.filePath, tt.description)

			if tt.expectError && err == nil {
				t.Errorf("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateAllocateFlags(t *testing.T) {
	// Create temporary test files
	tmpDir := t.TempDir()
	stockFile := filepath.Join(tmpDir, "estoque.csv")
	orderFile := filepath.Join(tmpDir, "pedido.csv")

	if err := os.WriteFile(stockFile, []byte("PRODUTO;QTDE;GRUPO\n100;5;QM"), 0644); err != nil {
		t.Fatalf("failed to create stock file: %v", err)
	}
	if err := os.WriteFile(orderFile, []byte("Codigo;Qtde\n100;2"), 0644); err != nil {
		t.Fatalf("failed to create order file: %v", err)
	}

	tests := []struct {
		name          string
		setupFlags    func()
		expectError   bool
		errorContains string
	}{
		{
			name: "valid flags",
			setupFlags: func() {
				viper.Set("stock-files", []string{stockFile})
				viper.Set("order-files", []string{orderFile})
				viper.Set("output-format", "console")
			},
			expectError: false,
		},
		{
			name: "missing stock files",
			setupFlags: func() {
				viper.Set("stock-files", []string{})
				viper.Set("order-files", []string{orderFile})
			},
			expectError:   true,
			errorContains: "at least one stock-file is required",
		},
		{
			name: "missing order files",
			setupFlags: func() {
				viper.Set("stock-files", []string{stockFile})
				viper.Set("order-files", []string{})
			},
			expectError:   true,
			errorContains: "at least one order-file is required",
		},
		{
			name: "invalid output format",
			setupFlags: func() {
				viper.Set("stock-files", []string{stockFile})
				viper.Set("order-files", []string{orderFile})
				viper.Set("output-format", "invalid")
			},
			expectError:   true,
			errorContains: "invalid output format",
		},
		{
			name: "non-existent stock file",
			setupFlags: func() {
				viper.Set("stock-files", []string{"/missing/estoque.csv"})
				viper.Set("order-files", []string{orderFile})
				viper.Set("output-format", "console")
			},
			expectError:   true,
			errorContains: "does not exist",
		},
		{
			name: "archive directory missing",
			setupFlags: func() {
				viper.Set("stock-files", []string{stockFile})
				viper.Set("order-files", []string{orderFile})
				viper.Set("output-format", "console")
				viper.Set("archive", "/missing/dir/pedidos.zip")
			},
			expectError:   true,
			errorContains: "output directory does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			viper.Set("output-format", "console")
			viper.Set("delimiter", ";")
			tt.setupFlags()

			err := validateAllocateFlags(allocateCmd, nil)

			if tt.expectError {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				if tt.errorContains != "" && !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("error %q should contain %q", err.Error(), tt.errorContains)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestAllocateCommandHelp(t *testing.T) {
	cmd := allocateCmd

	for _, flag := range []string{"stock-files", "order-files", "output-format", "archive", "decrement-on-allocate"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("%s flag not found", flag)
		}
	}

	// Test help output contains key information
	var helpOutput bytes.Buffer
	cmd.SetOut(&helpOutput)
	cmd.Help()

	helpText := helpOutput.String()

	expectedSections := []string{
		"Usage:",
		"Examples:",
		"Flags:",
		"--stock-files",
		"--order-files",
		"--output-format",
	}

	for _, section := range expectedSections {
		if !strings.Contains(helpText, section) {
			t.Errorf("help text should contain '%s'", section)
		}
	}
}

func TestConvertCommandHelp(t *testing.T) {
	cmd := convertCmd

	for _, flag := range []string{"input", "output-dir"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("%s flag not found", flag)
		}
	}
}
