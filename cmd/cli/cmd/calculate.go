// Package cmd - calculate command
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pricing-engine/adapters/document"
	"pricing-engine/adapters/storage"
	"pricing-engine/core/catalog"
	"pricing-engine/core/determinism"
	"pricing-engine/core/engine"
	"pricing-engine/core/output"
	"pricing-engine/internal/config"
	"pricing-engine/internal/logging"
)

var (
	nodesFile        string
	strategyFile     string
	inputsFile       string
	requestFile      string
	catalogName      string
	strategyName     string
	outputFormat     string
	saveResult       bool
	calculateDetails bool
)

// calculateCmd represents the calculate command
var calculateCmd = &cobra.Command{
	Use:   "calculate",
	Short: "Evaluate a strategy and print the price breakdown",
	Long: `Evaluate a pricing strategy against a catalog and a set of inputs.

Documents may be JSON, YAML or HCL; the format follows the file extension.
A request file bundles nodes, strategy and inputs in one document. Stored
catalogs and strategies can be used by name instead of files.

Examples:
  pricing calculate --nodes catalog.json --strategy strategy.json --inputs inputs.json
  pricing calculate --request request.hcl --format json
  pricing calculate --catalog print --strategy-name default --inputs inputs.yaml --save`,
	Args: cobra.NoArgs,
	RunE: runCalculate,
}

func init() {
	rootCmd.AddCommand(calculateCmd)

	calculateCmd.Flags().StringVar(&nodesFile, "nodes", "", "catalog file")
	calculateCmd.Flags().StringVar(&strategyFile, "strategy", "", "strategy file")
	calculateCmd.Flags().StringVar(&inputsFile, "inputs", "", "inputs file")
	calculateCmd.Flags().StringVar(&requestFile, "request", "", "request file with nodes, strategy and inputs")
	calculateCmd.Flags().StringVar(&catalogName, "catalog", "", "stored catalog name")
	calculateCmd.Flags().StringVar(&strategyName, "strategy-name", "", "stored strategy name")
	calculateCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "output format (cli, json, markdown, html)")
	calculateCmd.Flags().BoolVar(&saveResult, "save", false, "store the result")
	calculateCmd.Flags().BoolVarP(&calculateDetails, "details", "d", false, "show descriptions and calculations")

	calculateCmd.MarkFlagsMutuallyExclusive("request", "nodes")
	calculateCmd.MarkFlagsMutuallyExclusive("request", "inputs")
	calculateCmd.MarkFlagsMutuallyExclusive("nodes", "catalog")
	calculateCmd.MarkFlagsMutuallyExclusive("strategy", "strategy-name")
}

func runCalculate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	startTime := time.Now()
	cfg := config.Get()

	format, err := output.ParseFormat(outputFormat)
	if outputFormat == "" {
		format, err = output.ParseFormat(cfg.Output.DefaultFormat)
	}
	if err != nil {
		return err
	}

	req, err := loadRequest()
	if err != nil {
		return err
	}

	// Stored documents are only opened when the command needs them
	var store storage.Store
	if catalogName != "" || strategyName != "" || saveResult {
		store, err = openStore()
		if err != nil {
			return err
		}
		defer store.Close()
	}
	if catalogName != "" {
		stored, err := store.GetCatalog(ctx, catalogName)
		if err != nil {
			return err
		}
		req.Nodes = stored.Nodes
	}
	if strategyName != "" {
		stored, err := store.GetStrategy(ctx, strategyName)
		if err != nil {
			return err
		}
		req.Strategy = stored.Strategy
	}
	if req.Strategy == nil {
		return fmt.Errorf("a strategy is required (--strategy, --strategy-name or --request)")
	}

	requestID := "calc-" + uuid.NewString()
	hash, err := determinism.HashJSON(req)
	if err != nil {
		return err
	}

	logging.Debug("calculating",
		zap.String("request_id", requestID),
		zap.Int("nodes", len(req.Nodes)),
		zap.Int("steps", len(req.Strategy.Steps)),
		zap.Int("inputs", len(req.Inputs)))

	result, err := newEngine().Calculate(req.Nodes, req.Strategy, req.Inputs)
	if err != nil {
		return err
	}

	if saveResult {
		stored := &storage.StoredResult{
			RequestID: requestID,
			Catalog:   catalogName,
			Strategy:  strategyName,
			InputHash: hash.Hex(),
			Inputs:    req.Inputs,
			Result:    result,
		}
		if err := store.SaveResult(ctx, stored); err != nil {
			return err
		}
		logging.Info("result saved", zap.String("id", stored.ID))
	}

	report := &output.Report{
		Result:   result,
		Currency: catalog.Currency(req.Nodes),
		Metadata: output.Metadata{
			RequestID: requestID,
			Timestamp: startTime.UTC().Format(time.RFC3339),
			Duration:  time.Since(startTime).String(),
			InputHash: hash.Short(),
			Strategy:  strategyName,
			Version:   engine.Version,
		},
	}

	details := cfg.Output.ShowDetails
	if cmd.Flags().Changed("details") {
		details = calculateDetails
	}
	return output.NewRegistry(output.Options{ShowDetails: details}).Render(cmd.OutOrStdout(), format, report)
}

// loadRequest reads the request file or the separate document files
func loadRequest() (*document.Request, error) {
	if requestFile != "" {
		req, err := document.LoadRequest(requestFile)
		if err != nil {
			return nil, err
		}
		return req, nil
	}

	req := &document.Request{}
	var err error
	if nodesFile != "" {
		if req.Nodes, err = document.LoadCatalog(nodesFile); err != nil {
			return nil, err
		}
	}
	if strategyFile != "" {
		if req.Strategy, err = document.LoadStrategy(strategyFile); err != nil {
			return nil, err
		}
	}
	if inputsFile != "" {
		if req.Inputs, err = document.LoadInputs(inputsFile); err != nil {
			return nil, err
		}
	}
	return req, nil
}
