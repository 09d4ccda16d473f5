package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/raykavin/pricechart/pkg/feed"
	"github.com/raykavin/pricechart/pkg/storage"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

const predictionSuffix = ".prediction"

// Import command flags
var (
	importSymbol     string
	importPrediction string
)

func buildImportCmd() *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Import price files into the chart store",
		Long: "Import price files into the chart store. The symbol is taken from the file name " +
			"(data/gp.csv is GP) and a sibling gp.prediction.json or gp.prediction.csv is " +
			"imported as its prediction.",
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	// Add flags
	importCmd.Flags().StringVarP(&importSymbol, "symbol", "s", "", "Symbol of a single imported file")
	importCmd.Flags().StringVar(&importPrediction, "prediction", "", "Prediction file of a single imported file")

	return importCmd
}

func runImport(_ *cobra.Command, args []string) error {
	files := primaryFiles(args)
	if len(files) == 0 {
		return errors.New("no primary files to import")
	}

	if (importSymbol != "" || importPrediction != "") && len(files) > 1 {
		return errors.New("--symbol and --prediction need exactly one file")
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	progressBar := progressbar.Default(int64(len(files)))

	var failed int
	for _, file := range files {
		source := feed.Source{
			Symbol:     symbolOf(file),
			Primary:    file,
			Prediction: predictionOf(file),
		}
		if importSymbol != "" {
			source.Symbol = importSymbol
		}
		if importPrediction != "" {
			source.Prediction = importPrediction
		}

		if err := importSource(store, source); err != nil {
			log.WithError(err).WithField("file", file).Error("import failed")
			failed++
		}

		if err := progressBar.Add(1); err != nil {
			log.Warnf("Failed to update progress bar: %s", err.Error())
		}
	}

	if err := progressBar.Close(); err != nil {
		log.Warnf("Failed to close progress bar: %s", err.Error())
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to import", failed, len(files))
	}

	log.Infof("Imported %d files into %s", len(files), cfg.Store.Path)
	return nil
}

func importSource(store storage.Store, source feed.Source) error {
	batch, err := feed.Load(source)
	if err != nil {
		return err
	}
	return store.Save(batch)
}

// primaryFiles skips prediction files given alongside their primary file
func primaryFiles(args []string) []string {
	files := make([]string, 0, len(args))
	for _, file := range args {
		base := strings.TrimSuffix(file, filepath.Ext(file))
		if strings.HasSuffix(base, predictionSuffix) {
			continue
		}
		files = append(files, file)
	}
	return files
}

// predictionOf finds the prediction file next to a primary file
func predictionOf(file string) string {
	base := strings.TrimSuffix(file, filepath.Ext(file))
	for _, ext := range []string{".json", ".csv"} {
		candidate := base + predictionSuffix + ext
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
