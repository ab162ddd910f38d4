package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ukaji3/pinmap-go/internal/storage"
)

var imagesDir string

// imageFile describes one written sheet image.
type imageFile struct {
	Sheet    string `json:"sheet"`
	File     string `json:"file"`
	Source   string `json:"source"`
	WidthPx  int    `json:"width_px"`
	HeightPx int    `json:"height_px"`
}

func newImagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "images <input.xlsx>",
		Short: "Write the largest picture of every sheet to a directory",
		Args:  cobra.ExactArgs(1),
		RunE:  runImages,
	}
	cmd.Flags().StringVar(&imagesDir, "dir", "images", "Directory for the extracted images")
	return cmd
}

func runImages(cmd *cobra.Command, args []string) error {
	wb, err := openWorkbook(args[0])
	if err != nil {
		return err
	}
	defer wb.Close()

	if err := os.MkdirAll(imagesDir, 0755); err != nil {
		return err
	}

	index := wb.Images()
	files := make([]imageFile, 0, len(index.Sheets))
	for _, sheet := range index.Sheets {
		asset := index.Images[sheet]
		name := storage.UniqueName(imagesDir, storage.SanitizeFilename(sheet, "sheet")+asset.Extension)
		if err := os.WriteFile(filepath.Join(imagesDir, name), asset.Bytes, 0644); err != nil {
			return fmt.Errorf("failed to write image of sheet %q: %w", sheet, err)
		}
		files = append(files, imageFile{
			Sheet:    sheet,
			File:     name,
			Source:   asset.SourcePartPath,
			WidthPx:  asset.WidthPx,
			HeightPx: asset.HeightPx,
		})
	}
	return writeJSON(files)
}
