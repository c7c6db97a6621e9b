// Debug tool to test Flickr fetching directly
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/log"

	"github.com/thesavant42/photofeed/internal/api"
	"github.com/thesavant42/photofeed/internal/config"
	"github.com/thesavant42/photofeed/internal/models"
)

func main() {
	mode := models.ModeRecent
	query := ""
	if len(os.Args) > 1 {
		mode = models.ModeSearch
		query = strings.Join(os.Args[1:], " ")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           log.DebugLevel,
		ReportTimestamp: true,
	})

	params := api.BuildPhotosQuery(cfg.APIKey, mode, query, 1)
	fmt.Printf("Testing %s fetch\n", mode.Method())
	fmt.Printf("Query: %s\n", params.Encode())

	client := api.NewFlickrClient(logger, api.FlickrConfig{
		Endpoint: cfg.Endpoint,
		APIKey:   cfg.APIKey,
		Timeout:  cfg.Timeout,
	})

	var photos []models.PhotoRecord
	var fetchErr error
	err = spinner.New().
		Title("Fetching page 1...").
		Action(func() {
			photos, fetchErr = client.FetchPhotos(context.Background(), mode, query, 1)
		}).
		Run()
	if err != nil {
		fmt.Printf("ERROR: spinner: %v\n", err)
		os.Exit(1)
	}
	if fetchErr != nil {
		fmt.Printf("ERROR: %v\n", fetchErr)
		if api.IsNetworkFailure(fetchErr) {
			fmt.Println("(network failure)")
		}
		os.Exit(1)
	}

	fmt.Printf("Records with images: %d\n", len(photos))

	fmt.Println("\nFirst records:")
	for i, p := range photos {
		if i >= 3 {
			fmt.Printf("  ... and %d more\n", len(photos)-3)
			break
		}
		host, _ := api.ImageHost(p.ImageURL)
		fmt.Printf("  %d. %s %q (%s)\n", i+1, p.ID, p.DisplayTitle(), host)
	}
}
