package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/openplace/launchpad/internal/gallery"
)

func (a *app) galleryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "Manage imported designs",
	}
	cmd.AddCommand(a.galleryAddCmd(), a.galleryListCmd())
	return cmd
}

func (a *app) openGallery() (*gallery.Store, error) {
	return gallery.Open(filepath.Join(a.cacheDir(), "gallery"))
}

func (a *app) galleryAddCmd() *cobra.Command {
	var (
		title  string
		kind   string
		author string
		image  string
	)
	cmd := &cobra.Command{
		Use:   "add <id> <json-file>",
		Short: "Register a design file in the gallery",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openGallery()
			if err != nil {
				return err
			}
			defer store.Close()

			item := gallery.Item{
				ID:        args[0],
				Title:     title,
				Kind:      kind,
				Author:    author,
				JSONPath:  args[1],
				ImagePath: image,
			}
			if item.Title == "" {
				item.Title = args[0]
			}
			if err := store.Add(item); err != nil {
				return err
			}
			color.Green("Added design %s", item.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "display title")
	cmd.Flags().StringVar(&kind, "kind", "design", "entry kind")
	cmd.Flags().StringVar(&author, "author", "", "author name")
	cmd.Flags().StringVar(&image, "image", "", "preview image path")
	return cmd
}

func (a *app) galleryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List gallery entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openGallery()
			if err != nil {
				return err
			}
			defer store.Close()

			items, err := store.List()
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Println("Gallery is empty")
				return nil
			}
			for _, item := range items {
				fmt.Printf("%-20s %-30s %-10s %-15s %s\n",
					item.ID, item.Title, item.Kind, item.Author,
					time.Unix(item.AddedAt, 0).Format("2006-01-02"))
			}
			return nil
		},
	}
}
