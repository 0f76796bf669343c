package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/learneasy/internal/config"
	"github.com/felixgeelhaar/learneasy/internal/content"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create ~/.learneasy with a default configuration",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func init() {
	initCmd.Flags().Bool("force", false, "Overwrite an existing config.yaml with defaults")
	initCmd.Flags().Bool("export-content", false, "Copy the built-in catalog to ~/.learneasy/content for editing")
}

func runInit(cmd *cobra.Command, args []string) error {
	fmt.Println("LearnEasy - Setup")
	fmt.Println("=================")
	fmt.Println()

	fmt.Print("Creating ~/.learneasy directory structure... ")
	baseDir, err := config.EnsureLearnEasyDir()
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	fmt.Println("✓")

	force, _ := cmd.Flags().GetBool("force")
	configPath := filepath.Join(baseDir, "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) || force {
		fmt.Print("Writing default configuration... ")
		if err := config.SaveLocalConfig(config.DefaultLocalConfig()); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Println("✓")
	} else {
		fmt.Println("Configuration already exists ✓")
	}

	if export, _ := cmd.Flags().GetBool("export-content"); export {
		dest := filepath.Join(baseDir, "content")
		fmt.Print("Exporting built-in catalog... ")
		n, err := exportCatalog(content.DefaultFS(), dest)
		if err != nil {
			return fmt.Errorf("export catalog: %w", err)
		}
		fmt.Printf("✓ (%d files)\n", n)
		fmt.Println("The daemon loads this directory on its next start.")
	}

	fmt.Println()
	fmt.Printf("Config: %s\n", configPath)
	fmt.Println("Start the daemon with: learneasy start")
	return nil
}

// exportCatalog copies every file of src into dest, keeping files that
// already exist
func exportCatalog(src fs.FS, dest string) (int, error) {
	copied := 0
	err := fs.WalkDir(src, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(dest, filepath.FromSlash(path))
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		if _, err := os.Stat(target); err == nil {
			return nil
		}

		data, err := fs.ReadFile(src, path)
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0644); err != nil {
			return err
		}
		copied++
		return nil
	})
	return copied, err
}
