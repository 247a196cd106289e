package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

// Gene Ontology release URL (basic edition: is_a/part_of only, acyclic).
const (
	goBasicURL  = "https://purl.obolibrary.org/obo/go/go-basic.obo"
	goBasicName = "go-basic.obo"
)

func newDownloadCmd() *cobra.Command {
	var (
		outputDir string
		url       string
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the Gene Ontology (go-basic.obo)",
		Long: `Download the basic edition of the Gene Ontology. Commands that need an
ontology use ~/.vibe-coexp/go-basic.obo when --ontology is not given.`,
		Example: `  vibe-coexp download
  vibe-coexp download --output /data/go --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputDir == "" {
				dir, err := defaultDataDir()
				if err != nil {
					return err
				}
				outputDir = dir
			}
			if err := os.MkdirAll(outputDir, 0755); err != nil {
				return fmt.Errorf("cannot create directory %s: %w", outputDir, err)
			}

			w := cmd.OutOrStdout()
			dest := filepath.Join(outputDir, goBasicName)
			if force {
				os.Remove(dest)
			}
			fmt.Fprintf(w, "Downloading Gene Ontology to %s\n", outputDir)
			if err := downloadFile(w, url, dest); err != nil {
				return fmt.Errorf("downloading ontology: %w", err)
			}
			fmt.Fprintf(w, "\nDownload complete!\n")
			return nil
		},
	}

	cmd.Flags().StringVar(&outputDir, "output", "", "Output directory (default: ~/.vibe-coexp/)")
	cmd.Flags().StringVar(&url, "url", goBasicURL, "Ontology URL")
	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing file")

	return cmd
}

// defaultDataDir returns ~/.vibe-coexp.
func defaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".vibe-coexp"), nil
}

// resolveOntology returns path, or the downloaded ontology when path is
// empty.
func resolveOntology(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	dir, err := defaultDataDir()
	if err != nil {
		return "", err
	}
	p := filepath.Join(dir, goBasicName)
	if _, err := os.Stat(p); err != nil {
		return "", usageError{fmt.Errorf("no ontology given and %s not found (run 'vibe-coexp download' or pass --ontology)", p)}
	}
	return p, nil
}

// downloadFile downloads url to destPath, printing progress to w. An
// existing destination is left alone.
func downloadFile(w io.Writer, url, destPath string) error {
	if info, err := os.Stat(destPath); err == nil {
		fmt.Fprintf(w, "  %s already exists (%s), skipping\n", filepath.Base(destPath), formatSize(info.Size()))
		return nil
	}

	fmt.Fprintf(w, "  Downloading %s...\n", filepath.Base(destPath))

	client := &http.Client{Timeout: 10 * time.Minute}
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %s", resp.Status)
	}

	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	pw := &progressWriter{out: w, total: resp.ContentLength, lastPrint: time.Now()}
	_, err = io.Copy(f, io.TeeReader(resp.Body, pw))
	f.Close()
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("download failed: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename file: %w", err)
	}

	fmt.Fprintf(w, "    Done: %s\n", formatSize(pw.downloaded))
	return nil
}

// progressWriter tracks download progress.
type progressWriter struct {
	out        io.Writer
	total      int64
	downloaded int64
	lastPrint  time.Time
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n := len(p)
	pw.downloaded += int64(n)

	if time.Since(pw.lastPrint) > time.Second {
		if pw.total > 0 {
			pct := float64(pw.downloaded) / float64(pw.total) * 100
			fmt.Fprintf(pw.out, "\r    Progress: %s / %s (%.1f%%)  ",
				formatSize(pw.downloaded), formatSize(pw.total), pct)
		} else {
			fmt.Fprintf(pw.out, "\r    Progress: %s  ", formatSize(pw.downloaded))
		}
		pw.lastPrint = time.Now()
	}

	return n, nil
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
