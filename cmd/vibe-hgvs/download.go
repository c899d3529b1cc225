package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// UCSC download server
const ucscBaseURL = "https://hgdownload.soe.ucsc.edu/goldenPath"

const refGeneFileName = "refGene.txt.gz"

// ucscURLs returns the refGene table and genome FASTA URLs for an assembly.
func ucscURLs(assembly string) (refGeneURL, genomeURL string, err error) {
	var db string
	switch strings.ToLower(assembly) {
	case "hg19", "grch37":
		db = "hg19"
	case "hg38", "grch38":
		db = "hg38"
	default:
		return "", "", fmt.Errorf("unsupported assembly %q (use hg19 or hg38)", assembly)
	}
	refGeneURL = fmt.Sprintf("%s/%s/database/%s", ucscBaseURL, db, refGeneFileName)
	genomeURL = fmt.Sprintf("%s/%s/bigZips/%s.fa.gz", ucscBaseURL, db, db)
	return refGeneURL, genomeURL, nil
}

func newDownloadCmd() *cobra.Command {
	var (
		outputDir  string
		withGenome bool
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download UCSC refGene transcripts (and optionally the genome)",
		Long: `Download the UCSC refGene table for an assembly. With --genome the
reference FASTA is downloaded too and stored uncompressed so it can be
indexed (about 3 GB).

Files go to ~/.vibe-hgvs/<assembly>/ by default, where the other commands
find the refGene file when no transcript source is configured.`,
		Example: `  vibe-hgvs download
  vibe-hgvs download --assembly hg19 --genome`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			assembly := viper.GetString("assembly")
			refGeneURL, genomeURL, err := ucscURLs(assembly)
			if err != nil {
				return err
			}

			destDir := outputDir
			if destDir == "" {
				destDir = defaultDataDir(assembly)
				if destDir == "" {
					return fmt.Errorf("cannot determine home directory")
				}
			}
			if err := os.MkdirAll(destDir, 0755); err != nil {
				return fmt.Errorf("cannot create directory %s: %w", destDir, err)
			}

			fmt.Printf("Downloading UCSC annotations for %s...\n", assembly)
			fmt.Printf("Destination: %s\n\n", destDir)

			refGeneFile := filepath.Join(destDir, refGeneFileName)
			if err := downloadFile(refGeneURL, refGeneFile, false); err != nil {
				return fmt.Errorf("downloading refGene: %w", err)
			}

			genomeFile := ""
			if withGenome {
				genomeFile = filepath.Join(destDir, strings.TrimSuffix(filepath.Base(genomeURL), ".gz"))
				if err := downloadFile(genomeURL, genomeFile, true); err != nil {
					return fmt.Errorf("downloading genome: %w", err)
				}
			}

			fmt.Printf("\nDownload complete!\n")
			fmt.Printf("To import transcripts for on-demand lookup, run:\n")
			fmt.Printf("  vibe-hgvs import --refgene %s --db %s\n",
				refGeneFile, filepath.Join(destDir, "transcripts.duckdb"))
			if genomeFile != "" {
				fmt.Printf("  vibe-hgvs config set genome.fasta %s\n", genomeFile)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default: ~/.vibe-hgvs/<assembly>/)")
	cmd.Flags().BoolVar(&withGenome, "genome", false, "Also download the reference genome FASTA")
	return cmd
}

// downloadFile downloads a file from URL to the destination path with
// progress, gunzipping the stream when decompress is set.
func downloadFile(url, destPath string, decompress bool) error {
	// Check if file already exists
	if info, err := os.Stat(destPath); err == nil {
		fmt.Printf("  %s already exists (%s), skipping\n", filepath.Base(destPath), formatSize(info.Size()))
		return nil
	}

	fmt.Printf("  Downloading %s...\n", filepath.Base(url))

	client := &http.Client{
		Timeout: 2 * time.Hour, // the genome is large
	}

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

	var downloaded int64
	pw := &progressWriter{
		total:      resp.ContentLength,
		downloaded: &downloaded,
		lastPrint:  time.Now(),
	}

	var src io.Reader = io.TeeReader(resp.Body, pw)
	if decompress {
		gz, gerr := gzip.NewReader(src)
		if gerr != nil {
			f.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("open gzip stream: %w", gerr)
		}
		defer gz.Close()
		src = gz
	}

	_, err = io.Copy(f, src)
	f.Close()

	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("download failed: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename file: %w", err)
	}

	fmt.Printf("\n    Done: %s\n", formatSize(downloaded))
	return nil
}

// progressWriter tracks download progress.
type progressWriter struct {
	total      int64
	downloaded *int64
	lastPrint  time.Time
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n := len(p)
	*pw.downloaded += int64(n)

	// Print progress every second
	if time.Since(pw.lastPrint) > time.Second {
		if pw.total > 0 {
			pct := float64(*pw.downloaded) / float64(pw.total) * 100
			fmt.Printf("\r    Progress: %s / %s (%.1f%%)  ",
				formatSize(*pw.downloaded), formatSize(pw.total), pct)
		} else {
			fmt.Printf("\r    Progress: %s  ", formatSize(*pw.downloaded))
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
