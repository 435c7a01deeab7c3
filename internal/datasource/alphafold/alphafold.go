// Package alphafold wraps the AlphaFold DB prediction API and parses
// per-residue pLDDT confidence from downloaded PDB files.
package alphafold

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/genescout/genescout/internal/restclient"
)

const BaseURL = "https://alphafold.ebi.ac.uk"

type Client struct {
	rc *restclient.Client
}

func New(rc *restclient.Client) *Client {
	return &Client{rc: rc}
}

// Prediction is the structure metadata for one UniProt accession.
type Prediction struct {
	ModelVersion string
	PDBURL       string
	CIFURL       string
}

// Prediction returns the latest model entry for an accession.
func (c *Client) Prediction(ctx context.Context, accession string) (*Prediction, error) {
	data, err := c.rc.Get(ctx, "/api/prediction/"+accession, nil)
	if err != nil {
		return nil, err
	}
	entries := gjson.ParseBytes(data).Array()
	if len(entries) == 0 {
		return nil, fmt.Errorf("no AlphaFold prediction for %s", accession)
	}
	// The API lists model versions oldest first.
	latest := entries[len(entries)-1]
	p := &Prediction{
		ModelVersion: latest.Get("latestVersion").String(),
		PDBURL:       latest.Get("pdbUrl").String(),
		CIFURL:       latest.Get("cifUrl").String(),
	}
	if p.PDBURL == "" {
		return nil, fmt.Errorf("AlphaFold entry for %s has no PDB URL", accession)
	}
	return p, nil
}

// DownloadPDB streams a structure file to destPath. Existing files are kept
// as-is; the write goes through a temp file so an interrupted download
// never leaves a truncated structure behind.
func DownloadPDB(pdbURL, destPath string) error {
	if _, err := os.Stat(destPath); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("create structures directory: %w", err)
	}

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Get(pdbURL)
	if err != nil {
		return fmt.Errorf("download structure: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download structure: HTTP error %s", resp.Status)
	}

	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create structure file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write structure file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, destPath)
}

// ResidueConfidence is the pLDDT score for one residue.
type ResidueConfidence struct {
	Residue int
	PLDDT   float64
}

// PLDDTScores extracts per-residue pLDDT from a PDB file. AlphaFold stores
// the score in the B-factor column of ATOM records; every atom of a residue
// carries the same value, so the last seen wins.
func PLDDTScores(path string) ([]ResidueConfidence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open PDB file: %w", err)
	}
	defer f.Close()

	scores := make(map[int]float64)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "ATOM") || len(line) < 66 {
			continue
		}
		residue, err := strconv.Atoi(strings.TrimSpace(line[22:26]))
		if err != nil {
			continue
		}
		plddt, err := strconv.ParseFloat(strings.TrimSpace(line[60:66]), 64)
		if err != nil {
			continue
		}
		scores[residue] = plddt
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read PDB file: %w", err)
	}

	out := make([]ResidueConfidence, 0, len(scores))
	for residue, plddt := range scores {
		out = append(out, ResidueConfidence{Residue: residue, PLDDT: plddt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Residue < out[j].Residue })
	return out, nil
}
