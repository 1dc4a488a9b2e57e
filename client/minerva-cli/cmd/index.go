package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	indexCollection string
	indexUserID     string
	indexForce      bool
)

var indexCmd = &cobra.Command{
	Use:   "index [file-path]",
	Short: "Index a file into a collection",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runIndex(args[0])
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().StringVarP(&indexCollection, "collection", "c", "", "target collection (required)")
	indexCmd.Flags().StringVarP(&indexUserID, "user", "u", "", "owner user id")
	indexCmd.Flags().BoolVarP(&indexForce, "force", "f", false, "re-embed even when the document is already indexed")
	indexCmd.MarkFlagRequired("collection")
}

func runIndex(path string) {
	// The server resolves the path, so it must be absolute to be
	// meaningful across working directories.
	absPath, err := filepath.Abs(path)
	if err != nil {
		log.Fatalf("Error resolving path: %v", err)
	}

	payload := map[string]interface{}{
		"path":       absPath,
		"collection": indexCollection,
		"force":      indexForce,
	}
	if indexUserID != "" {
		payload["userId"] = indexUserID
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		log.Fatalf("Error creating JSON payload: %v", err)
	}

	resp, err := http.Post(serverURL+"/api/v1/index", "application/json", bytes.NewBuffer(jsonPayload))
	if err != nil {
		log.Fatalf("Error sending index request: %v", err)
	}
	defer resp.Body.Close()

	var result struct {
		Indexed    bool   `json:"indexed"`
		DocumentID string `json:"documentId"`
		Error      string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Fatalf("Error decoding response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Indexing failed (%d): %s", resp.StatusCode, result.Error)
	}

	fmt.Printf("Indexed: %v\nDocument ID: %s\n", result.Indexed, result.DocumentID)
}
