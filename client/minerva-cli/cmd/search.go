package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

var (
	searchCollections []string
	searchTopK        int
	searchUserID      string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the indexed collections",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runSearch(args[0])
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringSliceVarP(&searchCollections, "collections", "c", nil, "collections to search (default: server-configured set)")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of results to return")
	searchCmd.Flags().StringVarP(&searchUserID, "user", "u", "", "restrict results to this user id")
}

func runSearch(query string) {
	payload := map[string]interface{}{
		"query": query,
	}
	if len(searchCollections) > 0 {
		payload["collections"] = searchCollections
	}
	if searchTopK > 0 {
		payload["topK"] = searchTopK
	}
	if searchUserID != "" {
		payload["filters"] = map[string]string{"user_id": searchUserID}
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		log.Fatalf("Error creating JSON payload: %v", err)
	}

	resp, err := http.Post(serverURL+"/api/v1/search", "application/json", bytes.NewBuffer(jsonPayload))
	if err != nil {
		log.Fatalf("Error sending search request: %v", err)
	}
	defer resp.Body.Close()

	var result struct {
		Results []struct {
			ChunkID    string  `json:"chunkId"`
			Content    string  `json:"content"`
			Collection string  `json:"collection"`
			Score      float64 `json:"score"`
		} `json:"results"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Fatalf("Error decoding response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Search failed (%d): %s", resp.StatusCode, result.Error)
	}

	if len(result.Results) == 0 {
		fmt.Println("No results.")
		return
	}
	for i, hit := range result.Results {
		snippet := hit.Content
		if len(snippet) > 200 {
			snippet = snippet[:200] + "..."
		}
		snippet = strings.ReplaceAll(snippet, "\n", " ")
		fmt.Printf("%2d. [%s] %s (score %.3f)\n    %s\n", i+1, hit.Collection, hit.ChunkID, hit.Score, snippet)
	}
}
