package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000/api"

// Pretty print JSON helper
func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

// Request helper
func sendRequest(method, url string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{} // No timeout, streaming can be slow
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func main() {
	color.Cyan("🚀 Starting Query API Test\n")

	// 1. Health check
	color.Yellow("\n1. Health Check")
	resp, body, err := sendRequest("GET", "/query/v1/health", nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var healthResp map[string]interface{}
	json.Unmarshal(body, &healthResp)
	prettyPrint(healthResp)

	// 2. Chat intent (no retrieval expected)
	color.Yellow("\n2. Chat Query (greeting)")
	resp, body, err = sendRequest("POST", "/query/v1", map[string]interface{}{
		"query": "Hello! Who are you?",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var chatResp map[string]interface{}
	json.Unmarshal(body, &chatResp)
	prettyPrint(chatResp)

	// 3. Search intent (full workflow)
	color.Yellow("\n3. Search Query (framework question)")
	resp, body, err = sendRequest("POST", "/query/v1", map[string]interface{}{
		"query": "What does the framework require for access control?",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var searchResp map[string]interface{}
	json.Unmarshal(body, &searchResp)
	prettyPrint(searchResp)

	// 4. Streaming query (SSE)
	color.Yellow("\n4. Streaming Query (SSE)")
	streamBody, _ := json.Marshal(map[string]interface{}{
		"query": "What does the framework say about incident response?",
	})
	req, _ := http.NewRequest("POST", baseURL+"/query/v1/stream", bytes.NewBuffer(streamBody))
	req.Header.Set("Content-Type", "application/json")
	streamResp, err := http.DefaultClient.Do(req)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	defer streamResp.Body.Close()
	color.Green("Status: %s", streamResp.Status)

	tokens := 0
	scanner := bufio.NewScanner(streamResp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var event map[string]interface{}
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
			continue
		}
		switch event["type"] {
		case "token":
			tokens++
			fmt.Print(event["token"])
		case "sources":
			fmt.Println()
			color.Green("Received %d token events, terminal sources event:", tokens)
			prettyPrint(event["sources"])
		}
	}

	color.Cyan("\n✅ Query API Test Complete")
}
