// seed_reports.go: standalone script to submit demo subjects to the Scorecard API.
//
// Usage:
//
//	go run scripts/seed_reports.go -api http://localhost:8700 -client seed
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
)

type reportRequest struct {
	Pipeline string                        `json:"pipeline"`
	Subject  string                        `json:"subject"`
	Inputs   map[string]map[string]float64 `json:"inputs"`
}

type reportResponse struct {
	ID           string  `json:"id"`
	OverallScore float64 `json:"overall_score"`
	Label        string  `json:"label"`
}

func risk(v float64) map[string]float64 {
	return map[string]float64{
		"market_volatility":  v,
		"liquidity_risk":     v,
		"regulatory_risk":    v,
		"operational_risk":   v,
		"credit_risk":        v,
		"technology_risk":    v,
		"environmental_risk": v,
	}
}

var demo = []reportRequest{
	{
		Pipeline: "asset",
		Subject:  "manhattan-office-complex",
		Inputs: map[string]map[string]float64{
			"valuation": {"confidence": 86.4},
			"risk":      risk(35),
			"market":    {"liquidity": 80, "demand": 75},
		},
	},
	{
		Pipeline: "asset",
		Subject:  "austin-solar-farm",
		Inputs: map[string]map[string]float64{
			"valuation": {"confidence": 72},
			"risk":      risk(55),
			"market":    {"liquidity": 60, "demand": 82},
		},
	},
	{
		Pipeline: "asset",
		Subject:  "vintage-wine-collection",
		Inputs: map[string]map[string]float64{
			"valuation": {"confidence": 48},
			"risk":      risk(78),
			"market":    {"liquidity": 25, "demand": 40},
		},
	},
	{
		Pipeline: "eco",
		Subject:  "user-0042",
		Inputs: map[string]map[string]float64{
			// 12 actions, 3 categories, 1t CO2 offset
			"eco": {"action": 30, "consistency": 40, "diversity": 60, "impact": 66.67},
		},
	},
	{
		Pipeline: "compliance",
		Subject:  "manhattan-office-complex",
		Inputs: map[string]map[string]float64{
			"compliance": {
				"securities_regulation":    100,
				"kyc_aml":                  100,
				"tax_compliance":           100,
				"environmental_compliance": 0,
				"zoning_permits":           100,
			},
		},
	},
}

func main() {
	apiURL := flag.String("api", "http://localhost:8700", "Scorecard API base URL")
	clientID := flag.String("client", "seed", "X-Client-ID header value")
	dryRun := flag.Bool("dry-run", false, "print requests without posting")
	flag.Parse()

	if *dryRun {
		for i, r := range demo {
			body, _ := json.MarshalIndent(r, "", "  ")
			fmt.Printf("[%d] %s/%s\n%s\n", i+1, r.Pipeline, r.Subject, body)
		}
		return
	}

	client := &http.Client{}
	created, failed := 0, 0
	for _, r := range demo {
		body, _ := json.Marshal(r)
		req, err := http.NewRequest("POST", *apiURL+"/api/v1/reports", bytes.NewReader(body))
		if err != nil {
			log.Printf("skip %s: %v", r.Subject, err)
			failed++
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Client-ID", *clientID)

		resp, err := client.Do(req)
		if err != nil {
			log.Printf("skip %s: %v", r.Subject, err)
			failed++
			continue
		}

		if resp.StatusCode != http.StatusCreated {
			log.Printf("skip %s: status %d", r.Subject, resp.StatusCode)
			resp.Body.Close()
			failed++
			continue
		}
		var out reportResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err == nil {
			log.Printf("%s/%s: %.0f %s (%s)", r.Pipeline, r.Subject, out.OverallScore, out.Label, out.ID)
		}
		resp.Body.Close()
		created++
	}

	log.Printf("done: %d created, %d failed", created, failed)
}
