// Package schemas embeds the JSON Schema contracts for recruiting API responses.
package schemas

import "embed"

// FS holds every *.schema.json file in this directory.
//
//go:embed *.schema.json
var FS embed.FS

// Contract file names.
const (
	SearchResponse = "search_response.schema.json"
	Candidate      = "candidate.schema.json"
	UnlockResponse = "unlock_response.schema.json"
	CandidateList  = "candidate_list.schema.json"
	Campaign       = "campaign.schema.json"
	CampaignList   = "campaign_list.schema.json"
)
